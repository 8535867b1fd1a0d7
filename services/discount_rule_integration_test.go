package services

import (
	"context"
	"testing"
	"time"

	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountService_Rules_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	svc := NewDiscountService(db, quietLogger())

	fixed := false
	rule, err := svc.Create(ctx, RuleInput{
		Name:         "Holiday Flat",
		Type:         models.DiscountSeasonal,
		Value:        500,
		IsPercentage: &fixed,
	})
	require.NoError(t, err)
	assert.False(t, rule.IsPercentage)
	assert.True(t, rule.IsActive)

	_, err = svc.Create(ctx, RuleInput{Name: "Holiday Flat", Type: models.DiscountPromotional, Value: 10})
	assert.ErrorIs(t, err, ErrRuleNameTaken)

	require.NoError(t, svc.Delete(ctx, rule.ID))
	deleted, err := svc.Get(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, deleted.IsActive)
	assert.Contains(t, deleted.Name, "Holiday Flat_deleted_")

	// the name is free again once the old rule is renamed
	_, err = svc.Create(ctx, RuleInput{Name: "Holiday Flat", Type: models.DiscountSeasonal, Value: 10})
	require.NoError(t, err)

	from := time.Now().AddDate(0, 0, -10)
	until := time.Now().AddDate(0, 0, -1)
	_, err = svc.Create(ctx, RuleInput{
		Name:       "Last Week Promo",
		Type:       models.DiscountPromotional,
		Value:      15,
		ValidFrom:  &from,
		ValidUntil: &until,
	})
	require.NoError(t, err)

	expired, err := svc.ExpireRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	active := true
	rules, total, err := svc.List(ctx, RuleFilter{IsActive: &active}, utils.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, rules, 1)
}

func TestDiscountService_EligibilityAndUsage_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	now := time.Now()

	customer := models.Customer{
		FullName:   "Wanjiru Kamau",
		Phone:      "+254700000010",
		BirthMonth: intPtr(int(now.Month())),
		IsActive:   true,
	}
	require.NoError(t, db.Create(&customer).Error)

	rules := NewDiscountService(db, quietLogger())
	report, err := rules.Eligibility(ctx, customer.ID)
	require.NoError(t, err)
	assert.False(t, report.Birthday.Eligible)
	assert.Equal(t, 6, report.SixthVisit.VisitsUntilNext)

	// a retail sale satisfies the prior-sale requirement
	product := models.Product{Name: "Argan Oil", SKU: "ARG-01", Price: 1200, Stock: 2, IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	products := NewProductService(db, quietLogger(), nil)

	sale, err := products.Sell(ctx, product.ID, SellInput{CustomerID: &customer.ID, Quantity: 2}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 2400.0, sale.TotalPrice)

	_, err = products.Sell(ctx, product.ID, SellInput{Quantity: 1}, uuid.New())
	assert.ErrorIs(t, err, ErrInsufficientStock)

	report, err = rules.Eligibility(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, report.Birthday.Eligible)

	cut := seedService(t, db, "Cut", 1500)
	visits := NewVisitService(db, quietLogger(), nil, nil)
	_, err = visits.Create(ctx, CreateVisitInput{
		CustomerID: customer.ID,
		Services:   []LineInput{{ServiceID: cut.ID}},
	}, uuid.New())
	require.NoError(t, err)

	usages, total, err := rules.Usage(ctx, customer.ID, utils.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, usages, 1)
	require.NotNil(t, usages[0].DiscountRule)
	assert.Equal(t, models.DiscountBirthdayMonth, usages[0].DiscountRule.Type)
	assert.Equal(t, 300.0, usages[0].Amount)

	report, err = rules.Eligibility(ctx, customer.ID)
	require.NoError(t, err)
	assert.False(t, report.Birthday.Eligible)
	assert.True(t, report.Birthday.UsedThisMonth)

	_, _, err = rules.Usage(ctx, uuid.New(), utils.Pagination{Page: 1, Limit: 20})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}
