package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"salon-backoffice/config"
	"salon-backoffice/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingMetrics struct {
	created, updated, deleted int
	discounts                 map[string]int
}

func (m *recordingMetrics) IncVisitCreated() { m.created++ }
func (m *recordingMetrics) IncVisitUpdated() { m.updated++ }
func (m *recordingMetrics) IncVisitDeleted() { m.deleted++ }
func (m *recordingMetrics) IncDiscountApplied(t string, _ float64) {
	if m.discounts == nil {
		m.discounts = map[string]int{}
	}
	m.discounts[t]++
}
func (m *recordingMetrics) ObserveVisitAmount(float64) {}

type countingCache struct{ invalidations int }

func (c *countingCache) Invalidate(context.Context) { c.invalidations++ }

func integrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set; skipping Postgres integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	require.NoError(t, db.Exec(`TRUNCATE customer_discounts, visit_discounts, visit_staff, visit_items,
		visits, discount_rules, product_sales, products, staff, services, customers CASCADE`).Error)
	return db
}

func seedService(t *testing.T, db *gorm.DB, name string, price float64) models.Service {
	t.Helper()
	svc := models.Service{Name: name, SinglePrice: floatPtr(price), IsActive: true}
	require.NoError(t, db.Create(&svc).Error)
	return svc
}

func TestVisitService_Lifecycle_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	now := time.Now()

	customer := models.Customer{
		FullName:   "Amina Otieno",
		Phone:      "+254700000001",
		BirthMonth: intPtr(int(now.Month())),
		VisitCount: 5,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&customer).Error)

	shampoo := seedService(t, db, "Shampoo", 4000)
	treatment := seedService(t, db, "Treatment", 6000)
	stylist := models.Staff{FullName: "Joy", IsActive: true}
	require.NoError(t, db.Create(&stylist).Error)

	m := &recordingMetrics{}
	cache := &countingCache{}
	svc := NewVisitService(db, quietLogger(), m, cache)

	visit, err := svc.Create(ctx, CreateVisitInput{
		CustomerID: customer.ID,
		Services: []LineInput{
			{ServiceID: shampoo.ID, Quantity: 1},
			{ServiceID: treatment.ID, Quantity: 1},
		},
		StaffIDs: []uuid.UUID{stylist.ID, stylist.ID},
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 6, visit.VisitNumber)
	assert.Equal(t, 10000.0, visit.TotalAmount)
	assert.Equal(t, 6000.0, visit.DiscountAmount)
	assert.Equal(t, 4000.0, visit.FinalAmount)
	assert.Equal(t, 4, visit.LoyaltyPointsEarned)
	assert.Len(t, visit.Items, 2)
	assert.Len(t, visit.Staff, 1)
	assert.Len(t, visit.Discounts, 3)
	assert.True(t, visit.IsCompleted)
	assert.Equal(t, 1, m.created)
	assert.Equal(t, 1, m.discounts[string(models.DiscountBirthdayMonth)])
	assert.Equal(t, 1, cache.invalidations)

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Equal(t, 6, reloaded.VisitCount)
	assert.Equal(t, 4, reloaded.LoyaltyPoints)
	assert.Equal(t, 4000.0, reloaded.TotalSpent)
	require.NotNil(t, reloaded.LastVisit)

	var rules int64
	require.NoError(t, db.Model(&models.DiscountRule{}).Count(&rules).Error)
	assert.Equal(t, int64(3), rules)

	// second visit this month: birthday already used, not a sixth visit
	second, err := svc.Create(ctx, CreateVisitInput{
		CustomerID: customer.ID,
		Services:   []LineInput{{ServiceID: treatment.ID}},
	}, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, second.Discounts)
	assert.Equal(t, 6000.0, second.FinalAmount)

	// repricing keeps the customer's aggregates
	updated, err := svc.Update(ctx, visit.ID, UpdateVisitInput{
		Services: &[]LineInput{{ServiceID: treatment.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, 6000.0, updated.TotalAmount)
	assert.Equal(t, 2400.0, updated.DiscountAmount)
	assert.Len(t, updated.Discounts, 2)
	assert.Len(t, updated.Items, 1)

	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Equal(t, 7, reloaded.VisitCount)
	assert.Equal(t, 10000.0, reloaded.TotalSpent)

	// deleting reverses the stored increments and frees the usages
	require.NoError(t, svc.Delete(ctx, second.ID))
	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Equal(t, 6, reloaded.VisitCount)
	assert.Equal(t, 4000.0, reloaded.TotalSpent)

	_, err = svc.Get(ctx, second.ID)
	assert.ErrorIs(t, err, ErrVisitNotFound)
}

func TestVisitService_RejectsBadInput_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	svc := NewVisitService(db, quietLogger(), nil, nil)

	inactive := models.Customer{FullName: "Gone", Phone: "+254700000002", IsActive: true}
	require.NoError(t, db.Create(&inactive).Error)
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)
	cut := seedService(t, db, "Cut", 1500)

	_, err := svc.Create(ctx, CreateVisitInput{
		CustomerID: uuid.New(),
		Services:   []LineInput{{ServiceID: cut.ID}},
	}, uuid.New())
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = svc.Create(ctx, CreateVisitInput{
		CustomerID: inactive.ID,
		Services:   []LineInput{{ServiceID: cut.ID}},
	}, uuid.New())
	assert.ErrorIs(t, err, ErrCustomerInactive)

	active := models.Customer{FullName: "Here", Phone: "+254700000003", IsActive: true}
	require.NoError(t, db.Create(&active).Error)

	_, err = svc.Create(ctx, CreateVisitInput{
		CustomerID: active.ID,
		Services:   []LineInput{{ServiceID: uuid.New()}},
	}, uuid.New())
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = svc.Create(ctx, CreateVisitInput{
		CustomerID: active.ID,
		Services:   []LineInput{{ServiceID: cut.ID}},
		StaffIDs:   []uuid.UUID{uuid.New()},
	}, uuid.New())
	assert.ErrorIs(t, err, ErrStaffNotFound)

	var visits int64
	require.NoError(t, db.Model(&models.Visit{}).Count(&visits).Error)
	assert.Zero(t, visits)

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, "id = ?", active.ID).Error)
	assert.Zero(t, reloaded.VisitCount)
}

func seedSixthVisitCustomer(t *testing.T, db *gorm.DB, phone string) models.Customer {
	t.Helper()
	customer := models.Customer{FullName: "Achieng Odhiambo", Phone: phone, VisitCount: 5, IsActive: true}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

func TestVisitService_ReusesInactiveRule_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	for _, name := range []string{"Sixth Visit Discount", "Sixth Visit Discount (SIXTH_VISIT)"} {
		rule := models.DiscountRule{Name: name, Type: models.DiscountSixthVisit, Value: 20, IsPercentage: true, ApplyToAllServices: true}
		require.NoError(t, db.Create(&rule).Error)
		require.NoError(t, db.Model(&rule).Update("is_active", false).Error)
	}

	customer := seedSixthVisitCustomer(t, db, "+254700000020")
	cut := seedService(t, db, "Cut", 5000)
	svc := NewVisitService(db, quietLogger(), nil, nil)

	visit, err := svc.Create(ctx, CreateVisitInput{
		CustomerID: customer.ID,
		Services:   []LineInput{{ServiceID: cut.ID}},
	}, uuid.New())
	require.NoError(t, err)
	require.Len(t, visit.Discounts, 1)
	require.NotNil(t, visit.Discounts[0].DiscountRule)
	assert.Equal(t, "Sixth Visit Discount (SIXTH_VISIT)", visit.Discounts[0].DiscountRule.Name)
	assert.Equal(t, 1000.0, visit.DiscountAmount)

	var rules int64
	require.NoError(t, db.Model(&models.DiscountRule{}).Count(&rules).Error)
	assert.Equal(t, int64(2), rules)
}

func TestFindOrCreateRule_NameHeldByOtherType_Integration(t *testing.T) {
	db := integrationDB(t)

	for _, name := range []string{"Service Combo Discount", "Service Combo Discount (SERVICE_COMBO)"} {
		rule := models.DiscountRule{Name: name, Type: models.DiscountSeasonal, Value: 5, IsPercentage: true, ApplyToAllServices: true}
		require.NoError(t, db.Create(&rule).Error)
	}

	rule, err := findOrCreateRule(db, models.DiscountServiceCombo)
	require.NoError(t, err)
	assert.Contains(t, rule.Name, "Service Combo Discount (SERVICE_COMBO ")
	assert.Equal(t, ComboDiscountAmount, rule.Value)

	var stored models.DiscountRule
	require.NoError(t, db.First(&stored, "id = ?", rule.ID).Error)
	assert.False(t, stored.IsPercentage)

	again, err := findOrCreateRule(db, models.DiscountServiceCombo)
	require.NoError(t, err)
	assert.Equal(t, rule.ID, again.ID)
}

func TestVisitService_RollsBackAfterVisitInsert_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	errLinkFailed := errors.New("visit_discounts unavailable")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_discount_links", func(tx *gorm.DB) {
		if tx.Statement.Table == "visit_discounts" {
			_ = tx.AddError(errLinkFailed)
		}
	}))

	customer := seedSixthVisitCustomer(t, db, "+254700000021")
	cut := seedService(t, db, "Cut", 5000)
	svc := NewVisitService(db, quietLogger(), nil, nil)

	_, err := svc.Create(ctx, CreateVisitInput{
		CustomerID: customer.ID,
		Services:   []LineInput{{ServiceID: cut.ID}},
	}, uuid.New())
	require.ErrorIs(t, err, errLinkFailed)

	for _, model := range []interface{}{&models.Visit{}, &models.VisitItem{}, &models.VisitDiscount{}, &models.CustomerDiscount{}, &models.DiscountRule{}} {
		var count int64
		require.NoError(t, db.Unscoped().Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Equal(t, 5, reloaded.VisitCount)
	assert.Zero(t, reloaded.TotalSpent)
	assert.Nil(t, reloaded.LastVisit)
}
