package services

import (
	"math"
	"testing"
	"time"

	"salon-backoffice/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

var august = time.Date(2024, time.August, 17, 10, 0, 0, 0, time.UTC)

func discountTypes(res DiscountResult) []models.DiscountType {
	types := make([]models.DiscountType, 0, len(res.Discounts))
	for _, d := range res.Discounts {
		types = append(types, d.Type)
	}
	return types
}

func TestCalculateDiscounts_AllThreeRules(t *testing.T) {
	res := CalculateDiscounts(DiscountInput{
		PriorVisits:  5,
		BirthMonth:   intPtr(8),
		ServiceNames: []string{"Shampoo", "Treatment"},
		TotalAmount:  10000,
		Reference:    august,
	})

	assert.Equal(t, []models.DiscountType{
		models.DiscountSixthVisit,
		models.DiscountBirthdayMonth,
		models.DiscountServiceCombo,
	}, discountTypes(res))
	for _, d := range res.Discounts {
		assert.Equal(t, 2000.0, d.Amount, d.Type)
	}
	assert.Equal(t, 10000.0, res.TotalAmount)
	assert.Equal(t, 6000.0, res.DiscountAmount)
	assert.Equal(t, 4000.0, res.FinalAmount)
	assert.Equal(t, 4, res.LoyaltyPointsEarned)
}

func TestCalculateDiscounts_NoDiscounts(t *testing.T) {
	res := CalculateDiscounts(DiscountInput{
		PriorVisits:  2,
		BirthMonth:   intPtr(3),
		ServiceNames: []string{"Haircut"},
		TotalAmount:  3500,
		Reference:    august,
	})

	assert.Empty(t, res.Discounts)
	assert.NotNil(t, res.Discounts)
	assert.Equal(t, 0.0, res.DiscountAmount)
	assert.Equal(t, 3500.0, res.FinalAmount)
	assert.Equal(t, 3, res.LoyaltyPointsEarned)
}

func TestCalculateDiscounts_SixthVisitRounding(t *testing.T) {
	for _, total := range []float64{0, 1, 2, 3, 7, 1234, 2501, 9999, 123457} {
		for _, prior := range []int{5, 11, 17} {
			res := CalculateDiscounts(DiscountInput{
				PriorVisits:  prior,
				ServiceNames: []string{"Cut"},
				TotalAmount:  total,
				Reference:    august,
			})
			require.Len(t, res.Discounts, 1)
			assert.Equal(t, models.DiscountSixthVisit, res.Discounts[0].Type)
			assert.Equal(t, math.Round(0.2*total), res.Discounts[0].Amount, "total %v", total)
		}
	}
}

func TestCalculateDiscounts_SixthVisitOnlyOnMultiples(t *testing.T) {
	for prior := 0; prior < 20; prior++ {
		res := CalculateDiscounts(DiscountInput{
			PriorVisits:  prior,
			ServiceNames: []string{"Cut"},
			TotalAmount:  1000,
			Reference:    august,
		})
		want := (prior+1)%6 == 0
		assert.Equal(t, want, len(res.Discounts) == 1, "prior visits %d", prior)
	}
}

func TestCalculateDiscounts_BirthdayOncePerMonth(t *testing.T) {
	in := DiscountInput{
		BirthMonth:   intPtr(8),
		ServiceNames: []string{"Cut"},
		TotalAmount:  5000,
		Reference:    august,
	}
	assert.Equal(t, []models.DiscountType{models.DiscountBirthdayMonth}, discountTypes(CalculateDiscounts(in)))

	in.BirthdayUsed = true
	assert.Empty(t, CalculateDiscounts(in).Discounts)

	in.BirthdayUsed = false
	in.BirthMonth = nil
	assert.Empty(t, CalculateDiscounts(in).Discounts)
}

func TestCalculateDiscounts_Combo(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		total float64
		want  bool
	}{
		{"shampoo and other", []string{"Deep SHAMPOO", "Blow dry"}, 2000, true},
		{"below minimum", []string{"Shampoo", "Blow dry"}, 1999, false},
		{"only shampoo", []string{"Shampoo", "Dry shampoo"}, 5000, false},
		{"no shampoo", []string{"Cut", "Colour"}, 5000, false},
		{"large total stays flat", []string{"Shampoo", "Colour"}, 90000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CalculateDiscounts(DiscountInput{ServiceNames: tt.names, TotalAmount: tt.total, Reference: august})
			if !tt.want {
				assert.Empty(t, res.Discounts)
				return
			}
			require.Len(t, res.Discounts, 1)
			assert.Equal(t, models.DiscountServiceCombo, res.Discounts[0].Type)
			assert.Equal(t, ComboDiscountAmount, res.Discounts[0].Amount)
		})
	}
}

func TestCalculateDiscounts_FinalNeverNegative(t *testing.T) {
	res := CalculateDiscounts(DiscountInput{
		PriorVisits:  5,
		BirthMonth:   intPtr(8),
		ServiceNames: []string{"Shampoo", "Trim"},
		TotalAmount:  2000,
		Reference:    august,
	})

	assert.Equal(t, 2800.0, res.DiscountAmount)
	assert.Equal(t, 0.0, res.FinalAmount)
	assert.Equal(t, 0, res.LoyaltyPointsEarned)
}

func TestLoyaltyPoints(t *testing.T) {
	assert.Equal(t, 0, LoyaltyPoints(999.99))
	assert.Equal(t, 1, LoyaltyPoints(1000))
	assert.Equal(t, 12, LoyaltyPoints(12999))
}

func TestVisitsUntilSixth(t *testing.T) {
	assert.Equal(t, 6, VisitsUntilSixth(0))
	assert.Equal(t, 1, VisitsUntilSixth(5))
	assert.Equal(t, 6, VisitsUntilSixth(6))
	assert.Equal(t, 3, VisitsUntilSixth(9))
}

func TestRuleDefaults(t *testing.T) {
	value, pct := ruleDefaults(models.DiscountServiceCombo)
	assert.Equal(t, 2000.0, value)
	assert.False(t, pct)

	value, pct = ruleDefaults(models.DiscountBirthdayMonth)
	assert.Equal(t, 20.0, value)
	assert.True(t, pct)
}
