package services

import (
	"math"
	"strings"
	"time"

	"salon-backoffice/models"
)

const (
	SixthVisitInterval   = 6
	PercentDiscountValue = 20.0
	ComboDiscountAmount  = 2000.0
	ComboMinimumTotal    = 2000.0
	LoyaltyPointUnit     = 1000.0

	comboKeyword = "shampoo"
)

// Rule names used when a rule of the type has to be created on the fly.
var defaultRuleNames = map[models.DiscountType]string{
	models.DiscountSixthVisit:    "Sixth Visit Discount",
	models.DiscountBirthdayMonth: "Birthday Month Discount",
	models.DiscountServiceCombo:  "Service Combo Discount",
}

// DiscountInput is everything the engine needs to know about a visit.
type DiscountInput struct {
	// PriorVisits is the customer's visit count before this visit.
	PriorVisits int
	BirthMonth  *int
	// BirthdayUsed reports a BIRTHDAY_MONTH usage on or after the first
	// day of the reference month.
	BirthdayUsed bool
	ServiceNames []string
	TotalAmount  float64
	// Reference decides the calendar month for the birthday rule.
	Reference time.Time
}

type AppliedDiscount struct {
	Type   models.DiscountType `json:"type"`
	Name   string              `json:"name"`
	Amount float64             `json:"amount"`
}

type DiscountResult struct {
	TotalAmount         float64           `json:"totalAmount"`
	DiscountAmount      float64           `json:"discountAmount"`
	FinalAmount         float64           `json:"finalAmount"`
	LoyaltyPointsEarned int               `json:"loyaltyPointsEarned"`
	Discounts           []AppliedDiscount `json:"discounts"`
}

// CalculateDiscounts applies the sixth-visit, birthday-month and
// service-combo rules. The rules are independent and additive.
func CalculateDiscounts(in DiscountInput) DiscountResult {
	res := DiscountResult{
		TotalAmount: in.TotalAmount,
		Discounts:   []AppliedDiscount{},
	}

	if IsSixthVisit(in.PriorVisits) {
		res.Discounts = append(res.Discounts, AppliedDiscount{
			Type:   models.DiscountSixthVisit,
			Name:   defaultRuleNames[models.DiscountSixthVisit],
			Amount: percentOf(in.TotalAmount, PercentDiscountValue),
		})
	}

	if IsBirthdayMonth(in.BirthMonth, in.Reference) && !in.BirthdayUsed {
		res.Discounts = append(res.Discounts, AppliedDiscount{
			Type:   models.DiscountBirthdayMonth,
			Name:   defaultRuleNames[models.DiscountBirthdayMonth],
			Amount: percentOf(in.TotalAmount, PercentDiscountValue),
		})
	}

	if IsServiceCombo(in.ServiceNames) && in.TotalAmount >= ComboMinimumTotal {
		res.Discounts = append(res.Discounts, AppliedDiscount{
			Type:   models.DiscountServiceCombo,
			Name:   defaultRuleNames[models.DiscountServiceCombo],
			Amount: ComboDiscountAmount,
		})
	}

	for _, d := range res.Discounts {
		res.DiscountAmount += d.Amount
	}
	res.FinalAmount = math.Max(0, in.TotalAmount-res.DiscountAmount)
	res.LoyaltyPointsEarned = LoyaltyPoints(res.FinalAmount)
	return res
}

func IsSixthVisit(priorVisits int) bool {
	return (priorVisits+1)%SixthVisitInterval == 0
}

// VisitsUntilSixth counts the visits left before the next discounted one,
// the next visit included.
func VisitsUntilSixth(priorVisits int) int {
	return SixthVisitInterval - priorVisits%SixthVisitInterval
}

func IsBirthdayMonth(birthMonth *int, ref time.Time) bool {
	return birthMonth != nil && *birthMonth == int(ref.Month())
}

// IsServiceCombo needs at least one shampoo service and one other service.
func IsServiceCombo(names []string) bool {
	var shampoo, other bool
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), comboKeyword) {
			shampoo = true
		} else {
			other = true
		}
	}
	return shampoo && other
}

func LoyaltyPoints(finalAmount float64) int {
	return int(math.Floor(finalAmount / LoyaltyPointUnit))
}

func percentOf(amount, percent float64) float64 {
	return math.Round(amount * (percent / 100))
}

// ruleDefaults returns the value and percentage flag of an auto-created rule.
func ruleDefaults(t models.DiscountType) (float64, bool) {
	if t == models.DiscountServiceCombo {
		return ComboDiscountAmount, false
	}
	return PercentDiscountValue, true
}
