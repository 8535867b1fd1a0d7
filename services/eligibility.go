package services

import (
	"context"
	"errors"

	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SixthVisitEligibility struct {
	Eligible        bool `json:"eligible"`
	VisitCount      int  `json:"visitCount"`
	VisitsUntilNext int  `json:"visitsUntilNext"`
}

type BirthdayEligibility struct {
	Eligible      bool   `json:"eligible"`
	BirthMonth    *int   `json:"birthMonth"`
	UsedThisMonth bool   `json:"usedThisMonth"`
	Reason        string `json:"reason"`
}

type EligibilityReport struct {
	CustomerID  uuid.UUID             `json:"customerId"`
	SixthVisit  SixthVisitEligibility `json:"sixthVisit"`
	Birthday    BirthdayEligibility   `json:"birthday"`
	ActiveRules []models.DiscountRule `json:"activeRules"`
}

// BirthdayStatus is the customer-facing birthday check. Unlike the pricing
// path it also requires at least one prior sale.
func BirthdayStatus(customer models.Customer, used bool, month int) BirthdayEligibility {
	status := BirthdayEligibility{BirthMonth: customer.BirthMonth, UsedThisMonth: used}
	switch {
	case customer.BirthMonth == nil:
		status.Reason = "Birth month not recorded"
	case *customer.BirthMonth != month:
		status.Reason = "Not the customer's birthday month"
	case customer.SaleCount < 1:
		status.Reason = "Customer needs at least one prior sale"
	case used:
		status.Reason = "Birthday discount already used this month"
	default:
		status.Eligible = true
		status.Reason = "Eligible for birthday month discount"
	}
	return status
}

// Eligibility reports which automatic discounts the customer's next visit
// would qualify for. It never writes.
func (s *DiscountService) Eligibility(ctx context.Context, customerID uuid.UUID) (*EligibilityReport, error) {
	db := s.db.WithContext(ctx)
	now := s.now()

	var customer models.Customer
	if err := db.First(&customer, "id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	used, err := birthdayUsedSince(db, customer.ID, utils.BeginningOfMonth(now))
	if err != nil {
		return nil, err
	}

	var rules []models.DiscountRule
	if err := db.Where("is_active = ?", true).
		Where("valid_from IS NULL OR valid_from <= ?", now).
		Where("valid_until IS NULL OR valid_until >= ?", now).
		Order("type").Find(&rules).Error; err != nil {
		return nil, err
	}

	return &EligibilityReport{
		CustomerID: customer.ID,
		SixthVisit: SixthVisitEligibility{
			Eligible:        IsSixthVisit(customer.VisitCount),
			VisitCount:      customer.VisitCount,
			VisitsUntilNext: VisitsUntilSixth(customer.VisitCount),
		},
		Birthday:    BirthdayStatus(customer, used, int(now.Month())),
		ActiveRules: rules,
	}, nil
}
