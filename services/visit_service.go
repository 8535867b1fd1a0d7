package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salon-backoffice/metrics"
	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DashboardInvalidator drops cached dashboard figures after a write.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

type CreateVisitInput struct {
	CustomerID  uuid.UUID   `json:"customerId" binding:"required"`
	Services    []LineInput `json:"services" binding:"required,min=1,dive"`
	StaffIDs    []uuid.UUID `json:"staffIds"`
	VisitDate   *time.Time  `json:"visitDate"`
	Notes       string      `json:"notes"`
	IsCompleted *bool       `json:"isCompleted"`
}

// UpdateVisitInput changes only the fields that are set.
type UpdateVisitInput struct {
	Services    *[]LineInput `json:"services" binding:"omitempty,dive"`
	StaffIDs    *[]uuid.UUID `json:"staffIds"`
	VisitDate   *time.Time   `json:"visitDate"`
	Notes       *string      `json:"notes"`
	IsCompleted *bool        `json:"isCompleted"`
}

type PreviewInput struct {
	CustomerID uuid.UUID   `json:"customerId" binding:"required"`
	Services   []LineInput `json:"services" binding:"required,min=1,dive"`
}

type VisitPreview struct {
	Items []models.VisitItem `json:"items"`
	DiscountResult
}

type VisitFilter struct {
	CustomerID  *uuid.UUID
	StaffID     *uuid.UUID
	From        *time.Time
	To          *time.Time
	IsCompleted *bool
}

type VisitService struct {
	db      *gorm.DB
	log     *logrus.Logger
	metrics metrics.VisitMetrics
	cache   DashboardInvalidator
	now     func() time.Time
}

func NewVisitService(db *gorm.DB, log *logrus.Logger, m metrics.VisitMetrics, cache DashboardInvalidator) *VisitService {
	return &VisitService{db: db, log: log, metrics: m, cache: cache, now: time.Now}
}

// Create prices the visit, applies discounts and updates the customer's
// aggregates in one transaction.
func (s *VisitService) Create(ctx context.Context, input CreateVisitInput, createdBy uuid.UUID) (*models.Visit, error) {
	if len(input.Services) == 0 {
		return nil, ErrNoServices
	}

	now := s.now()
	var visit models.Visit
	var result DiscountResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := lockCustomer(tx, input.CustomerID)
		if err != nil {
			return err
		}
		if !customer.IsActive {
			return ErrCustomerInactive
		}

		catalog, err := loadServices(tx, input.Services, true)
		if err != nil {
			return err
		}
		staffIDs, err := checkStaff(tx, input.StaffIDs)
		if err != nil {
			return err
		}

		items, total, err := PriceLines(input.Services, catalog)
		if err != nil {
			return err
		}

		used, err := birthdayUsedSince(tx, customer.ID, utils.BeginningOfMonth(now))
		if err != nil {
			return err
		}

		result = CalculateDiscounts(DiscountInput{
			PriorVisits:  customer.VisitCount,
			BirthMonth:   customer.BirthMonth,
			BirthdayUsed: used,
			ServiceNames: ServiceNames(items),
			TotalAmount:  total,
			Reference:    now,
		})

		visitDate := now
		if input.VisitDate != nil {
			visitDate = *input.VisitDate
		}
		isCompleted := true
		if input.IsCompleted != nil {
			isCompleted = *input.IsCompleted
		}

		visit = models.Visit{
			CustomerID:          customer.ID,
			CreatedByID:         createdBy,
			VisitNumber:         customer.VisitCount + 1,
			VisitDate:           visitDate,
			TotalAmount:         result.TotalAmount,
			DiscountAmount:      result.DiscountAmount,
			FinalAmount:         result.FinalAmount,
			LoyaltyPointsEarned: result.LoyaltyPointsEarned,
			Notes:               input.Notes,
			IsCompleted:         isCompleted,
			Items:               items,
			Staff:               staffRows(staffIDs),
		}
		if err := tx.Create(&visit).Error; err != nil {
			return fmt.Errorf("create visit: %w", err)
		}

		if err := recordDiscounts(tx, &visit, customer.ID, result.Discounts, now); err != nil {
			return err
		}

		return tx.Model(&models.Customer{}).Where("id = ?", customer.ID).
			Updates(map[string]interface{}{
				"visit_count":    gorm.Expr("visit_count + ?", 1),
				"loyalty_points": gorm.Expr("loyalty_points + ?", result.LoyaltyPointsEarned),
				"total_spent":    gorm.Expr("total_spent + ?", result.FinalAmount),
				"last_visit":     now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	s.observe(result)
	if s.metrics != nil {
		s.metrics.IncVisitCreated()
	}
	s.invalidate(ctx)

	s.log.WithFields(logrus.Fields{
		"visit_id":       visit.ID,
		"customer_id":    visit.CustomerID,
		"visit_number":   visit.VisitNumber,
		"total_amount":   visit.TotalAmount,
		"discount_count": len(result.Discounts),
		"final_amount":   visit.FinalAmount,
	}).Info("Visit created")

	return s.Get(ctx, visit.ID)
}

// Update rewrites the visit. A new service list is repriced and its
// discounts recomputed as of the visit's creation; the customer's
// aggregates keep the values applied at creation.
func (s *VisitService) Update(ctx context.Context, id uuid.UUID, input UpdateVisitInput) (*models.Visit, error) {
	if input.Services != nil && len(*input.Services) == 0 {
		return nil, ErrNoServices
	}

	var result *DiscountResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var visit models.Visit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&visit, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVisitNotFound
			}
			return err
		}

		updates := map[string]interface{}{}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		if input.IsCompleted != nil {
			updates["is_completed"] = *input.IsCompleted
		}
		if input.VisitDate != nil {
			updates["visit_date"] = *input.VisitDate
		}

		if input.StaffIDs != nil {
			staffIDs, err := checkStaff(tx, *input.StaffIDs)
			if err != nil {
				return err
			}
			if err := tx.Where("visit_id = ?", visit.ID).Delete(&models.VisitStaff{}).Error; err != nil {
				return err
			}
			if rows := staffRows(staffIDs); len(rows) > 0 {
				for i := range rows {
					rows[i].VisitID = visit.ID
				}
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}

		if input.Services != nil {
			r, err := s.reprice(tx, &visit, *input.Services)
			if err != nil {
				return err
			}
			result = r
			updates["total_amount"] = r.TotalAmount
			updates["discount_amount"] = r.DiscountAmount
			updates["final_amount"] = r.FinalAmount
			updates["loyalty_points_earned"] = r.LoyaltyPointsEarned
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&visit).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if result != nil {
		s.observe(*result)
	}
	if s.metrics != nil {
		s.metrics.IncVisitUpdated()
	}
	s.invalidate(ctx)

	s.log.WithFields(logrus.Fields{
		"visit_id": id,
		"repriced": result != nil,
	}).Info("Visit updated")

	return s.Get(ctx, id)
}

func (s *VisitService) reprice(tx *gorm.DB, visit *models.Visit, lines []LineInput) (*DiscountResult, error) {
	var customer models.Customer
	if err := tx.First(&customer, "id = ?", visit.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	catalog, err := loadServices(tx, lines, false)
	if err != nil {
		return nil, err
	}
	items, total, err := PriceLines(lines, catalog)
	if err != nil {
		return nil, err
	}

	if err := clearVisitDiscounts(tx, visit.ID); err != nil {
		return nil, err
	}
	if err := tx.Where("visit_id = ?", visit.ID).Delete(&models.VisitItem{}).Error; err != nil {
		return nil, err
	}

	ref := visit.CreatedAt
	used, err := birthdayUsedSince(tx, customer.ID, utils.BeginningOfMonth(ref))
	if err != nil {
		return nil, err
	}

	result := CalculateDiscounts(DiscountInput{
		PriorVisits:  visit.VisitNumber - 1,
		BirthMonth:   customer.BirthMonth,
		BirthdayUsed: used,
		ServiceNames: ServiceNames(items),
		TotalAmount:  total,
		Reference:    ref,
	})

	for i := range items {
		items[i].VisitID = visit.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		return nil, fmt.Errorf("create visit items: %w", err)
	}
	if err := recordDiscounts(tx, visit, customer.ID, result.Discounts, ref); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete soft deletes the visit, releases its discount usages and takes
// its creation increments back off the customer.
func (s *VisitService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var visit models.Visit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&visit, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVisitNotFound
			}
			return err
		}

		if err := clearVisitDiscounts(tx, visit.ID); err != nil {
			return err
		}

		if err := tx.Model(&models.Customer{}).Where("id = ?", visit.CustomerID).
			Updates(map[string]interface{}{
				"visit_count":    gorm.Expr("GREATEST(visit_count - 1, 0)"),
				"loyalty_points": gorm.Expr("GREATEST(loyalty_points - ?, 0)", visit.LoyaltyPointsEarned),
				"total_spent":    gorm.Expr("GREATEST(total_spent - ?, 0)", visit.FinalAmount),
			}).Error; err != nil {
			return err
		}

		return tx.Delete(&visit).Error
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncVisitDeleted()
	}
	s.invalidate(ctx)
	s.log.WithField("visit_id", id).Info("Visit deleted")
	return nil
}

// Preview prices a prospective visit without writing anything.
func (s *VisitService) Preview(ctx context.Context, input PreviewInput) (*VisitPreview, error) {
	db := s.db.WithContext(ctx)
	now := s.now()

	var customer models.Customer
	if err := db.First(&customer, "id = ?", input.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	catalog, err := loadServices(db, input.Services, true)
	if err != nil {
		return nil, err
	}
	items, total, err := PriceLines(input.Services, catalog)
	if err != nil {
		return nil, err
	}
	used, err := birthdayUsedSince(db, customer.ID, utils.BeginningOfMonth(now))
	if err != nil {
		return nil, err
	}

	result := CalculateDiscounts(DiscountInput{
		PriorVisits:  customer.VisitCount,
		BirthMonth:   customer.BirthMonth,
		BirthdayUsed: used,
		ServiceNames: ServiceNames(items),
		TotalAmount:  total,
		Reference:    now,
	})
	return &VisitPreview{Items: items, DiscountResult: result}, nil
}

func (s *VisitService) Get(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	var visit models.Visit
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Staff.Staff").
		Preload("Discounts.DiscountRule").
		First(&visit, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	return &visit, nil
}

func (s *VisitService) List(ctx context.Context, f VisitFilter, p utils.Pagination) ([]models.Visit, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Visit{})

	if f.CustomerID != nil {
		query = query.Where("visits.customer_id = ?", *f.CustomerID)
	}
	if f.StaffID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM visit_staff vs WHERE vs.visit_id = visits.id AND vs.staff_id = ?)", *f.StaffID)
	}
	if f.From != nil {
		query = query.Where("visits.visit_date >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("visits.visit_date <= ?", *f.To)
	}
	if f.IsCompleted != nil {
		query = query.Where("visits.is_completed = ?", *f.IsCompleted)
	}
	if p.Search != "" {
		query = query.Where("EXISTS (SELECT 1 FROM customers c WHERE c.id = visits.customer_id AND (c.full_name ILIKE ? OR c.phone ILIKE ?))",
			"%"+p.Search+"%", "%"+p.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var visits []models.Visit
	err := query.Scopes(p.Scope).
		Preload("Customer").
		Preload("Items").
		Preload("Staff.Staff").
		Preload("Discounts.DiscountRule").
		Order("visits.visit_date DESC").
		Find(&visits).Error
	if err != nil {
		return nil, 0, err
	}
	return visits, total, nil
}

func (s *VisitService) observe(result DiscountResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveVisitAmount(result.FinalAmount)
	for _, d := range result.Discounts {
		s.metrics.IncDiscountApplied(string(d.Type), d.Amount)
	}
}

func (s *VisitService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func lockCustomer(tx *gorm.DB, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// loadServices fetches every service the lines reference.
func loadServices(db *gorm.DB, lines []LineInput, requireActive bool) (map[uuid.UUID]models.Service, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ServiceID)
	}

	var found []models.Service
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	catalog := make(map[uuid.UUID]models.Service, len(found))
	for _, svc := range found {
		catalog[svc.ID] = svc
	}
	for _, id := range ids {
		svc, ok := catalog[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
		}
		if requireActive && !svc.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrServiceInactive, svc.Name)
		}
	}
	return catalog, nil
}

// checkStaff dedupes the ids and verifies each is an active staff member.
func checkStaff(db *gorm.DB, ids []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return unique, nil
	}

	var count int64
	if err := db.Model(&models.Staff{}).
		Where("id IN ? AND is_active = ?", unique, true).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if int(count) != len(unique) {
		return nil, ErrStaffNotFound
	}
	return unique, nil
}

func staffRows(ids []uuid.UUID) []models.VisitStaff {
	rows := make([]models.VisitStaff, len(ids))
	for i, id := range ids {
		rows[i] = models.VisitStaff{StaffID: id}
	}
	return rows
}

func birthdayUsedSince(db *gorm.DB, customerID uuid.UUID, since time.Time) (bool, error) {
	var count int64
	err := db.Model(&models.CustomerDiscount{}).
		Joins("JOIN discount_rules ON discount_rules.id = customer_discounts.discount_rule_id").
		Where("customer_discounts.customer_id = ? AND discount_rules.type = ? AND customer_discounts.used_at >= ?",
			customerID, models.DiscountBirthdayMonth, since).
		Count(&count).Error
	return count > 0, err
}

// recordDiscounts links each applied discount to the visit and records the
// customer's usage of the rule.
func recordDiscounts(tx *gorm.DB, visit *models.Visit, customerID uuid.UUID, applied []AppliedDiscount, usedAt time.Time) error {
	for _, d := range applied {
		rule, err := findOrCreateRule(tx, d.Type)
		if err != nil {
			return err
		}

		link := models.VisitDiscount{VisitID: visit.ID, DiscountRuleID: rule.ID, Amount: d.Amount}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("link discount: %w", err)
		}

		visitID := visit.ID
		usage := models.CustomerDiscount{
			CustomerID:     customerID,
			DiscountRuleID: rule.ID,
			VisitID:        &visitID,
			Amount:         d.Amount,
			UsedAt:         usedAt,
		}
		if err := tx.Create(&usage).Error; err != nil {
			return fmt.Errorf("record discount usage: %w", err)
		}
	}
	return nil
}

func clearVisitDiscounts(tx *gorm.DB, visitID uuid.UUID) error {
	if err := tx.Where("visit_id = ?", visitID).Delete(&models.VisitDiscount{}).Error; err != nil {
		return err
	}
	return tx.Where("visit_id = ?", visitID).Delete(&models.CustomerDiscount{}).Error
}

// findOrCreateRule returns the oldest active rule of the type. With none
// active it falls back to the newest rule of the type, since usage rows only
// need a link target. A rule is created only when the type has none at all.
func findOrCreateRule(tx *gorm.DB, t models.DiscountType) (*models.DiscountRule, error) {
	var rule models.DiscountRule
	err := tx.Where("type = ? AND is_active = ?", t, true).Order("created_at").First(&rule).Error
	if err == nil {
		return &rule, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = tx.Where("type = ?", t).Order("created_at DESC").First(&rule).Error
	if err == nil {
		return &rule, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	name, err := freeRuleName(tx, t)
	if err != nil {
		return nil, err
	}

	value, isPercentage := ruleDefaults(t)
	rule = models.DiscountRule{
		Name:               name,
		Type:               t,
		Value:              value,
		IsPercentage:       isPercentage,
		ApplyToAllServices: true,
		IsActive:           true,
	}
	if err := tx.Create(&rule).Error; err != nil {
		return nil, fmt.Errorf("create %s rule: %w", t, err)
	}
	if !isPercentage {
		if err := tx.Model(&rule).Update("is_percentage", false).Error; err != nil {
			return nil, err
		}
	}
	return &rule, nil
}

// freeRuleName picks the default name for t, or a suffixed variant when
// other rules already hold it.
func freeRuleName(tx *gorm.DB, t models.DiscountType) (string, error) {
	base := defaultRuleNames[t]
	candidates := []string{base, fmt.Sprintf("%s (%s)", base, t)}
	for _, name := range candidates {
		var taken int64
		if err := tx.Model(&models.DiscountRule{}).Where("name = ?", name).Count(&taken).Error; err != nil {
			return "", err
		}
		if taken == 0 {
			return name, nil
		}
	}
	return fmt.Sprintf("%s (%s %s)", base, t, uuid.NewString()[:8]), nil
}
