package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RuleInput struct {
	Name               string              `json:"name" binding:"required"`
	Description        string              `json:"description"`
	Type               models.DiscountType `json:"type" binding:"required"`
	Value              float64             `json:"value" binding:"gt=0"`
	IsPercentage       *bool               `json:"isPercentage"`
	ApplyToAllServices *bool               `json:"applyToAllServices"`
	ServiceID          *uuid.UUID          `json:"serviceId"`
	ValidFrom          *time.Time          `json:"validFrom"`
	ValidUntil         *time.Time          `json:"validUntil"`
	IsActive           *bool               `json:"isActive"`
}

type RuleUpdateInput struct {
	Name               *string              `json:"name"`
	Description        *string              `json:"description"`
	Type               *models.DiscountType `json:"type"`
	Value              *float64             `json:"value" binding:"omitempty,gt=0"`
	IsPercentage       *bool                `json:"isPercentage"`
	ApplyToAllServices *bool                `json:"applyToAllServices"`
	ServiceID          *uuid.UUID           `json:"serviceId"`
	ValidFrom          *time.Time           `json:"validFrom"`
	ValidUntil         *time.Time           `json:"validUntil"`
	IsActive           *bool                `json:"isActive"`
}

type RuleFilter struct {
	Type     *models.DiscountType
	IsActive *bool
}

// DiscountService manages discount rules and reports on their use.
type DiscountService struct {
	db  *gorm.DB
	log *logrus.Logger
	now func() time.Time
}

func NewDiscountService(db *gorm.DB, log *logrus.Logger) *DiscountService {
	return &DiscountService{db: db, log: log, now: time.Now}
}

func validateRule(rule *models.DiscountRule) error {
	if !rule.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRule, rule.Type)
	}
	if rule.Value <= 0 {
		return fmt.Errorf("%w: value must be positive", ErrInvalidRule)
	}
	if rule.IsPercentage && rule.Value > 100 {
		return fmt.Errorf("%w: percentage cannot exceed 100", ErrInvalidRule)
	}
	if rule.ValidFrom != nil && rule.ValidUntil != nil && !rule.ValidUntil.After(*rule.ValidFrom) {
		return fmt.Errorf("%w: validUntil must be after validFrom", ErrInvalidRule)
	}
	if !rule.ApplyToAllServices && rule.ServiceID == nil {
		return fmt.Errorf("%w: serviceId is required when the rule is scoped to a service", ErrInvalidRule)
	}
	return nil
}

func (s *DiscountService) Create(ctx context.Context, input RuleInput) (*models.DiscountRule, error) {
	rule := models.DiscountRule{
		Name:               input.Name,
		Description:        input.Description,
		Type:               input.Type,
		Value:              input.Value,
		IsPercentage:       boolOr(input.IsPercentage, true),
		ApplyToAllServices: boolOr(input.ApplyToAllServices, true),
		ServiceID:          input.ServiceID,
		ValidFrom:          input.ValidFrom,
		ValidUntil:         input.ValidUntil,
		IsActive:           boolOr(input.IsActive, true),
	}
	if rule.ApplyToAllServices {
		rule.ServiceID = nil
	}
	if err := validateRule(&rule); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := s.checkService(db, rule.ServiceID); err != nil {
		return nil, err
	}
	if err := db.Create(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrRuleNameTaken
		}
		return nil, err
	}
	// bool columns with defaults skip zero values on insert
	if !rule.IsActive || !rule.IsPercentage || !rule.ApplyToAllServices {
		if err := db.Model(&rule).Updates(map[string]interface{}{
			"is_active":             rule.IsActive,
			"is_percentage":         rule.IsPercentage,
			"apply_to_all_services": rule.ApplyToAllServices,
		}).Error; err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{"rule_id": rule.ID, "type": rule.Type}).Info("Discount rule created")
	return s.Get(ctx, rule.ID)
}

func (s *DiscountService) Update(ctx context.Context, id uuid.UUID, input RuleUpdateInput) (*models.DiscountRule, error) {
	rule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		rule.Name = *input.Name
	}
	if input.Description != nil {
		rule.Description = *input.Description
	}
	if input.Type != nil {
		rule.Type = *input.Type
	}
	if input.Value != nil {
		rule.Value = *input.Value
	}
	if input.IsPercentage != nil {
		rule.IsPercentage = *input.IsPercentage
	}
	if input.ApplyToAllServices != nil {
		rule.ApplyToAllServices = *input.ApplyToAllServices
	}
	if input.ServiceID != nil {
		rule.ServiceID = input.ServiceID
	}
	if input.ValidFrom != nil {
		rule.ValidFrom = input.ValidFrom
	}
	if input.ValidUntil != nil {
		rule.ValidUntil = input.ValidUntil
	}
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}
	if rule.ApplyToAllServices {
		rule.ServiceID = nil
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := s.checkService(db, rule.ServiceID); err != nil {
		return nil, err
	}

	rule.Service = nil
	if err := db.Save(rule).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrRuleNameTaken
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete renames and deactivates the rule so its name is free again while
// visits and usages keep pointing at it.
func (s *DiscountService) Delete(ctx context.Context, id uuid.UUID) error {
	rule, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	deletedName := DeletedRuleName(rule.Name, s.now())
	if err := s.db.WithContext(ctx).Model(&models.DiscountRule{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":      deletedName,
			"is_active": false,
		}).Error; err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"rule_id": id, "name": deletedName}).Info("Discount rule deleted")
	return nil
}

func DeletedRuleName(name string, at time.Time) string {
	return fmt.Sprintf("%s_deleted_%d", name, at.Unix())
}

func (s *DiscountService) Get(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error) {
	var rule models.DiscountRule
	if err := s.db.WithContext(ctx).Preload("Service").First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (s *DiscountService) List(ctx context.Context, f RuleFilter, p utils.Pagination) ([]models.DiscountRule, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.DiscountRule{})
	if f.Type != nil {
		query = query.Where("type = ?", *f.Type)
	}
	if f.IsActive != nil {
		query = query.Where("is_active = ?", *f.IsActive)
	}
	if p.Search != "" {
		query = query.Where("name ILIKE ? OR description ILIKE ?", "%"+p.Search+"%", "%"+p.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rules []models.DiscountRule
	if err := query.Scopes(p.Scope).Preload("Service").Order("created_at DESC").Find(&rules).Error; err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

// Usage lists a customer's discount consumptions, newest first.
func (s *DiscountService) Usage(ctx context.Context, customerID uuid.UUID, p utils.Pagination) ([]models.CustomerDiscount, int64, error) {
	db := s.db.WithContext(ctx)
	if err := customerExists(db, customerID); err != nil {
		return nil, 0, err
	}

	query := db.Model(&models.CustomerDiscount{}).Where("customer_id = ?", customerID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var usages []models.CustomerDiscount
	if err := query.Scopes(p.Scope).Preload("DiscountRule").Order("used_at DESC").Find(&usages).Error; err != nil {
		return nil, 0, err
	}
	return usages, total, nil
}

// ExpireRules deactivates active rules whose validity window has ended.
func (s *DiscountService) ExpireRules(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.DiscountRule{}).
		Where("is_active = ? AND valid_until IS NOT NULL AND valid_until < ?", true, s.now()).
		Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *DiscountService) checkService(db *gorm.DB, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.Model(&models.Service{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func customerExists(db *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := db.Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
