package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountSixthVisit    DiscountType = "SIXTH_VISIT"
	DiscountBirthdayMonth DiscountType = "BIRTHDAY_MONTH"
	DiscountServiceCombo  DiscountType = "SERVICE_COMBO"
	DiscountPromotional   DiscountType = "PROMOTIONAL"
	DiscountSeasonal      DiscountType = "SEASONAL"
	DiscountLoyaltyPoints DiscountType = "LOYALTY_POINTS"
)

func (t DiscountType) Valid() bool {
	switch t {
	case DiscountSixthVisit, DiscountBirthdayMonth, DiscountServiceCombo,
		DiscountPromotional, DiscountSeasonal, DiscountLoyaltyPoints:
		return true
	}
	return false
}

// DiscountRule is a named promotional policy. Rules are never hard
// deleted; a deleted rule is renamed and deactivated so its name can be
// reused while historical usages keep their reference.
type DiscountRule struct {
	ID                 uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name               string       `gorm:"uniqueIndex;not null" json:"name"`
	Description        string       `json:"description"`
	Type               DiscountType `gorm:"type:varchar(30);index;not null" json:"type"`
	Value              float64      `gorm:"type:decimal(10,2);not null" json:"value"`
	IsPercentage       bool         `gorm:"default:true" json:"isPercentage"`
	ApplyToAllServices bool         `gorm:"default:true" json:"applyToAllServices"`
	ServiceID          *uuid.UUID   `gorm:"type:uuid;index" json:"serviceId"`
	Service            *Service     `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	ValidFrom          *time.Time   `json:"validFrom"`
	ValidUntil         *time.Time   `json:"validUntil"`
	IsActive           bool         `gorm:"default:true;index" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *DiscountRule) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// CustomerDiscount records one consumption of a rule by a customer.
type CustomerDiscount struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID     uuid.UUID     `gorm:"type:uuid;index;not null" json:"customerId"`
	DiscountRuleID uuid.UUID     `gorm:"type:uuid;index;not null" json:"discountRuleId"`
	DiscountRule   *DiscountRule `gorm:"foreignKey:DiscountRuleID" json:"discountRule,omitempty"`
	VisitID        *uuid.UUID    `gorm:"type:uuid;index" json:"visitId"`
	Amount         float64       `gorm:"type:decimal(10,2);not null" json:"amount"`
	UsedAt         time.Time     `gorm:"not null" json:"usedAt"`
}

func (d *CustomerDiscount) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
