package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visit is one customer transaction; the API also exposes it as a sale.
type Visit struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID  uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`
	Customer    *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	CreatedByID uuid.UUID `gorm:"type:uuid;index" json:"createdById"`

	// VisitNumber is the customer's visit ordinal when the visit was created.
	VisitNumber int       `gorm:"not null" json:"visitNumber"`
	VisitDate   time.Time `gorm:"index;not null" json:"visitDate"`

	TotalAmount         float64 `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	DiscountAmount      float64 `gorm:"type:decimal(10,2);default:0" json:"discountAmount"`
	FinalAmount         float64 `gorm:"type:decimal(10,2);not null" json:"finalAmount"`
	LoyaltyPointsEarned int     `gorm:"default:0" json:"loyaltyPointsEarned"`

	Notes       string `gorm:"type:text" json:"notes"`
	IsCompleted bool   `gorm:"not null" json:"isCompleted"`

	Items     []VisitItem     `gorm:"foreignKey:VisitID" json:"items"`
	Staff     []VisitStaff    `gorm:"foreignKey:VisitID" json:"staff"`
	Discounts []VisitDiscount `gorm:"foreignKey:VisitID" json:"discounts"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Visit) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return
}

type VisitItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID     uuid.UUID `gorm:"type:uuid;index;not null" json:"visitId"`
	ServiceID   uuid.UUID `gorm:"type:uuid;index;not null" json:"serviceId"`
	ServiceName string    `gorm:"not null" json:"serviceName"`
	Quantity    int       `gorm:"default:1" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice  float64   `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
	IsChild     bool      `gorm:"default:false" json:"isChild"`
	IsCombined  bool      `gorm:"default:false" json:"isCombined"`
}

func (i *VisitItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

type VisitStaff struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_visit_staff;not null" json:"visitId"`
	StaffID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_visit_staff;index;not null" json:"staffId"`
	Staff   *Staff    `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
}

func (VisitStaff) TableName() string {
	return "visit_staff"
}

func (s *VisitStaff) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

type VisitDiscount struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID        uuid.UUID     `gorm:"type:uuid;index;not null" json:"visitId"`
	DiscountRuleID uuid.UUID     `gorm:"type:uuid;index;not null" json:"discountRuleId"`
	DiscountRule   *DiscountRule `gorm:"foreignKey:DiscountRuleID" json:"discountRule,omitempty"`
	Amount         float64       `gorm:"type:decimal(10,2);not null" json:"amount"`
}

func (d *VisitDiscount) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
