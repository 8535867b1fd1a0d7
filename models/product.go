package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	SKU         string    `gorm:"uniqueIndex;not null" json:"sku"`
	Description string    `json:"description"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int       `gorm:"default:0" json:"stock"`
	IsActive    bool      `gorm:"default:true;index" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// ProductSale is a retail sale; it counts towards the customer's saleCount.
type ProductSale struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"productId"`
	Product    *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customerId"`
	SoldByID   uuid.UUID  `gorm:"type:uuid;index" json:"soldById"`
	Quantity   int        `gorm:"not null" json:"quantity"`
	UnitPrice  float64    `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice float64    `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (s *ProductSale) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
