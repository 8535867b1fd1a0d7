package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName string    `gorm:"not null;index" json:"fullName"`
	Phone    string    `gorm:"index" json:"phone"`
	Email    string    `json:"email"`

	BirthDay   *int `json:"birthDay"`
	BirthMonth *int `gorm:"index" json:"birthMonth"`
	BirthYear  *int `json:"birthYear"`

	Gender  string `gorm:"type:varchar(20)" json:"gender"`
	Address string `json:"address"`
	Notes   string `gorm:"type:text" json:"notes"`

	// Dependents share the parent's contact details.
	IsDependent bool       `gorm:"default:false" json:"isDependent"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parentId"`
	Parent      *Customer  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Dependents  []Customer `gorm:"foreignKey:ParentID" json:"dependents,omitempty"`

	SaleCount     int        `gorm:"default:0" json:"saleCount"`
	VisitCount    int        `gorm:"default:0" json:"visitCount"`
	TotalSpent    float64    `gorm:"type:decimal(12,2);default:0" json:"totalSpent"`
	LoyaltyPoints int        `gorm:"default:0" json:"loyaltyPoints"`
	LastVisit     *time.Time `json:"lastVisit"`
	IsActive      bool       `gorm:"default:true;index" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
