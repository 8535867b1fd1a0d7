package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is a priced salon service. Every price tier is optional; a
// missing tier falls back to SinglePrice when a visit is priced.
type Service struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	Description string    `json:"description"`
	Category    string    `gorm:"default:'General';index" json:"category"`
	Duration    int       `json:"duration"` // in minutes

	SinglePrice        *float64 `gorm:"type:decimal(10,2)" json:"singlePrice"`
	CombinedPrice      *float64 `gorm:"type:decimal(10,2)" json:"combinedPrice"`
	ChildPrice         *float64 `gorm:"type:decimal(10,2)" json:"childPrice"`
	ChildCombinedPrice *float64 `gorm:"type:decimal(10,2)" json:"childCombinedPrice"`

	IsActive bool `gorm:"default:true;index" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
