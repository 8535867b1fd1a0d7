package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Staff struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FullName string     `gorm:"not null;index" json:"fullName"`
	Phone    string     `json:"phone"`
	Email    string     `json:"email"`
	Position string     `json:"position"`
	HireDate *time.Time `json:"hireDate"`
	IsActive bool       `gorm:"default:true;index" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Staff) TableName() string {
	return "staff"
}

func (s *Staff) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
