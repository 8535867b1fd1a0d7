package services

import (
	"context"
	"errors"

	"salon-backoffice/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EnsureAdmin creates the first ADMIN account when no user exists yet.
func EnsureAdmin(ctx context.Context, db *gorm.DB, email, password, name string, log *logrus.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if email == "" || password == "" {
		log.Warn("No users exist and ADMIN_EMAIL/ADMIN_PASSWORD are not set; nobody can log in")
		return nil
	}
	if len(password) < 8 {
		return errors.New("ADMIN_PASSWORD must be at least 8 characters")
	}

	admin := models.User{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}

	log.WithField("email", email).Info("Bootstrap admin created")
	return nil
}
