// controllers/service.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateServiceInput defines the expected JSON structure for creating a service.
// Every price tier is optional.
type CreateServiceInput struct {
	Name               string   `json:"name" binding:"required"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Duration           int      `json:"duration" binding:"min=0"` // in minutes
	SinglePrice        *float64 `json:"singlePrice" binding:"omitempty,min=0"`
	CombinedPrice      *float64 `json:"combinedPrice" binding:"omitempty,min=0"`
	ChildPrice         *float64 `json:"childPrice" binding:"omitempty,min=0"`
	ChildCombinedPrice *float64 `json:"childCombinedPrice" binding:"omitempty,min=0"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service
type UpdateServiceInput struct {
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	Category           *string  `json:"category"`
	Duration           *int     `json:"duration" binding:"omitempty,min=0"`
	SinglePrice        *float64 `json:"singlePrice" binding:"omitempty,min=0"`
	CombinedPrice      *float64 `json:"combinedPrice" binding:"omitempty,min=0"`
	ChildPrice         *float64 `json:"childPrice" binding:"omitempty,min=0"`
	ChildCombinedPrice *float64 `json:"childCombinedPrice" binding:"omitempty,min=0"`
	IsActive           *bool    `json:"isActive"`
}

type ServiceController struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewServiceController(db *gorm.DB, log *logrus.Logger) *ServiceController {
	return &ServiceController{db: db, log: log}
}

func (sc *ServiceController) Create(c *gin.Context) {
	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service := models.Service{
		Name:               strings.TrimSpace(input.Name),
		Description:        input.Description,
		Category:           strings.TrimSpace(input.Category),
		Duration:           input.Duration,
		SinglePrice:        input.SinglePrice,
		CombinedPrice:      input.CombinedPrice,
		ChildPrice:         input.ChildPrice,
		ChildCombinedPrice: input.ChildCombinedPrice,
		IsActive:           true,
	}
	if service.Category == "" {
		service.Category = "General"
	}

	if err := sc.db.Create(&service).Error; err != nil {
		_ = c.Error(err)
		return
	}

	sc.log.WithField("service_id", service.ID).Info("Service created")
	utils.RespondWithData(c, http.StatusCreated, service)
}

func (sc *ServiceController) List(c *gin.Context) {
	p := utils.ParsePagination(c)

	query := sc.db.Model(&models.Service{})
	if p.Search != "" {
		like := "%" + p.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if v := queryBoolPtr(c, "isActive"); v != nil {
		query = query.Where("is_active = ?", *v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		_ = c.Error(err)
		return
	}

	var list []models.Service
	if err := query.Scopes(p.Scope).Order("category, name").Find(&list).Error; err != nil {
		_ = c.Error(err)
		return
	}

	utils.RespondWithList(c, list, p, total)
}

func (sc *ServiceController) Categories(c *gin.Context) {
	var categories []string
	if err := sc.db.Model(&models.Service{}).
		Where("is_active = ?", true).
		Distinct().Order("category").
		Pluck("category", &categories).Error; err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, categories)
}

func (sc *ServiceController) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "service")
	if !ok {
		return
	}

	var service models.Service
	if err := sc.db.First(&service, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		} else {
			_ = c.Error(err)
		}
		return
	}

	utils.RespondWithData(c, http.StatusOK, service)
}

func (sc *ServiceController) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "service")
	if !ok {
		return
	}

	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var service models.Service
	if err := sc.db.First(&service, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		} else {
			_ = c.Error(err)
		}
		return
	}

	if input.Name != nil {
		service.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		service.Description = *input.Description
	}
	if input.Category != nil {
		service.Category = strings.TrimSpace(*input.Category)
	}
	if input.Duration != nil {
		service.Duration = *input.Duration
	}
	if input.SinglePrice != nil {
		service.SinglePrice = input.SinglePrice
	}
	if input.CombinedPrice != nil {
		service.CombinedPrice = input.CombinedPrice
	}
	if input.ChildPrice != nil {
		service.ChildPrice = input.ChildPrice
	}
	if input.ChildCombinedPrice != nil {
		service.ChildCombinedPrice = input.ChildCombinedPrice
	}
	if input.IsActive != nil {
		service.IsActive = *input.IsActive
	}

	if err := sc.db.Save(&service).Error; err != nil {
		_ = c.Error(err)
		return
	}

	utils.RespondWithData(c, http.StatusOK, service)
}

// Delete deactivates the service; past visit lines keep their copy of
// its name and price.
func (sc *ServiceController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "service")
	if !ok {
		return
	}

	res := sc.db.Model(&models.Service{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		_ = c.Error(res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		return
	}

	sc.log.WithField("service_id", id).Info("Service deactivated")
	utils.RespondWithMessage(c, http.StatusOK, "Service deleted successfully", nil)
}
