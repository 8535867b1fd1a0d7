package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CreateStaffInput struct {
	FullName string     `json:"fullName" binding:"required"`
	Phone    string     `json:"phone" binding:"omitempty,phone"`
	Email    string     `json:"email" binding:"omitempty,email"`
	Position string     `json:"position"`
	HireDate *time.Time `json:"hireDate"`
}

type UpdateStaffInput struct {
	FullName *string    `json:"fullName"`
	Phone    *string    `json:"phone"`
	Email    *string    `json:"email" binding:"omitempty,email"`
	Position *string    `json:"position"`
	HireDate *time.Time `json:"hireDate"`
	IsActive *bool      `json:"isActive"`
}

type StaffController struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewStaffController(db *gorm.DB, log *logrus.Logger) *StaffController {
	return &StaffController{db: db, log: log}
}

func (sc *StaffController) Create(c *gin.Context) {
	var input CreateStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	member := models.Staff{
		FullName: strings.TrimSpace(input.FullName),
		Phone:    utils.NormalizePhone(input.Phone),
		Email:    input.Email,
		Position: input.Position,
		HireDate: input.HireDate,
		IsActive: true,
	}
	if err := sc.db.Create(&member).Error; err != nil {
		_ = c.Error(err)
		return
	}

	sc.log.WithField("staff_id", member.ID).Info("Staff member created")
	utils.RespondWithData(c, http.StatusCreated, member)
}

func (sc *StaffController) List(c *gin.Context) {
	p := utils.ParsePagination(c)

	query := sc.db.Model(&models.Staff{})
	if p.Search != "" {
		like := "%" + p.Search + "%"
		query = query.Where("full_name ILIKE ? OR phone ILIKE ? OR position ILIKE ?", like, like, like)
	}
	if v := queryBoolPtr(c, "isActive"); v != nil {
		query = query.Where("is_active = ?", *v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		_ = c.Error(err)
		return
	}

	var staff []models.Staff
	if err := query.Scopes(p.Scope).Order("full_name").Find(&staff).Error; err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondWithList(c, staff, p, total)
}

func (sc *StaffController) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "staff")
	if !ok {
		return
	}

	var member models.Staff
	if err := sc.db.First(&member, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Staff member not found")
		} else {
			_ = c.Error(err)
		}
		return
	}
	utils.RespondWithData(c, http.StatusOK, member)
}

func (sc *StaffController) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "staff")
	if !ok {
		return
	}

	var input UpdateStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Phone != nil && *input.Phone != "" && !utils.ValidatePhone(*input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	var member models.Staff
	if err := sc.db.First(&member, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Staff member not found")
		} else {
			_ = c.Error(err)
		}
		return
	}

	if input.FullName != nil {
		member.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Phone != nil {
		member.Phone = *input.Phone
	}
	if input.Email != nil {
		member.Email = *input.Email
	}
	if input.Position != nil {
		member.Position = *input.Position
	}
	if input.HireDate != nil {
		member.HireDate = input.HireDate
	}
	if input.IsActive != nil {
		member.IsActive = *input.IsActive
	}

	if err := sc.db.Save(&member).Error; err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, member)
}

// Delete deactivates the staff member so past visits keep the link.
func (sc *StaffController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "staff")
	if !ok {
		return
	}

	res := sc.db.Model(&models.Staff{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		_ = c.Error(res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Staff member not found")
		return
	}

	sc.log.WithField("staff_id", id).Info("Staff member deactivated")
	utils.RespondWithMessage(c, http.StatusOK, "Staff member deleted successfully", nil)
}
