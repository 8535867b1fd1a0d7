package controllers

import (
	"errors"
	"net/http"
	"strings"

	"salon-backoffice/models"
	"salon-backoffice/services"
	"salon-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateCustomerInput defines the expected JSON structure for creating a customer.
// Dependents take their phone and email from the parent.
type CreateCustomerInput struct {
	FullName    string     `json:"fullName" binding:"required"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email" binding:"omitempty,email"`
	BirthDay    *int       `json:"birthDay"`
	BirthMonth  *int       `json:"birthMonth"`
	BirthYear   *int       `json:"birthYear"`
	Gender      string     `json:"gender"`
	Address     string     `json:"address"`
	Notes       string     `json:"notes"`
	IsDependent bool       `json:"isDependent"`
	ParentID    *uuid.UUID `json:"parentId"`
}

// UpdateCustomerInput defines the expected JSON structure for updating a customer
type UpdateCustomerInput struct {
	FullName   *string `json:"fullName"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email" binding:"omitempty,email"`
	BirthDay   *int    `json:"birthDay"`
	BirthMonth *int    `json:"birthMonth"`
	BirthYear  *int    `json:"birthYear"`
	Gender     *string `json:"gender"`
	Address    *string `json:"address"`
	Notes      *string `json:"notes"`
	IsActive   *bool   `json:"isActive"`
}

type CustomerController struct {
	db     *gorm.DB
	log    *logrus.Logger
	visits VisitManager
	cache  services.DashboardInvalidator
}

func NewCustomerController(db *gorm.DB, log *logrus.Logger, visits VisitManager, cache services.DashboardInvalidator) *CustomerController {
	return &CustomerController{db: db, log: log, visits: visits, cache: cache}
}

func (cc *CustomerController) invalidate(c *gin.Context) {
	if cc.cache != nil {
		cc.cache.Invalidate(c.Request.Context())
	}
}

// phoneTaken reports whether another active, non-dependent customer uses phone.
func phoneTaken(db *gorm.DB, phone string, exclude *uuid.UUID) (bool, error) {
	query := db.Model(&models.Customer{}).
		Where("phone = ? AND is_active = ? AND is_dependent = ?", phone, true, false)
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (cc *CustomerController) Create(c *gin.Context) {
	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !utils.ValidBirthDate(input.BirthDay, input.BirthMonth) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid birth day or month")
		return
	}

	customer := models.Customer{
		FullName:    strings.TrimSpace(input.FullName),
		Phone:       strings.TrimSpace(input.Phone),
		Email:       input.Email,
		BirthDay:    input.BirthDay,
		BirthMonth:  input.BirthMonth,
		BirthYear:   input.BirthYear,
		Gender:      input.Gender,
		Address:     input.Address,
		Notes:       input.Notes,
		IsDependent: input.IsDependent,
		IsActive:    true,
	}

	if input.IsDependent {
		if input.ParentID == nil {
			utils.RespondWithError(c, http.StatusBadRequest, "parentId is required for a dependent")
			return
		}
		var parent models.Customer
		if err := cc.db.First(&parent, "id = ?", *input.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Parent customer not found")
			} else {
				_ = c.Error(err)
			}
			return
		}
		if !parent.IsActive || parent.IsDependent {
			utils.RespondWithError(c, http.StatusBadRequest, "Parent must be an active, non-dependent customer")
			return
		}
		customer.ParentID = &parent.ID
		customer.Phone = parent.Phone
		customer.Email = parent.Email
	} else {
		if customer.Phone == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Phone is required")
			return
		}
		if !utils.ValidatePhone(customer.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		taken, err := phoneTaken(cc.db, customer.Phone, nil)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if taken {
			utils.RespondWithError(c, http.StatusBadRequest, "Customer with this phone number already exists")
			return
		}
	}

	if err := cc.db.Create(&customer).Error; err != nil {
		_ = c.Error(err)
		return
	}
	cc.invalidate(c)

	cc.log.WithFields(logrus.Fields{
		"customer_id":  customer.ID,
		"is_dependent": customer.IsDependent,
	}).Info("Customer created")
	utils.RespondWithData(c, http.StatusCreated, customer)
}

func (cc *CustomerController) List(c *gin.Context) {
	p := utils.ParsePagination(c)
	birthMonth, ok := queryInt(c, "birthMonth")
	if !ok {
		return
	}

	query := cc.db.Model(&models.Customer{})
	if p.Search != "" {
		like := "%" + p.Search + "%"
		query = query.Where("full_name ILIKE ? OR phone ILIKE ? OR email ILIKE ?", like, like, like)
	}
	if v := queryBoolPtr(c, "isActive"); v != nil {
		query = query.Where("is_active = ?", *v)
	}
	if v := queryBoolPtr(c, "isDependent"); v != nil {
		query = query.Where("is_dependent = ?", *v)
	}
	if birthMonth != nil {
		query = query.Where("birth_month = ?", *birthMonth)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		_ = c.Error(err)
		return
	}

	var customers []models.Customer
	if err := query.Scopes(p.Scope).Order("created_at DESC").Find(&customers).Error; err != nil {
		_ = c.Error(err)
		return
	}

	utils.RespondWithList(c, customers, p, total)
}

func (cc *CustomerController) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}

	var customer models.Customer
	if err := cc.db.Preload("Parent").Preload("Dependents").First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			_ = c.Error(err)
		}
		return
	}

	utils.RespondWithData(c, http.StatusOK, customer)
}

// Update applies the given fields. A new phone or email on a parent is
// copied to its dependents in the same transaction.
func (cc *CustomerController) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}

	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !utils.ValidBirthDate(input.BirthDay, input.BirthMonth) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid birth day or month")
		return
	}

	var customer models.Customer
	if err := cc.db.First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			_ = c.Error(err)
		}
		return
	}

	if customer.IsDependent && (input.Phone != nil || input.Email != nil) {
		utils.RespondWithError(c, http.StatusBadRequest, "A dependent's phone and email come from the parent")
		return
	}

	// Only the submitted columns are written; the aggregates belong to the
	// visit and sale transactions.
	updates := map[string]interface{}{}
	phone, email := customer.Phone, customer.Email
	contactChanged := false
	if input.Phone != nil {
		phone = strings.TrimSpace(*input.Phone)
		if !utils.ValidatePhone(phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		if phone != customer.Phone {
			taken, err := phoneTaken(cc.db, phone, &customer.ID)
			if err != nil {
				_ = c.Error(err)
				return
			}
			if taken {
				utils.RespondWithError(c, http.StatusBadRequest, "Another customer with this phone number already exists")
				return
			}
			updates["phone"] = phone
			contactChanged = true
		}
	}
	if input.Email != nil && *input.Email != customer.Email {
		email = *input.Email
		updates["email"] = email
		contactChanged = true
	}
	if input.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*input.FullName)
	}
	if input.BirthDay != nil {
		updates["birth_day"] = *input.BirthDay
	}
	if input.BirthMonth != nil {
		updates["birth_month"] = *input.BirthMonth
	}
	if input.BirthYear != nil {
		updates["birth_year"] = *input.BirthYear
	}
	if input.Gender != nil {
		updates["gender"] = *input.Gender
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	deactivated := false
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
		deactivated = !*input.IsActive
	}

	err := cc.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Customer{}).Where("id = ?", customer.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		dependents := map[string]interface{}{}
		if contactChanged {
			dependents["phone"] = phone
			dependents["email"] = email
		}
		if deactivated {
			dependents["is_active"] = false
		}
		if len(dependents) == 0 {
			return nil
		}
		return tx.Model(&models.Customer{}).Where("parent_id = ?", customer.ID).Updates(dependents).Error
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	cc.invalidate(c)

	var updated models.Customer
	if err := cc.db.First(&updated, "id = ?", customer.ID).Error; err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, updated)
}

// Delete deactivates the customer and their dependents. Visits keep
// referencing them.
func (cc *CustomerController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}

	var affected int64
	err := cc.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Customer{}).Where("id = ?", id).Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return tx.Model(&models.Customer{}).Where("parent_id = ?", id).Update("is_active", false).Error
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if affected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	cc.invalidate(c)
	cc.log.WithField("customer_id", id).Info("Customer deactivated")
	utils.RespondWithMessage(c, http.StatusOK, "Customer deleted successfully", nil)
}

func (cc *CustomerController) Visits(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}
	p := utils.ParsePagination(c)

	visits, total, err := cc.visits.List(c.Request.Context(), services.VisitFilter{CustomerID: &id}, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithList(c, visits, p, total)
}

func (cc *CustomerController) Dependents(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}

	var dependents []models.Customer
	if err := cc.db.Where("parent_id = ?", id).Order("full_name").Find(&dependents).Error; err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, dependents)
}
