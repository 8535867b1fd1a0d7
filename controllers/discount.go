package controllers

import (
	"context"
	"net/http"

	"salon-backoffice/models"
	"salon-backoffice/services"
	"salon-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DiscountManager interface {
	Create(ctx context.Context, input services.RuleInput) (*models.DiscountRule, error)
	Update(ctx context.Context, id uuid.UUID, input services.RuleUpdateInput) (*models.DiscountRule, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error)
	List(ctx context.Context, f services.RuleFilter, p utils.Pagination) ([]models.DiscountRule, int64, error)
	Eligibility(ctx context.Context, customerID uuid.UUID) (*services.EligibilityReport, error)
	Usage(ctx context.Context, customerID uuid.UUID, p utils.Pagination) ([]models.CustomerDiscount, int64, error)
}

type DiscountController struct {
	discounts DiscountManager
}

func NewDiscountController(discounts DiscountManager) *DiscountController {
	return &DiscountController{discounts: discounts}
}

func (dc *DiscountController) Create(c *gin.Context) {
	var input services.RuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	rule, err := dc.discounts.Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithData(c, http.StatusCreated, rule)
}

func (dc *DiscountController) List(c *gin.Context) {
	p := utils.ParsePagination(c)

	var f services.RuleFilter
	if raw := c.Query("type"); raw != "" {
		t := models.DiscountType(raw)
		if !t.Valid() {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid discount type")
			return
		}
		f.Type = &t
	}
	f.IsActive = queryBoolPtr(c, "isActive")

	rules, total, err := dc.discounts.List(c.Request.Context(), f, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithList(c, rules, p, total)
}

func (dc *DiscountController) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "discount rule")
	if !ok {
		return
	}

	rule, err := dc.discounts.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, rule)
}

func (dc *DiscountController) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "discount rule")
	if !ok {
		return
	}

	var input services.RuleUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	rule, err := dc.discounts.Update(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, rule)
}

func (dc *DiscountController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "discount rule")
	if !ok {
		return
	}

	if err := dc.discounts.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithMessage(c, http.StatusOK, "Discount rule deleted successfully", nil)
}

func (dc *DiscountController) Eligibility(c *gin.Context) {
	id, ok := parseID(c, "customerId", "customer")
	if !ok {
		return
	}

	report, err := dc.discounts.Eligibility(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, report)
}

func (dc *DiscountController) Usage(c *gin.Context) {
	id, ok := parseID(c, "customerId", "customer")
	if !ok {
		return
	}
	p := utils.ParsePagination(c)

	usages, total, err := dc.discounts.Usage(c.Request.Context(), id, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithList(c, usages, p, total)
}
