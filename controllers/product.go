package controllers

import (
	"context"
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

type ProductSeller interface {
	Sell(ctx context.Context, productID uuid.UUID, input services.SellInput, soldBy uuid.UUID) (*models.ProductSale, error)
	ListSales(ctx context.Context, productID uuid.UUID, p utils.Pagination) ([]models.ProductSale, int64, error)
}

type CreateProductInput struct {
	Name        string  `json:"name" binding:"required"`
	SKU         string  `json:"sku" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"min=0"`
	Stock       int     `json:"stock" binding:"min=0"`
}

type UpdateProductInput struct {
	Name        *string  `json:"name"`
	SKU         *string  `json:"sku"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0"`
	IsActive    *bool    `json:"isActive"`
}

type ProductController struct {
	db     *gorm.DB
	log    *logrus.Logger
	seller ProductSeller
}

func NewProductController(db *gorm.DB, log *logrus.Logger, seller ProductSeller) *ProductController {
	return &ProductController{db: db, log: log, seller: seller}
}

func (pc *ProductController) Create(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	product := models.Product{
		Name:        strings.TrimSpace(input.Name),
		SKU:         strings.ToUpper(strings.TrimSpace(input.SKU)),
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		IsActive:    true,
	}
	if err := pc.db.Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondWithError(c, http.StatusBadRequest, "A product with this SKU already exists")
			return
		}
		_ = c.Error(err)
		return
	}

	pc.log.WithFields(logrus.Fields{"product_id": product.ID, "sku": product.SKU}).Info("Product created")
	utils.RespondWithData(c, http.StatusCreated, product)
}

func (pc *ProductController) List(c *gin.Context) {
	p := utils.ParsePagination(c)

	query := pc.db.Model(&models.Product{})
	if p.Search != "" {
		like := "%" + p.Search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ?", like, like)
	}
	if v := queryBoolPtr(c, "isActive"); v != nil {
		query = query.Where("is_active = ?", *v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		_ = c.Error(err)
		return
	}

	var products []models.Product
	if err := query.Scopes(p.Scope).Order("name").Find(&products).Error; err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondWithList(c, products, p, total)
}

func (pc *ProductController) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var product models.Product
	if err := pc.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			_ = c.Error(err)
		}
		return
	}
	utils.RespondWithData(c, http.StatusOK, product)
}

func (pc *ProductController) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var product models.Product
	if err := pc.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			_ = c.Error(err)
		}
		return
	}

	// Stock is only overwritten when submitted so concurrent sales keep
	// their decrements.
	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.SKU != nil {
		updates["sku"] = strings.ToUpper(strings.TrimSpace(*input.SKU))
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.Stock != nil {
		updates["stock"] = *input.Stock
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := pc.db.Model(&models.Product{}).Where("id = ?", product.ID).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				utils.RespondWithError(c, http.StatusBadRequest, "A product with this SKU already exists")
				return
			}
			_ = c.Error(err)
			return
		}
	}

	var updated models.Product
	if err := pc.db.First(&updated, "id = ?", product.ID).Error; err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, updated)
}

func (pc *ProductController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	res := pc.db.Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		_ = c.Error(res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		return
	}
	utils.RespondWithMessage(c, http.StatusOK, "Product deleted successfully", nil)
}

func (pc *ProductController) Sell(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var input services.SellInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	sale, err := pc.seller.Sell(c.Request.Context(), id, input, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithData(c, http.StatusCreated, sale)
}

func (pc *ProductController) Sales(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}
	p := utils.ParsePagination(c)

	sales, total, err := pc.seller.ListSales(c.Request.Context(), id, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithList(c, sales, p, total)
}
