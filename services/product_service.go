package services

import (
	"context"
	"errors"
	"fmt"

	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SellInput struct {
	CustomerID *uuid.UUID `json:"customerId"`
	Quantity   int        `json:"quantity" binding:"required,min=1"`
}

// ProductService records retail sales against stock and customer totals.
type ProductService struct {
	db    *gorm.DB
	log   *logrus.Logger
	cache DashboardInvalidator
}

func NewProductService(db *gorm.DB, log *logrus.Logger, cache DashboardInvalidator) *ProductService {
	return &ProductService{db: db, log: log, cache: cache}
}

func (s *ProductService) Sell(ctx context.Context, productID uuid.UUID, input SellInput, soldBy uuid.UUID) (*models.ProductSale, error) {
	var sale models.ProductSale

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if !product.IsActive {
			return ErrProductInactive
		}
		if product.Stock < input.Quantity {
			return fmt.Errorf("%w: %d left", ErrInsufficientStock, product.Stock)
		}

		sale = models.ProductSale{
			ProductID:  product.ID,
			CustomerID: input.CustomerID,
			SoldByID:   soldBy,
			Quantity:   input.Quantity,
			UnitPrice:  product.Price,
			TotalPrice: product.Price * float64(input.Quantity),
		}

		if input.CustomerID != nil {
			customer, err := lockCustomer(tx, *input.CustomerID)
			if err != nil {
				return err
			}
			if !customer.IsActive {
				return ErrCustomerInactive
			}
			if err := tx.Model(&models.Customer{}).Where("id = ?", customer.ID).
				Updates(map[string]interface{}{
					"sale_count":  gorm.Expr("sale_count + ?", 1),
					"total_spent": gorm.Expr("total_spent + ?", sale.TotalPrice),
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&sale).Error; err != nil {
			return fmt.Errorf("create product sale: %w", err)
		}
		return tx.Model(&models.Product{}).Where("id = ?", product.ID).
			Update("stock", gorm.Expr("stock - ?", input.Quantity)).Error
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.log.WithFields(logrus.Fields{
		"sale_id":    sale.ID,
		"product_id": productID,
		"quantity":   sale.Quantity,
		"total":      sale.TotalPrice,
	}).Info("Product sold")

	return &sale, nil
}

func (s *ProductService) ListSales(ctx context.Context, productID uuid.UUID, p utils.Pagination) ([]models.ProductSale, int64, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if count == 0 {
		return nil, 0, ErrProductNotFound
	}

	query := db.Model(&models.ProductSale{}).Where("product_id = ?", productID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []models.ProductSale
	if err := query.Scopes(p.Scope).Order("created_at DESC").Find(&sales).Error; err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}
