package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"salon-backoffice/cache"
	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DashboardOverview struct {
	TotalCustomers     int64             `json:"totalCustomers"`
	TotalVisits        int64             `json:"totalVisits"`
	VisitsToday        int64             `json:"visitsToday"`
	MonthlyRevenue     float64           `json:"monthlyRevenue"`
	MonthlyProductSale float64           `json:"monthlyProductSales"`
	MonthlyDiscounts   []DiscountSummary `json:"monthlyDiscounts"`
	BirthdaysThisMonth []BirthdayEntry   `json:"birthdaysThisMonth"`
	RecentVisits       []RecentVisit     `json:"recentVisits"`
}

type DiscountSummary struct {
	Type   models.DiscountType `json:"type"`
	Count  int64               `json:"count"`
	Amount float64             `json:"amount"`
}

type BirthdayEntry struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Phone    string    `json:"phone"`
	BirthDay *int      `json:"birthDay"`
}

type RecentVisit struct {
	VisitID     uuid.UUID `json:"visitId"`
	Customer    string    `json:"customer"`
	Services    string    `json:"services"`
	FinalAmount float64   `json:"finalAmount"`
	VisitDate   string    `json:"visitDate"` // e.g. "Today", "Yesterday"
}

const overviewCacheKey = "overview"

type DashboardController struct {
	db    *gorm.DB
	log   *logrus.Logger
	cache *cache.DashboardCache
	now   func() time.Time
}

func NewDashboardController(db *gorm.DB, log *logrus.Logger, c *cache.DashboardCache) *DashboardController {
	return &DashboardController{db: db, log: log, cache: c, now: time.Now}
}

// relativeDay renders how long ago t was, in whole days.
func relativeDay(t, now time.Time) string {
	switch days := utils.DaysBetween(t, now); days {
	case 0:
		return "Today"
	case 1:
		return "Yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

func (dc *DashboardController) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	var overview DashboardOverview
	if dc.cache.Get(ctx, overviewCacheKey, &overview) {
		utils.RespondWithData(c, http.StatusOK, overview)
		return
	}

	overview, err := dc.buildOverview(dc.db.WithContext(ctx))
	if err != nil {
		dc.log.WithError(err).Error("Failed to build dashboard overview")
		_ = c.Error(err)
		return
	}

	dc.cache.Set(ctx, overviewCacheKey, overview)
	utils.RespondWithData(c, http.StatusOK, overview)
}

func (dc *DashboardController) buildOverview(db *gorm.DB) (DashboardOverview, error) {
	now := dc.now()
	today := utils.BeginningOfDay(now)
	firstOfMonth := utils.BeginningOfMonth(now)
	out := DashboardOverview{
		MonthlyDiscounts:   []DiscountSummary{},
		BirthdaysThisMonth: []BirthdayEntry{},
		RecentVisits:       []RecentVisit{},
	}

	if err := db.Model(&models.Customer{}).Where("is_active = ?", true).Count(&out.TotalCustomers).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.Visit{}).Count(&out.TotalVisits).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.Visit{}).Where("visit_date >= ?", today).Count(&out.VisitsToday).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.Visit{}).
		Where("visit_date >= ?", firstOfMonth).
		Select("COALESCE(SUM(final_amount), 0)").
		Scan(&out.MonthlyRevenue).Error; err != nil {
		return out, err
	}
	if err := db.Model(&models.ProductSale{}).
		Where("created_at >= ?", firstOfMonth).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&out.MonthlyProductSale).Error; err != nil {
		return out, err
	}

	if err := db.Table("customer_discounts").
		Select("discount_rules.type AS type, COUNT(*) AS count, COALESCE(SUM(customer_discounts.amount), 0) AS amount").
		Joins("JOIN discount_rules ON discount_rules.id = customer_discounts.discount_rule_id").
		Where("customer_discounts.used_at >= ?", firstOfMonth).
		Group("discount_rules.type").
		Order("discount_rules.type").
		Scan(&out.MonthlyDiscounts).Error; err != nil {
		return out, err
	}

	if err := db.Model(&models.Customer{}).
		Select("id, full_name, phone, birth_day").
		Where("is_active = ? AND birth_month = ?", true, int(now.Month())).
		Order("birth_day NULLS LAST, full_name").
		Limit(10).
		Scan(&out.BirthdaysThisMonth).Error; err != nil {
		return out, err
	}

	var recent []models.Visit
	if err := db.Preload("Customer").Preload("Items").
		Order("visit_date DESC").Limit(5).
		Find(&recent).Error; err != nil {
		return out, err
	}
	for _, v := range recent {
		names := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			names = append(names, item.ServiceName)
		}
		customer := ""
		if v.Customer != nil {
			customer = v.Customer.FullName
		}
		out.RecentVisits = append(out.RecentVisits, RecentVisit{
			VisitID:     v.ID,
			Customer:    customer,
			Services:    strings.Join(names, ", "),
			FinalAmount: v.FinalAmount,
			VisitDate:   relativeDay(v.VisitDate, now),
		})
	}

	return out, nil
}
