// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"salon-backoffice/cache"
	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReportController handles the revenue analytics behind the dashboard.
type ReportController struct {
	db    *gorm.DB
	log   *logrus.Logger
	cache *cache.DashboardCache
	now   func() time.Time
}

func NewReportController(db *gorm.DB, log *logrus.Logger, c *cache.DashboardCache) *ReportController {
	return &ReportController{db: db, log: log, cache: c, now: time.Now}
}

// AnalyticsSummary represents the Analytics data
type AnalyticsSummary struct {
	CurrentMonthRevenue   float64           `json:"currentMonthRevenue"`
	MonthGrowth           float64           `json:"monthGrowth"`
	CurrentQuarterRevenue float64           `json:"currentQuarterRevenue"`
	QuarterGrowth         float64           `json:"quarterGrowth"`
	CurrentYearRevenue    float64           `json:"currentYearRevenue"`
	YearGrowth            float64           `json:"yearGrowth"`
	MonthDiscounts        float64           `json:"monthDiscounts"`
	TopServices           []ServiceSummary  `json:"topServices"`
	TopCustomers          []CustomerSummary `json:"topCustomers"`
	TopStaff              []StaffSummary    `json:"topStaff"`
	QuickStats            QuickStatistics   `json:"quickStats"`
}

type ServiceSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type CustomerSummary struct {
	Name   string  `json:"name"`
	Visits int     `json:"visits"`
	Spent  float64 `json:"spent"`
}

type StaffSummary struct {
	Name    string  `json:"name"`
	Visits  int     `json:"visits"`
	Revenue float64 `json:"revenue"`
}

type QuickStatistics struct {
	TotalCustomers   int     `json:"totalCustomers"`
	TotalVisits      int     `json:"totalVisits"`
	AvgMonthlyVisits float64 `json:"avgMonthlyVisits"`
	AvgVisitValue    float64 `json:"avgVisitValue"`
	LoyaltyPoints    int64   `json:"loyaltyPointsOutstanding"`
}

// period is a half-open [start, end) range.
type period struct {
	start, end time.Time
}

func (p period) previous(months int) period {
	return period{start: p.start.AddDate(0, -months, 0), end: p.end.AddDate(0, -months, 0)}
}

const analyticsCacheKey = "analytics"

func (rc *ReportController) Analytics(c *gin.Context) {
	ctx := c.Request.Context()

	var summary AnalyticsSummary
	if rc.cache.Get(ctx, analyticsCacheKey, &summary) {
		utils.RespondWithData(c, http.StatusOK, summary)
		return
	}

	summary, err := rc.buildAnalytics(rc.db.WithContext(ctx))
	if err != nil {
		rc.log.WithError(err).Error("Failed to build analytics")
		_ = c.Error(err)
		return
	}

	rc.cache.Set(ctx, analyticsCacheKey, summary)
	utils.RespondWithData(c, http.StatusOK, summary)
}

func (rc *ReportController) buildAnalytics(db *gorm.DB) (AnalyticsSummary, error) {
	now := rc.now()
	month := period{utils.BeginningOfMonth(now), utils.BeginningOfMonth(now).AddDate(0, 1, 0)}
	quarter := period{utils.BeginningOfQuarter(now), utils.BeginningOfQuarter(now).AddDate(0, 3, 0)}
	year := period{utils.BeginningOfYear(now), utils.BeginningOfYear(now).AddDate(1, 0, 0)}

	var s AnalyticsSummary
	var err error

	revenue := func(p period) float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = rc.getRevenue(db, p)
		return v
	}

	s.CurrentMonthRevenue = revenue(month)
	lastMonth := revenue(month.previous(1))
	s.CurrentQuarterRevenue = revenue(quarter)
	lastQuarter := revenue(quarter.previous(3))
	s.CurrentYearRevenue = revenue(year)
	lastYear := revenue(year.previous(12))
	if err != nil {
		return s, err
	}

	s.MonthGrowth = utils.GrowthPercentage(s.CurrentMonthRevenue, lastMonth)
	s.QuarterGrowth = utils.GrowthPercentage(s.CurrentQuarterRevenue, lastQuarter)
	s.YearGrowth = utils.GrowthPercentage(s.CurrentYearRevenue, lastYear)

	if err := db.Model(&models.Visit{}).
		Where("visit_date >= ? AND visit_date < ?", month.start, month.end).
		Select("COALESCE(SUM(discount_amount), 0)").
		Scan(&s.MonthDiscounts).Error; err != nil {
		return s, err
	}

	if s.TopServices, err = rc.getTopServices(db, month, 5); err != nil {
		return s, err
	}
	if s.TopCustomers, err = rc.getTopCustomers(db, month, 5); err != nil {
		return s, err
	}
	if s.TopStaff, err = rc.getTopStaff(db, month, 5); err != nil {
		return s, err
	}
	if s.QuickStats, err = rc.getQuickStatistics(db); err != nil {
		return s, err
	}
	return s, nil
}

func (rc *ReportController) getRevenue(db *gorm.DB, p period) (float64, error) {
	var total float64
	err := db.Model(&models.Visit{}).
		Where("visit_date >= ? AND visit_date < ?", p.start, p.end).
		Select("COALESCE(SUM(final_amount), 0)").
		Scan(&total).Error
	return total, err
}

func (rc *ReportController) getTopServices(db *gorm.DB, p period, limit int) ([]ServiceSummary, error) {
	services := []ServiceSummary{}

	err := db.Table("visit_items").
		Select("visit_items.service_name AS name, SUM(visit_items.quantity) AS count, SUM(visit_items.total_price) AS revenue").
		Joins("JOIN visits ON visits.id = visit_items.visit_id").
		Where("visits.visit_date >= ? AND visits.visit_date < ? AND visits.deleted_at IS NULL", p.start, p.end).
		Group("visit_items.service_name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&services).Error

	return services, err
}

func (rc *ReportController) getTopCustomers(db *gorm.DB, p period, limit int) ([]CustomerSummary, error) {
	customers := []CustomerSummary{}

	err := db.Table("visits").
		Select("customers.full_name AS name, COUNT(visits.id) AS visits, SUM(visits.final_amount) AS spent").
		Joins("JOIN customers ON customers.id = visits.customer_id").
		Where("visits.visit_date >= ? AND visits.visit_date < ? AND visits.deleted_at IS NULL", p.start, p.end).
		Group("customers.id, customers.full_name").
		Order("spent DESC").
		Limit(limit).
		Scan(&customers).Error

	return customers, err
}

func (rc *ReportController) getTopStaff(db *gorm.DB, p period, limit int) ([]StaffSummary, error) {
	staff := []StaffSummary{}

	err := db.Table("visit_staff").
		Select("staff.full_name AS name, COUNT(visits.id) AS visits, SUM(visits.final_amount) AS revenue").
		Joins("JOIN visits ON visits.id = visit_staff.visit_id").
		Joins("JOIN staff ON staff.id = visit_staff.staff_id").
		Where("visits.visit_date >= ? AND visits.visit_date < ? AND visits.deleted_at IS NULL", p.start, p.end).
		Group("staff.id, staff.full_name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&staff).Error

	return staff, err
}

func (rc *ReportController) getQuickStatistics(db *gorm.DB) (QuickStatistics, error) {
	var stats QuickStatistics

	var totalCustomers int64
	if err := db.Model(&models.Customer{}).Where("is_active = ?", true).Count(&totalCustomers).Error; err != nil {
		return stats, err
	}
	stats.TotalCustomers = int(totalCustomers)

	var totalVisits int64
	if err := db.Model(&models.Visit{}).Count(&totalVisits).Error; err != nil {
		return stats, err
	}
	stats.TotalVisits = int(totalVisits)

	err := db.Raw(`
		SELECT COALESCE(AVG(visits), 0) FROM (
			SELECT COUNT(*) AS visits
			FROM visits
			WHERE deleted_at IS NULL
			GROUP BY DATE_TRUNC('month', visit_date)
		) monthly_visits
	`).Scan(&stats.AvgMonthlyVisits).Error
	if err != nil {
		return stats, err
	}

	var totalRevenue float64
	if err := db.Model(&models.Visit{}).
		Select("COALESCE(SUM(final_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return stats, err
	}
	if stats.TotalVisits > 0 {
		stats.AvgVisitValue = totalRevenue / float64(stats.TotalVisits)
	}

	if err := db.Model(&models.Customer{}).
		Select("COALESCE(SUM(loyalty_points), 0)").
		Scan(&stats.LoyaltyPoints).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
