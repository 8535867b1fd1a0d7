package routes

import (
	"time"

	"salon-backoffice/cache"
	"salon-backoffice/config"
	"salon-backoffice/controllers"
	"salon-backoffice/metrics"
	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Log       *logrus.Logger
	DB        *gorm.DB
	Cache     *cache.DashboardCache
	Registry  *prometheus.Registry
	Metrics   metrics.HTTPMetrics
	Visits    controllers.VisitManager
	Discounts controllers.DiscountManager
	Products  controllers.ProductSeller
}

func SetupRouter(d Deps) *gin.Engine {
	utils.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(config.PerformanceLogger(d.Log, d.Metrics))
	r.Use(utils.ErrorHandler())

	health := controllers.NewHealthController(d.DB)
	r.GET("/health", health.Check)
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	auth := controllers.NewAuthController(d.DB, d.Log, d.Config.JWT.Secret, d.Config.JWT.Expiry)
	customers := controllers.NewCustomerController(d.DB, d.Log, d.Visits, d.Cache)
	salonServices := controllers.NewServiceController(d.DB, d.Log)
	staff := controllers.NewStaffController(d.DB, d.Log)
	visits := controllers.NewVisitController(d.Visits)
	discounts := controllers.NewDiscountController(d.Discounts)
	products := controllers.NewProductController(d.DB, d.Log, d.Products)
	dashboard := controllers.NewDashboardController(d.DB, d.Log, d.Cache)
	reports := controllers.NewReportController(d.DB, d.Log, d.Cache)

	requireAuth := utils.AuthMiddleware(d.Config.JWT.Secret)
	adminOnly := utils.RequireRoles(string(models.RoleAdmin))
	managers := utils.RequireRoles(string(models.RoleAdmin), string(models.RoleManager))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", auth.Login)
		authGroup.GET("/me", requireAuth, auth.Me)
		authGroup.PUT("/profile", requireAuth, auth.UpdateProfile)
		authGroup.PUT("/password", requireAuth, auth.ChangePassword)
		authGroup.POST("/register", requireAuth, adminOnly, auth.Register)
	}

	protected := api.Group("")
	protected.Use(requireAuth)
	{
		customerGroup := protected.Group("/customers")
		{
			customerGroup.POST("", customers.Create)
			customerGroup.GET("", customers.List)
			customerGroup.GET("/:id", customers.Get)
			customerGroup.PUT("/:id", customers.Update)
			customerGroup.DELETE("/:id", managers, customers.Delete)
			customerGroup.GET("/:id/visits", customers.Visits)
			customerGroup.GET("/:id/dependents", customers.Dependents)
		}

		serviceGroup := protected.Group("/services")
		{
			serviceGroup.GET("", salonServices.List)
			serviceGroup.GET("/categories", salonServices.Categories)
			serviceGroup.GET("/:id", salonServices.Get)
			serviceGroup.POST("", managers, salonServices.Create)
			serviceGroup.PUT("/:id", managers, salonServices.Update)
			serviceGroup.DELETE("/:id", managers, salonServices.Delete)
		}

		staffGroup := protected.Group("/staff")
		{
			staffGroup.GET("", staff.List)
			staffGroup.GET("/:id", staff.Get)
			staffGroup.POST("", managers, staff.Create)
			staffGroup.PUT("/:id", managers, staff.Update)
			staffGroup.DELETE("/:id", managers, staff.Delete)
		}

		// sales is the same resource under its retail name
		for _, path := range []string{"/visits", "/sales"} {
			g := protected.Group(path)
			g.POST("", visits.Create)
			g.POST("/preview", visits.Preview)
			g.GET("", visits.List)
			g.GET("/:id", visits.Get)
			g.PUT("/:id", visits.Update)
			g.DELETE("/:id", managers, visits.Delete)
		}

		discountGroup := protected.Group("/discounts")
		{
			discountGroup.GET("", discounts.List)
			discountGroup.GET("/eligibility/:customerId", discounts.Eligibility)
			discountGroup.GET("/usage/:customerId", discounts.Usage)
			discountGroup.GET("/:id", discounts.Get)
			discountGroup.POST("", managers, discounts.Create)
			discountGroup.PUT("/:id", managers, discounts.Update)
			discountGroup.DELETE("/:id", managers, discounts.Delete)
		}

		productGroup := protected.Group("/products")
		{
			productGroup.GET("", products.List)
			productGroup.GET("/:id", products.Get)
			productGroup.GET("/:id/sales", products.Sales)
			productGroup.POST("/:id/sales", products.Sell)
			productGroup.POST("", managers, products.Create)
			productGroup.PUT("/:id", managers, products.Update)
			productGroup.DELETE("/:id", managers, products.Delete)
		}

		protected.GET("/dashboard", dashboard.Overview)
		protected.GET("/dashboard/analytics", reports.Analytics)
	}

	return r
}
