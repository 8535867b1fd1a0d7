package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"salon-backoffice/cache"
	"salon-backoffice/config"
	"salon-backoffice/metrics"
	"salon-backoffice/routes"
	"salon-backoffice/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := config.SetupLogger(cfg)

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.ConnectDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := config.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	ctx := context.Background()
	if err := services.EnsureAdmin(ctx, db, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name, log); err != nil {
		log.WithError(err).Fatal("Failed to create initial admin")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, dashboard cache disabled")
			redisClient = nil
		}
	}
	dashboardCache := cache.NewDashboardCache(redisClient, cfg.Redis.TTL, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	collected := metrics.New(registry)

	visitSvc := services.NewVisitService(db, log, collected, dashboardCache)
	discountSvc := services.NewDiscountService(db, log)
	productSvc := services.NewProductService(db, log, dashboardCache)

	var scheduler *services.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = services.NewScheduler(cfg.Scheduler.RuleExpirySpec, discountSvc, log)
		if err != nil {
			log.WithError(err).Fatal("Invalid rule expiry schedule")
		}
		scheduler.Start()
	}

	r := routes.SetupRouter(routes.Deps{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Cache:     dashboardCache,
		Registry:  registry,
		Metrics:   collected,
		Visits:    visitSvc,
		Discounts: discountSvc,
		Products:  productSvc,
	})
	if cfg.IsDevelopment() {
		printRoutes(r)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shut down")
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
