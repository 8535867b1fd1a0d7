package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	db *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

func (hc *HealthController) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := hc.ping(ctx); err != nil {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{"status": status, "database": status, "time": time.Now().UTC()})
}

func (hc *HealthController) ping(ctx context.Context) error {
	if hc.db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := hc.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
