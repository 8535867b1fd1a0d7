package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"salon-backoffice/services"
	"salon-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// parseID reads a uuid path parameter and answers 400 when it is malformed.
func parseID(c *gin.Context, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

func currentUserID(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetString(utils.ContextUserID))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func queryUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+key)
		return nil, false
	}
	return &id, true
}

// queryTime accepts RFC 3339 timestamps or plain dates.
func queryTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+key+" date")
	return nil, false
}

func queryInt(c *gin.Context, key string) (*int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+key)
		return nil, false
	}
	return &v, true
}

func queryBoolPtr(c *gin.Context, key string) *bool {
	if v, ok := utils.QueryBool(c, key); ok {
		return &v
	}
	return nil
}

// respondServiceError maps service sentinel errors to HTTP statuses.
// Anything unknown is handed to the error middleware.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrVisitNotFound),
		errors.Is(err, services.ErrRuleNotFound),
		errors.Is(err, services.ErrProductNotFound):
		utils.RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrCustomerInactive),
		errors.Is(err, services.ErrServiceNotFound),
		errors.Is(err, services.ErrServiceInactive),
		errors.Is(err, services.ErrStaffNotFound),
		errors.Is(err, services.ErrNoServices),
		errors.Is(err, services.ErrRuleNameTaken),
		errors.Is(err, services.ErrInvalidRule),
		errors.Is(err, services.ErrProductInactive),
		errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
	}
}
