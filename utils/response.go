// utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ListMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func RespondWithError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func RespondWithData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func RespondWithMessage(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func RespondWithList(c *gin.Context, data interface{}, p Pagination, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"meta": ListMeta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: p.TotalPages(total),
		},
	})
}

// ErrorHandler answers requests whose handlers pushed an error with
// c.Error but wrote no response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			RespondWithError(c, http.StatusNotFound, "Record not found")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			RespondWithError(c, http.StatusBadRequest, "A record with this value already exists")
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			RespondWithError(c, http.StatusBadRequest, "Referenced record does not exist")
		default:
			RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		}
	}
}
