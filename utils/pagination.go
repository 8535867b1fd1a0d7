package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Pagination struct {
	Page   int
	Limit  int
	Search string
}

// ParsePagination reads page, limit and search from the query string.
// Bad values fall back to the defaults instead of failing the request.
func ParsePagination(c *gin.Context) Pagination {
	p := Pagination{Page: 1, Limit: DefaultPageLimit}

	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	p.Search = strings.TrimSpace(c.Query("search"))
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Pagination) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Scope applies offset and limit to a gorm query.
func (p Pagination) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Limit)
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(c *gin.Context, key string) (bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
