package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paginationFor(query string) Pagination {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return ParsePagination(c)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Page: 1, Limit: 20}},
		{"page=3&limit=10", Pagination{Page: 3, Limit: 10}},
		{"page=0&limit=-5", Pagination{Page: 1, Limit: 20}},
		{"page=abc&limit=xyz", Pagination{Page: 1, Limit: 20}},
		{"limit=500", Pagination{Page: 1, Limit: 100}},
		{"search=%20anna%20", Pagination{Page: 1, Limit: 20, Search: "anna"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, paginationFor(tt.query))
		})
	}
}

func TestPagination_OffsetAndPages(t *testing.T) {
	p := Pagination{Page: 3, Limit: 20}
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(20))
	assert.Equal(t, 2, p.TotalPages(21))
}

func TestQueryBool(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?a=true&b=nah", nil)

	v, ok := QueryBool(c, "a")
	assert.True(t, ok)
	assert.True(t, v)

	_, ok = QueryBool(c, "b")
	assert.False(t, ok)

	_, ok = QueryBool(c, "missing")
	assert.False(t, ok)
}
