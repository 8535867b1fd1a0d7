package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"salon-backoffice/config"
	"salon-backoffice/models"
	"salon-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

func integrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set; skipping Postgres integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	require.NoError(t, db.Exec(`TRUNCATE customer_discounts, visit_discounts, visit_staff, visit_items,
		visits, discount_rules, product_sales, products, staff, services, customers CASCADE`).Error)
	return db
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// afterFirstRead runs write once, right after the first SELECT on table.
func afterFirstRead(t *testing.T, db *gorm.DB, table, write string, args ...interface{}) {
	t.Helper()
	var fired int32
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:concurrent_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table != table || !atomic.CompareAndSwapInt32(&fired, 0, 1) {
			return
		}
		require.NoError(t, db.Exec(write, args...).Error)
	}))
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func customerRouter(db *gorm.DB, cache *countingInvalidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cc := NewCustomerController(db, quietLogger(), nil, cache)

	r := gin.New()
	r.Use(utils.ErrorHandler())
	r.POST("/customers", cc.Create)
	r.PUT("/customers/:id", cc.Update)
	r.DELETE("/customers/:id", cc.Delete)
	return r
}

func TestCustomerUpdate_KeepsConcurrentAggregates_Integration(t *testing.T) {
	db := integrationDB(t)
	customer := models.Customer{FullName: "Njeri Mwangi", Phone: "+254700000030", VisitCount: 5, IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	afterFirstRead(t, db, "customers",
		"UPDATE customers SET visit_count = visit_count + 1, total_spent = total_spent + 4000 WHERE id = ?", customer.ID)

	cache := &countingInvalidator{}
	rec := serve(customerRouter(db, cache), http.MethodPut, "/customers/"+customer.ID.String(), `{"notes":"vip"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"visitCount":6`)

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, "id = ?", customer.ID).Error)
	assert.Equal(t, "vip", reloaded.Notes)
	assert.Equal(t, 6, reloaded.VisitCount)
	assert.Equal(t, 4000.0, reloaded.TotalSpent)
	assert.Equal(t, 1, cache.calls)
}

func TestCustomerUpdate_DeactivationCascades_Integration(t *testing.T) {
	db := integrationDB(t)
	parent := models.Customer{FullName: "Otieno Family", Phone: "+254700000031", IsActive: true}
	require.NoError(t, db.Create(&parent).Error)
	child := models.Customer{FullName: "Baby Otieno", Phone: parent.Phone, IsDependent: true, ParentID: &parent.ID, IsActive: true}
	require.NoError(t, db.Create(&child).Error)

	cache := &countingInvalidator{}
	r := customerRouter(db, cache)
	rec := serve(r, http.MethodPut, "/customers/"+parent.ID.String(), `{"isActive":false,"phone":"+254700000032"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, "id = ?", child.ID).Error)
	assert.False(t, reloaded.IsActive)
	assert.Equal(t, "+254700000032", reloaded.Phone)
	assert.Equal(t, 1, cache.calls)
}

func TestCustomerWrites_InvalidateDashboard_Integration(t *testing.T) {
	db := integrationDB(t)
	cache := &countingInvalidator{}
	r := customerRouter(db, cache)

	rec := serve(r, http.MethodPost, "/customers", `{"fullName":"Kamau Kariuki","phone":"+254700000033"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, cache.calls)

	var created models.Customer
	require.NoError(t, db.First(&created, "phone = ?", "+254700000033").Error)

	rec = serve(r, http.MethodDelete, "/customers/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, cache.calls)
}

func TestProductUpdate_KeepsConcurrentStock_Integration(t *testing.T) {
	db := integrationDB(t)
	product := models.Product{Name: "Shea Butter", SKU: "SHEA-01", Price: 800, Stock: 10, IsActive: true}
	require.NoError(t, db.Create(&product).Error)

	afterFirstRead(t, db, "products", "UPDATE products SET stock = stock - 3 WHERE id = ?", product.ID)

	gin.SetMode(gin.TestMode)
	pc := NewProductController(db, quietLogger(), nil)
	r := gin.New()
	r.Use(utils.ErrorHandler())
	r.PUT("/products/:id", pc.Update)

	rec := serve(r, http.MethodPut, "/products/"+product.ID.String(), `{"price":900}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 900.0, reloaded.Price)
	assert.Equal(t, 7, reloaded.Stock)
}
