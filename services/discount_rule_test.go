package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"salon-backoffice/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestValidateRule(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := from.AddDate(0, 1, 0)
	serviceID := uuid.New()

	tests := []struct {
		name    string
		rule    models.DiscountRule
		wantErr bool
	}{
		{"valid percentage", models.DiscountRule{Type: models.DiscountSeasonal, Value: 15, IsPercentage: true, ApplyToAllServices: true}, false},
		{"valid fixed", models.DiscountRule{Type: models.DiscountPromotional, Value: 5000, ApplyToAllServices: true}, false},
		{"unknown type", models.DiscountRule{Type: "HAPPY_HOUR", Value: 10, ApplyToAllServices: true}, true},
		{"zero value", models.DiscountRule{Type: models.DiscountSeasonal, ApplyToAllServices: true}, true},
		{"percentage over 100", models.DiscountRule{Type: models.DiscountSeasonal, Value: 120, IsPercentage: true, ApplyToAllServices: true}, true},
		{"window inverted", models.DiscountRule{Type: models.DiscountSeasonal, Value: 10, ApplyToAllServices: true, ValidFrom: &until, ValidUntil: &from}, true},
		{"window ok", models.DiscountRule{Type: models.DiscountSeasonal, Value: 10, ApplyToAllServices: true, ValidFrom: &from, ValidUntil: &until}, false},
		{"scoped without service", models.DiscountRule{Type: models.DiscountPromotional, Value: 10}, true},
		{"scoped with service", models.DiscountRule{Type: models.DiscountPromotional, Value: 10, ServiceID: &serviceID}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRule(&tt.rule)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRule)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDeletedRuleName(t *testing.T) {
	at := time.Unix(1717171717, 0)
	assert.Equal(t, "Summer Promo_deleted_1717171717", DeletedRuleName("Summer Promo", at))
}

func TestBirthdayStatus(t *testing.T) {
	base := models.Customer{BirthMonth: intPtr(8), SaleCount: 1}

	assert.True(t, BirthdayStatus(base, false, 8).Eligible)

	noSales := base
	noSales.SaleCount = 0
	status := BirthdayStatus(noSales, false, 8)
	assert.False(t, status.Eligible)
	assert.Contains(t, status.Reason, "prior sale")

	assert.False(t, BirthdayStatus(base, true, 8).Eligible)
	assert.False(t, BirthdayStatus(base, false, 9).Eligible)
	assert.False(t, BirthdayStatus(models.Customer{SaleCount: 3}, false, 8).Eligible)
}

type stubExpirer struct {
	calls int
	n     int64
	err   error
}

func (s *stubExpirer) ExpireRules(_ context.Context) (int64, error) {
	s.calls++
	return s.n, s.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestScheduler_ExpireRules(t *testing.T) {
	stub := &stubExpirer{n: 2}
	s, err := NewScheduler("5 0 * * *", stub, quietLogger())
	assert.NoError(t, err)

	s.expireRules()
	stub.err = errors.New("db down")
	s.expireRules()
	assert.Equal(t, 2, stub.calls)
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("not a cron spec", &stubExpirer{}, quietLogger())
	assert.Error(t, err)
}
