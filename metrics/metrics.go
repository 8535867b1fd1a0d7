package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// VisitMetrics records what the visit flow does.
type VisitMetrics interface {
	IncVisitCreated()
	IncVisitUpdated()
	IncVisitDeleted()
	IncDiscountApplied(discountType string, amount float64)
	ObserveVisitAmount(finalAmount float64)
}

// HTTPMetrics records request outcomes.
type HTTPMetrics interface {
	ObserveRequest(method, route string, status int, latency time.Duration)
}

// Collectors implements both interfaces on one registry.
type Collectors struct {
	visitsTotal     *prometheus.CounterVec
	discountsTotal  *prometheus.CounterVec
	discountAmount  *prometheus.CounterVec
	visitAmount     prometheus.Histogram
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors on registry.
func New(registry *prometheus.Registry) *Collectors {
	factory := promauto.With(registry)

	return &Collectors{
		visitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salon_visits_total",
				Help: "Visits by lifecycle operation",
			},
			[]string{"operation"},
		),
		discountsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salon_discounts_applied_total",
				Help: "Discounts applied to visits by type",
			},
			[]string{"type"},
		),
		discountAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salon_discount_amount_total",
				Help: "Sum of discount amounts granted by type",
			},
			[]string{"type"},
		),
		visitAmount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "salon_visit_final_amount",
				Help:    "Final amount charged per visit",
				Buckets: prometheus.ExponentialBuckets(500, 2, 8),
			},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salon_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *Collectors) IncVisitCreated() {
	m.visitsTotal.WithLabelValues("created").Inc()
}

func (m *Collectors) IncVisitUpdated() {
	m.visitsTotal.WithLabelValues("updated").Inc()
}

func (m *Collectors) IncVisitDeleted() {
	m.visitsTotal.WithLabelValues("deleted").Inc()
}

func (m *Collectors) IncDiscountApplied(discountType string, amount float64) {
	m.discountsTotal.WithLabelValues(discountType).Inc()
	m.discountAmount.WithLabelValues(discountType).Add(amount)
}

func (m *Collectors) ObserveVisitAmount(finalAmount float64) {
	m.visitAmount.Observe(finalAmount)
}

func (m *Collectors) ObserveRequest(method, route string, status int, latency time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(latency.Seconds())
}
