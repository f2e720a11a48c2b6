package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okravchenko/abook/pkg/models"
	"github.com/okravchenko/abook/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus metrics for the contact API
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// NewMetrics creates a metrics recorder backed by its own registry.
// Contact totals and the upcoming-birthday count are computed from the store
// at scrape time.
func NewMetrics(s store.Store) *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "abook_http_requests_total",
		Help: "HTTP requests handled by the contact API",
	}, []string{"method", "route", "code"})
	registry.MustRegister(requests)

	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "abook_contacts_total",
		Help: "Number of contacts currently stored",
	}, func() float64 {
		count, err := s.CountContacts()
		if err != nil {
			return 0
		}
		return float64(count)
	}))

	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "abook_upcoming_birthdays",
		Help: "Contacts with a congratulation date in the next 7 days",
	}, func() float64 {
		upcoming, err := s.UpcomingBirthdays(time.Now(), models.DefaultUpcomingWindow)
		if err != nil {
			return 0
		}
		return float64(len(upcoming))
	}))

	return &Metrics{registry: registry, requests: requests}
}

// RecordRequest counts one handled HTTP request
func (m *Metrics) RecordRequest(method, route string, status int) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler returns the Prometheus scrape handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
