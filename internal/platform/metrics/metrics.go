package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing, so tests can pass nil instead of registering
// collectors against the default registry twice.
type Metrics struct {
	RegistrationsTotal prometheus.Counter
	CheckInsTotal      prometheus.Counter
	CheckOutsTotal     prometheus.Counter
	PaymentsTotal      prometheus.Counter
	RevenueTotal       prometheus.Counter
	ActiveSessions     prometheus.Gauge
	EventsDropped      prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playpass_registrations_total",
			Help: "Total number of new identity registrations",
		}),
		CheckInsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playpass_checkins_total",
			Help: "Total number of sessions started",
		}),
		CheckOutsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playpass_checkouts_total",
			Help: "Total number of sessions closed",
		}),
		PaymentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playpass_payments_total",
			Help: "Total number of sessions marked paid",
		}),
		RevenueTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playpass_revenue_total",
			Help: "Sum of amounts charged at checkout, in currency units",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "playpass_active_sessions",
			Help: "Number of currently active play sessions",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playpass_lifecycle_events_dropped_total",
			Help: "Lifecycle events dropped because the queue was full",
		}),
	}
}

func (m *Metrics) IncRegistrations() {
	if m != nil {
		m.RegistrationsTotal.Inc()
	}
}

func (m *Metrics) IncCheckIns() {
	if m != nil {
		m.CheckInsTotal.Inc()
		m.ActiveSessions.Inc()
	}
}

func (m *Metrics) IncCheckOuts(amount int64) {
	if m != nil {
		m.CheckOutsTotal.Inc()
		m.ActiveSessions.Dec()
		m.RevenueTotal.Add(float64(amount))
	}
}

func (m *Metrics) IncPayments() {
	if m != nil {
		m.PaymentsTotal.Inc()
	}
}

func (m *Metrics) IncEventsDropped() {
	if m != nil {
		m.EventsDropped.Inc()
	}
}
