package monitoring

import (
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_quote_requests_total",
			Help: "Total price quote requests",
		},
		[]string{"room_tier", "status"},
	)

	checkoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_checkout_sessions_total",
			Help: "Total checkout session creation attempts",
		},
		[]string{"room_tier", "status"},
	)

	reconcileSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_reconcile_signals_total",
			Help: "Payment signals processed by source and outcome",
		},
		[]string{"source", "signal", "outcome"},
	)

	pendingReservations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_pending_reservations",
			Help: "Current number of pending reservations",
		},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_provider_request_duration_seconds",
			Help:    "Duration of payment provider API calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"operation"},
	)
)

// TrackQuote counts a quote request outcome.
func TrackQuote(roomTier, status string) {
	quoteRequests.WithLabelValues(roomTier, status).Inc()
}

// TrackCheckout counts a checkout session attempt outcome.
func TrackCheckout(roomTier, status string) {
	checkoutSessions.WithLabelValues(roomTier, status).Inc()
}

// TrackReconcile counts one processed payment signal.
func TrackReconcile(source, signal, outcome string) {
	reconcileSignals.WithLabelValues(source, signal, outcome).Inc()
}

// TrackProviderRequest records the latency of one provider API call.
func TrackProviderRequest(operation string, duration time.Duration) {
	providerRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

type Monitor struct {
	app core.App
}

func NewMonitor(app core.App) *Monitor {
	monitor := &Monitor{app: app}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.collectReservationMetrics()
	}
}

func (m *Monitor) collectReservationMetrics() {
	count, err := m.app.CountRecords("reservations", dbx.HashExp{"payment_status": "pending"})
	if err != nil {
		return
	}
	pendingReservations.Set(float64(count))
}
