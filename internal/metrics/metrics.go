package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partyroom",
			Name:      "bookings_total",
			Help:      "Booking state transitions by outcome.",
		},
		[]string{"outcome"},
	)

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partyroom",
			Name:      "webhook_events_total",
			Help:      "Payment webhook events by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookings, webhookEvents)
	})
}

// IncBooking increments the booking counter for an outcome label
// (created, confirmed, cancelled, conflict, expired).
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// IncWebhook increments the webhook counter for a type/outcome pair.
func IncWebhook(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}
