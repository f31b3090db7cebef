package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reservations"

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_created_total",
		Help:      "Bookings committed in PENDING state.",
	})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_transitions_total",
		Help:      "Committed booking status transitions.",
	}, []string{"from", "to"})

	BookingRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_rejections_total",
		Help:      "Booking operations rejected by kind of error.",
	}, []string{"kind"})

	StockMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_movements_total",
		Help:      "Committed stock movements by type.",
	}, []string{"type"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_events_published_total",
		Help:      "Booking events handed to the broker, by result.",
	}, []string{"result"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_events_consumed_total",
		Help:      "Booking events received from the broker, by result.",
	}, []string{"result"})

	StockDrift = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stock_drift_units",
		Help:      "Difference between reserved stock and active booking quantities found by reconciliation.",
	}, []string{"equipment_id"})

	UnbalancedEquipment = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stock_unbalanced_equipment",
		Help:      "Equipment whose counters do not add up to total stock at the last reconciliation.",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "API request latency by route template and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
