package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the inventory module.
// Tracks unit lifecycle counts and snapshot durations.
type Metrics struct {
	UnitsCreated        prometheus.Counter
	UnitsExpired        prometheus.Counter
	UnitsUsed           prometheus.Counter
	CollectionsRecorded prometheus.Counter
	SnapshotDuration    prometheus.Histogram
}

// New creates a new Metrics instance with all inventory module metrics registered.
func New() *Metrics {
	return &Metrics{
		UnitsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_blood_units_created_total",
			Help: "Total number of blood units materialized from approved donations",
		}),
		UnitsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_blood_units_expired_total",
			Help: "Total number of blood units transitioned to expired by the sweep",
		}),
		UnitsUsed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_blood_units_used_total",
			Help: "Total number of blood units consumed by request processes",
		}),
		CollectionsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_collections_recorded_total",
			Help: "Total number of collection volume batches recorded",
		}),
		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodlink_inventory_snapshot_duration_seconds",
			Help:    "Duration of inventory threshold snapshot recomputation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveSnapshot records the duration of a snapshot recomputation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSnapshot(start time.Time) {
	m.SnapshotDuration.Observe(time.Since(start).Seconds())
}
