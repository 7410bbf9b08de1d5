package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the locator module.
type Metrics struct {
	Searches          prometheus.Counter
	EmptySearches     prometheus.Counter
	MatchesPerSearch  prometheus.Histogram
	NotificationsSent prometheus.Counter
}

// New creates a new Metrics instance with all locator module metrics registered.
func New() *Metrics {
	return &Metrics{
		Searches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_locator_searches_total",
			Help: "Total number of compatible-donor searches",
		}),
		EmptySearches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_locator_empty_searches_total",
			Help: "Total number of searches that matched no donors",
		}),
		MatchesPerSearch: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodlink_locator_matches_per_search",
			Help:    "Number of donors matched per search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_locator_notifications_sent_total",
			Help: "Total number of donor appeal notifications dispatched",
		}),
	}
}
