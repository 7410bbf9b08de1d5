package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the donation module.
type Metrics struct {
	RegistrationsCreated prometheus.Counter
	ScreeningRejections  prometheus.Counter
	HealthChecksRecorded *prometheus.CounterVec
	ProcessTransitions   *prometheus.CounterVec
	VolumeCollectedML    prometheus.Counter
}

// New creates a new Metrics instance with all donation module metrics registered.
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donation_registrations_created_total",
			Help: "Total number of donation registrations accepted",
		}),
		ScreeningRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donation_screening_rejections_total",
			Help: "Total number of registrations rejected by the screening questionnaire",
		}),
		HealthChecksRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_donation_health_checks_recorded_total",
			Help: "Total number of health checks recorded, by resulting status",
		}, []string{"status"}),
		ProcessTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_donation_process_transitions_total",
			Help: "Total number of donation process status transitions, by target status",
		}, []string{"status"}),
		VolumeCollectedML: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donation_volume_collected_ml_total",
			Help: "Total blood volume recorded as collected, in milliliters",
		}),
	}
}
