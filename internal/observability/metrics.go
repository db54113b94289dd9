// Package observability holds the Prometheus collectors for roster operations.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	signupCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster_service",
		Subsystem: "registry",
		Name:      "signups_total",
		Help:      "Number of accepted signups, labeled by activity.",
	}, []string{"activity"})
	unregisterCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster_service",
		Subsystem: "registry",
		Name:      "unregistrations_total",
		Help:      "Number of accepted unregistrations, labeled by activity.",
	}, []string{"activity"})
	rejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster_service",
		Subsystem: "registry",
		Name:      "rejected_total",
		Help:      "Number of rejected roster operations, labeled by operation and reason.",
	}, []string{"operation", "reason"})
	participantsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "roster_service",
		Subsystem: "registry",
		Name:      "participants",
		Help:      "Current roster size per activity.",
	}, []string{"activity"})
)

func init() {
	prometheus.MustRegister(signupCounter, unregisterCounter, rejectedCounter, participantsGauge)
}

// RecordSignup counts an accepted signup and updates the roster size.
func RecordSignup(activity string, participants int) {
	signupCounter.WithLabelValues(activity).Inc()
	participantsGauge.WithLabelValues(activity).Set(float64(participants))
}

// RecordUnregister counts an accepted unregistration and updates the roster size.
func RecordUnregister(activity string, participants int) {
	unregisterCounter.WithLabelValues(activity).Inc()
	participantsGauge.WithLabelValues(activity).Set(float64(participants))
}

// RecordRejected counts a failed roster operation.
func RecordRejected(operation, reason string) {
	rejectedCounter.WithLabelValues(operation, reason).Inc()
}

// RecordRosterSize sets the roster size gauge, e.g. after seeding.
func RecordRosterSize(activity string, participants int) {
	participantsGauge.WithLabelValues(activity).Set(float64(participants))
}
