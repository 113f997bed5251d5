package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook processing outcomes, labelled by source platform.
const (
	OutcomeStored       = "stored"
	OutcomeIgnored      = "ignored"
	OutcomeRejected     = "rejected"
	OutcomeMalformed    = "malformed"
	OutcomeStorageError = "storage_error"
)

var (
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound webhook requests by source platform and processing outcome.",
		},
		[]string{"source", "outcome"},
	)

	StoredErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stored_errors_total",
			Help: "Error events persisted, by originating project.",
		},
		[]string{"project"},
	)
)

// CountOutcome records one processed webhook request.
func CountOutcome(source, outcome string) {
	WebhookEvents.WithLabelValues(source, outcome).Inc()
}
