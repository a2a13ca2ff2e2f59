package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcome labels
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

var (
	// TurnsTotal counts chat turns by terminal outcome
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_turns_total",
		Help: "Chat turns by terminal outcome.",
	}, []string{"outcome"})

	// DeltasTotal counts content deltas relayed to clients
	DeltasTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_stream_deltas_total",
		Help: "Content deltas relayed to clients.",
	})

	// TurnDuration observes turn duration from request to settlement
	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chat_turn_duration_seconds",
		Help:    "Duration of chat turns from request to settlement.",
		Buckets: prometheus.DefBuckets,
	})
)
