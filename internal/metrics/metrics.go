// Package metrics holds the Prometheus collectors for the pipeline itself:
// cycles, per-stage signal counts, delivery outcomes, analyzer fallbacks and
// webhook actions. HTTP traffic is instrumented separately by the gin
// middleware.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "signal_pipeline"

const (
	// OutcomeSuccess labels cycles that completed.
	OutcomeSuccess = "success"
	// OutcomeError labels cycles aborted by a store or collection failure.
	OutcomeError = "error"
)

// Stages used with ObserveSignals.
const (
	StageCollected = "collected"
	StageMuted     = "muted"
	StageSeen      = "seen"
	StageProcessed = "processed"
	StageFailed    = "failed"
)

var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of pipeline cycles, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	cycleSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_seconds",
			Help:      "Pipeline cycle latency in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Signals seen by each pipeline stage.",
		},
		[]string{"stage"},
	)

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Delivery attempts by channel and status.",
		},
		[]string{"channel", "status"},
	)

	analyzerFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyzer_fallbacks_total",
			Help:      "Remote analyses replaced by the heuristic, by reason.",
		},
		[]string{"reason"},
	)

	webhookActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_actions_total",
			Help:      "Telegram callback actions handled, by action and result.",
		},
		[]string{"action", "result"},
	)

	retentionPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_purged_total",
			Help:      "Signals removed by the retention job.",
		},
	)
)

// Register attaches the pipeline collectors to reg. Collectors that are
// already registered are ignored so Register may be called more than once.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		cyclesTotal,
		cycleSeconds,
		signalsTotal,
		deliveriesTotal,
		analyzerFallbacksTotal,
		webhookActionsTotal,
		retentionPurgedTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveCycle records a cycle duration and outcome label.
func ObserveCycle(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	cyclesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	cycleSeconds.Observe(duration.Seconds())
}

// ObserveSignals adds n to the counter for stage. Non-positive n is ignored.
func ObserveSignals(stage string, n int) {
	if n <= 0 {
		return
	}
	signalsTotal.WithLabelValues(stage).Add(float64(n))
}

// ObserveDelivery counts one delivery attempt.
func ObserveDelivery(channel, status string) {
	deliveriesTotal.WithLabelValues(channel, status).Inc()
}

// ObserveAnalyzerFallback counts one heuristic fallback.
func ObserveAnalyzerFallback(reason string) {
	analyzerFallbacksTotal.WithLabelValues(reason).Inc()
}

// ObserveWebhookAction counts one handled callback.
func ObserveWebhookAction(action, result string) {
	webhookActionsTotal.WithLabelValues(action, result).Inc()
}

// ObserveRetention counts purged signals.
func ObserveRetention(purged int64) {
	if purged > 0 {
		retentionPurgedTotal.Add(float64(purged))
	}
}
