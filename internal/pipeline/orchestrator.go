// Package pipeline runs collection cycles: collect, filter out muted and
// already stored items, then analyze, route, notify and persist each new
// signal. It can run a single cycle or keep cycling on a schedule.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-signal-pipeline/internal/analysis"
	"github.com/tbourn/go-signal-pipeline/internal/collector"
	"github.com/tbourn/go-signal-pipeline/internal/domain"
	"github.com/tbourn/go-signal-pipeline/internal/metrics"
	"github.com/tbourn/go-signal-pipeline/internal/repo"
	"github.com/tbourn/go-signal-pipeline/internal/routing"
)

const tracerName = "pipeline/Orchestrator"

// Store is the persistence surface a cycle needs.
type Store interface {
	HasSignal(ctx context.Context, id string) (bool, error)
	SaveEnrichedSignal(ctx context.Context, ev domain.SignalEvent, a domain.AnalysisResult) error
	RecordDeliveries(ctx context.Context, signalID string, attempts []domain.DeliveryAttempt) error
	GetMutedSources(ctx context.Context) (map[domain.SourceKind]struct{}, error)
}

// Purger deletes expired signals. It is only used in continuous mode.
type Purger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (repo.PurgeReport, error)
}

// Notifier fans one signal out to the delivery channels.
type Notifier interface {
	Notify(ctx context.Context, ev domain.SignalEvent, a domain.AnalysisResult, t domain.Target) []domain.DeliveryAttempt
}

// Options tune routing and scheduling.
type Options struct {
	Routing routing.Options
	// ChatCap limits how many signals per cycle are routed to Telegram.
	// Zero means unlimited.
	ChatCap int

	Interval          time.Duration
	Retention         time.Duration
	RetentionInterval time.Duration
}

// Deps are the collaborators of an Orchestrator. Purger may be nil.
type Deps struct {
	Store      Store
	Purger     Purger
	Collectors []collector.Collector
	Analyzer   analysis.Analyzer
	Notifier   Notifier
	Log        zerolog.Logger
}

// CycleReport summarizes one RunOnce call.
type CycleReport struct {
	Collected int           `json:"collected"`
	Muted     int           `json:"muted"`
	Seen      int           `json:"seen"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
}

// Orchestrator drives cycles. Cycles never overlap.
type Orchestrator struct {
	d    Deps
	opts Options
	log  zerolog.Logger

	mu sync.Mutex
}

// New builds an Orchestrator.
func New(d Deps, o Options) *Orchestrator {
	return &Orchestrator{
		d:    d,
		opts: o,
		log:  d.Log.With().Str("component", "pipeline").Logger(),
	}
}

// RunOnce performs one full cycle. Per-item failures are logged and counted;
// the returned error is reserved for failures that stop the whole cycle
// (mute set unavailable, context cancelled).
func (o *Orchestrator) RunOnce(ctx context.Context) (rep CycleReport, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "RunOnce")
	defer span.End()

	start := time.Now()
	defer func() {
		rep.Duration = time.Since(start)
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(
			attribute.Int("signals.collected", rep.Collected),
			attribute.Int("signals.processed", rep.Processed),
			attribute.Int("signals.failed", rep.Failed),
		)
		metrics.ObserveCycle(rep.Duration, outcome)
		metrics.ObserveSignals(metrics.StageCollected, rep.Collected)
		metrics.ObserveSignals(metrics.StageMuted, rep.Muted)
		metrics.ObserveSignals(metrics.StageSeen, rep.Seen)
		metrics.ObserveSignals(metrics.StageProcessed, rep.Processed)
		metrics.ObserveSignals(metrics.StageFailed, rep.Failed)
	}()

	muted, err := o.d.Store.GetMutedSources(ctx)
	if err != nil {
		return rep, fmt.Errorf("load muted sources: %w", err)
	}

	events := collector.CollectAll(ctx, o.d.Collectors...)
	rep.Collected = len(events)

	fresh := make([]domain.SignalEvent, 0, len(events))
	for _, ev := range events {
		if _, ok := muted[ev.Source]; ok {
			rep.Muted++
			continue
		}
		seen, err := o.d.Store.HasSignal(ctx, ev.ID)
		if err != nil {
			rep.Failed++
			o.log.Error().Err(err).Str("signal_id", ev.ID).Msg("lookup failed")
			continue
		}
		if seen {
			rep.Seen++
			continue
		}
		fresh = append(fresh, ev)
	}

	chatRouted := 0
	for _, ev := range fresh {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		attempts, err := o.process(ctx, ev, &chatRouted)
		rep.Attempts += len(attempts)
		if err != nil {
			rep.Failed++
			o.log.Error().Err(err).
				Str("signal_id", ev.ID).
				Str("source", string(ev.Source)).
				Msg("signal processing failed")
			continue
		}
		rep.Processed++
	}
	return rep, nil
}

// process analyzes, routes, notifies and persists a single event. Persisting
// ignores cancellation so that a notification already sent is recorded.
func (o *Orchestrator) process(ctx context.Context, ev domain.SignalEvent, chatRouted *int) (attempts []domain.DeliveryAttempt, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "process",
		trace.WithAttributes(
			attribute.String("signal.id", ev.ID),
			attribute.String("signal.source", string(ev.Source)),
		),
	)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	a := o.d.Analyzer.Analyze(ctx, ev).Clamp()
	t := routing.Route(a, o.opts.Routing)
	span.SetAttributes(attribute.Int("analysis.score", a.Score), attribute.String("analysis.urgency", string(a.Urgency)))
	if t.Telegram && o.opts.ChatCap > 0 {
		if *chatRouted >= o.opts.ChatCap {
			t.Telegram = false
		} else {
			*chatRouted++
		}
	}

	attempts = o.d.Notifier.Notify(ctx, ev, a, t)
	for _, at := range attempts {
		metrics.ObserveDelivery(string(at.Channel), string(at.Status))
		if at.Status == domain.StatusFailed {
			o.log.Warn().
				Str("signal_id", ev.ID).
				Str("channel", string(at.Channel)).
				Str("error", at.Error).
				Msg("delivery failed")
		}
	}

	pctx := context.WithoutCancel(ctx)
	if err := o.d.Store.SaveEnrichedSignal(pctx, ev, a); err != nil {
		return attempts, fmt.Errorf("save signal: %w", err)
	}
	if err := o.d.Store.RecordDeliveries(pctx, ev.ID, attempts); err != nil {
		return attempts, fmt.Errorf("record deliveries: %w", err)
	}
	return attempts, nil
}

// cycle runs RunOnce and logs the outcome.
func (o *Orchestrator) cycle(ctx context.Context) {
	rep, err := o.RunOnce(ctx)
	ev := o.log.Info()
	switch {
	case errors.Is(err, context.Canceled):
		ev = o.log.Warn().Err(err)
	case err != nil:
		ev = o.log.Error().Err(err)
	}
	ev.Int("collected", rep.Collected).
		Int("muted", rep.Muted).
		Int("seen", rep.Seen).
		Int("processed", rep.Processed).
		Int("failed", rep.Failed).
		Int("attempts", rep.Attempts).
		Dur("took", rep.Duration).
		Msg("cycle finished")
}

func (o *Orchestrator) purge(ctx context.Context) {
	if o.d.Purger == nil || o.opts.Retention <= 0 {
		return
	}
	rep, err := o.d.Purger.PurgeExpired(ctx, o.opts.Retention)
	if err != nil {
		o.log.Error().Err(err).Msg("retention purge failed")
		return
	}
	metrics.ObserveRetention(rep.Signals)
	o.log.Info().
		Int64("signals", rep.Signals).
		Int64("idempotency", rep.Idempotency).
		Dur("retention", o.opts.Retention).
		Msg("retention purge done")
}
