package pipeline

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Run performs one cycle immediately, then keeps cycling every
// Options.Interval and purging expired signals every
// Options.RetentionInterval until ctx is cancelled. A cycle that is still
// running when the next tick fires makes that tick a no-op. Run returns once
// the scheduler has stopped and the in-flight job has finished.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.opts.Interval <= 0 {
		return errors.New("pipeline: interval must be positive")
	}

	logger := cronLogger{log: o.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	o.cycle(ctx)
	o.purge(ctx)

	c.Schedule(cron.Every(o.opts.Interval), cron.FuncJob(func() { o.cycle(ctx) }))
	if o.d.Purger != nil && o.opts.Retention > 0 && o.opts.RetentionInterval > 0 {
		c.Schedule(cron.Every(o.opts.RetentionInterval), cron.FuncJob(func() { o.purge(ctx) }))
	}

	c.Start()
	o.log.Info().
		Dur("interval", o.opts.Interval).
		Dur("retention_interval", o.opts.RetentionInterval).
		Msg("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	o.log.Info().Msg("scheduler stopped")
	return nil
}

// RunBatch performs one cycle and then one retention purge. It is the
// non-continuous counterpart of Run; purge failures are logged, not returned.
func (o *Orchestrator) RunBatch(ctx context.Context) (CycleReport, error) {
	rep, err := o.RunOnce(ctx)
	if ctx.Err() == nil {
		o.purge(ctx)
	}
	return rep, err
}

// cronLogger adapts zerolog to cron.Logger. Scheduler chatter goes to debug.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
