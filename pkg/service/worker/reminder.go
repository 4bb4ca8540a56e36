package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/utils/errutil"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs an evaluation pass on every fifth minute of the hour.
// Reminder windows are sized to this cadence.
const DefaultSchedule = "*/5 * * * *"

// CheckFunc runs one evaluation pass
type CheckFunc func(ctx context.Context) error

// ReminderWorker runs evaluation passes on a cron schedule.
//
// Passes never overlap: a pass still running when the next one is due makes
// the scheduler skip that tick. There is no distributed locking, so only one
// instance may run the worker.
type ReminderWorker struct {
	check    CheckFunc
	schedule string
	location *time.Location

	cron *cron.Cron
}

type Option func(*ReminderWorker)

// WithSchedule sets a standard five-field cron expression
func WithSchedule(spec string) Option {
	return func(w *ReminderWorker) {
		w.schedule = spec
	}
}

// WithLocation sets the zone the schedule is read in
func WithLocation(loc *time.Location) Option {
	return func(w *ReminderWorker) {
		if loc != nil {
			w.location = loc
		}
	}
}

func NewReminderWorker(check CheckFunc, opts ...Option) *ReminderWorker {
	w := &ReminderWorker{
		check:    check,
		schedule: DefaultSchedule,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start registers the pass and starts the scheduler. It does not block.
func (w *ReminderWorker) Start(ctx context.Context) error {
	logger := logging.From(ctx)
	clog := &cronLogger{ctx: ctx}

	c := cron.New(
		cron.WithLocation(w.location),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	if _, err := c.AddFunc(w.schedule, func() { w.run(ctx) }); err != nil {
		return goerr.Wrap(err, "invalid reminder schedule", goerr.V("schedule", w.schedule))
	}

	w.cron = c
	w.cron.Start()
	logger.Info("reminder worker started", "schedule", w.schedule, "location", w.location.String())
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish
func (w *ReminderWorker) Stop() {
	if w == nil || w.cron == nil {
		return
	}
	logging.Default().Info("reminder worker stopping")
	<-w.cron.Stop().Done()
	logging.Default().Info("reminder worker stopped")
}

// Next returns the time of the next scheduled pass
func (w *ReminderWorker) Next() time.Time {
	if w.cron == nil {
		return time.Time{}
	}
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (w *ReminderWorker) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	startTime := time.Now()
	if err := w.check(ctx); err != nil {
		_ = errutil.Handle(ctx, err, "evaluation pass failed (will retry next interval)")
		return
	}
	logging.From(ctx).Debug("evaluation pass completed", "duration", time.Since(startTime).String())
}

// cronLogger forwards scheduler logs to slog
type cronLogger struct {
	ctx context.Context
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	logging.From(l.ctx).Debug("cron: "+msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logging.From(l.ctx).Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// ValidateSchedule reports whether spec is a valid five-field cron expression
// or descriptor such as "@every 5m"
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return goerr.Wrap(err, "invalid reminder schedule", goerr.V("schedule", spec))
	}
	return nil
}
