// Package runner periodically re-checks the active delegate set.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/nholik/delegate-sentinel/internal/dispatch"
	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/nholik/delegate-sentinel/internal/healthcheck"
	"github.com/rs/zerolog"
)

// Ticker is the minimal interface needed for driving the runner loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// Dispatcher runs one event through the notification pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, occurrence event.Occurrence) dispatch.Result
}

// Runner triggers the synthetic active delegate event on every tick.
type Runner struct {
	logger        zerolog.Logger
	pollInterval  time.Duration
	tickerFactory func(time.Duration) Ticker
	runOnce       func(context.Context) error
	dispatcher    Dispatcher
	tracker       *healthcheck.Tracker
}

// Option customizes runner behavior.
type Option func(*Runner)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) Option {
	return func(r *Runner) {
		r.tickerFactory = factory
	}
}

// WithRunOnce overrides the single-poll step.
func WithRunOnce(runOnce func(context.Context) error) Option {
	return func(r *Runner) {
		r.runOnce = runOnce
	}
}

// WithDispatcher sets the dispatcher used by the default poll step.
func WithDispatcher(d Dispatcher) Option {
	return func(r *Runner) {
		r.dispatcher = d
	}
}

// WithTracker records polls for health endpoints.
func WithTracker(t *healthcheck.Tracker) Option {
	return func(r *Runner) {
		r.tracker = t
	}
}

// New constructs a Runner with the given logger and poll interval.
func New(logger zerolog.Logger, pollInterval time.Duration, opts ...Option) *Runner {
	r := &Runner{
		logger:       logger,
		pollInterval: pollInterval,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
	}
	r.runOnce = r.defaultRunOnce

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts the poll loop and blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if r.pollInterval <= 0 {
		return errors.New("poll interval must be greater than zero")
	}

	r.logger.Info().Dur("interval", r.pollInterval).Msg("delegate poller started")

	// Run immediately on startup
	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error().Err(err).Msg("initial delegate poll failed")
	}

	ticker := r.tickerFactory(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("delegate poller stopped")
			return nil
		case <-ticker.C():
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error().Err(err).Msg("delegate poll failed")
			}
		}
	}
}

// RunOnce executes a single poll.
func (r *Runner) RunOnce(ctx context.Context) error {
	err := r.runOnce(ctx)
	r.tracker.RecordPoll()
	return err
}

func (r *Runner) defaultRunOnce(ctx context.Context) error {
	if r.dispatcher == nil {
		return errors.New("no dispatcher configured")
	}

	result := r.dispatcher.Dispatch(ctx, event.Occurrence{
		Name:       event.ActiveDelegatesChanged,
		ReceivedAt: time.Now().UTC(),
	})
	if result.Suppressed == dispatch.ReasonTransformError {
		return errors.New("active delegate query failed")
	}

	r.logger.Debug().
		Str("suppressed", result.Suppressed).
		Int("sent", result.Sent).
		Msg("delegate poll completed")
	return nil
}
