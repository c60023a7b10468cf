// Package dispatch runs the per-event notification pipeline.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/nholik/delegate-sentinel/internal/healthcheck"
	"github.com/nholik/delegate-sentinel/internal/message"
	"github.com/nholik/delegate-sentinel/internal/metrics"
	"github.com/nholik/delegate-sentinel/internal/notify"
	"github.com/nholik/delegate-sentinel/internal/subscription"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// DefaultVotePause is the wait applied to vote events before their fan-out is
// awaited.
const DefaultVotePause = time.Second

// Suppression reasons reported in Result and metrics.
const (
	ReasonVoteSwitch     = "vote_switch"
	ReasonNoHandler      = "no_handler"
	ReasonTransformError = "transform_error"
	ReasonNoChange       = "no_change"
	ReasonNoTargets      = "no_targets"
)

// Result summarizes one dispatch.
type Result struct {
	Event      event.Name
	Targets    int
	Sent       int
	Failed     int
	Skipped    int
	Suppressed string
}

// Executor renders and delivers notifications for inbound events.
type Executor struct {
	logger     zerolog.Logger
	table      subscription.Table
	handlers   Handlers
	library    *message.Library
	poster     notify.Poster
	explorerTx string

	metrics   *metrics.Metrics
	tracker   *healthcheck.Tracker
	votePause time.Duration
	now       func() time.Time
}

// Option customizes an Executor.
type Option func(*Executor)

// WithVotePause overrides the pause applied to vote events.
func WithVotePause(d time.Duration) Option {
	return func(e *Executor) {
		if d >= 0 {
			e.votePause = d
		}
	}
}

// WithClock overrides the clock used to time dispatches.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics records dispatch metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithTracker records dispatch activity for health endpoints.
func WithTracker(t *healthcheck.Tracker) Option {
	return func(e *Executor) {
		e.tracker = t
	}
}

// New creates an Executor.
func New(
	logger zerolog.Logger,
	table subscription.Table,
	handlers Handlers,
	library *message.Library,
	poster notify.Poster,
	explorerTx string,
	opts ...Option,
) (*Executor, error) {
	if library == nil {
		return nil, errors.New("message library is required")
	}
	if poster == nil {
		return nil, errors.New("poster is required")
	}

	e := &Executor{
		logger:     logger,
		table:      table,
		handlers:   handlers,
		library:    library,
		poster:     poster,
		explorerTx: explorerTx,
		votePause:  DefaultVotePause,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Validate reports every allow-listed event without a handler.
func (e *Executor) Validate() error {
	return e.handlers.Validate()
}

type outcome struct {
	platform notify.Platform
	result   string
	err      error
}

// Dispatch runs the pipeline for one occurrence. Failures are logged and counted,
// never returned.
func (e *Executor) Dispatch(ctx context.Context, occurrence event.Occurrence) Result {
	name := occurrence.Name
	result := Result{Event: name}
	logger := e.logger.With().Str("event", string(name)).Logger()

	start := e.now()
	e.metrics.IncEvents(string(name))
	defer func() {
		duration := e.now().Sub(start)
		e.metrics.ObserveDispatchDuration(duration)
		e.tracker.RecordDispatch(duration)
	}()

	suppress := func(reason string) Result {
		result.Suppressed = reason
		e.metrics.IncSuppressed(string(name), reason)
		return result
	}

	if name == event.Unvote && isVoteSwitch(occurrence) {
		logger.Debug().Msg("unvote is part of a vote switch; reported by the vote event")
		return suppress(ReasonVoteSwitch)
	}

	handler, ok := e.handlers[name]
	if !ok {
		logger.Error().Msg("no handler registered for event")
		return suppress(ReasonNoHandler)
	}

	args, err := handler(ctx, occurrence)
	if err != nil {
		logger.Error().Err(err).Msg("failed to prepare notification")
		return suppress(ReasonTransformError)
	}
	if args == nil {
		return suppress(ReasonNoChange)
	}

	targets := e.table.Targets(name)
	if len(targets) == 0 {
		return suppress(ReasonNoTargets)
	}
	result.Targets = len(targets)

	outcomes := make([]outcome, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target subscription.Target) {
			defer wg.Done()
			outcomes[i] = e.deliver(ctx, logger, name, args, target)
		}(i, target)
	}

	if name == event.Vote && e.votePause > 0 {
		wait(ctx, e.votePause)
	}
	wg.Wait()

	var errs error
	for _, o := range outcomes {
		e.metrics.ObserveNotification(string(name), string(o.platform), o.result)
		switch o.result {
		case metrics.ResultSent:
			result.Sent++
		case metrics.ResultSkipped:
			result.Skipped++
		default:
			result.Failed++
			errs = multierr.Append(errs, o.err)
		}
	}

	if errs != nil {
		logger.Error().
			Err(errs).
			Int("failed", result.Failed).
			Int("targets", result.Targets).
			Msg("notification delivery failed")
	} else {
		logger.Info().
			Int("sent", result.Sent).
			Int("skipped", result.Skipped).
			Msg("notifications dispatched")
	}

	return result
}

func (e *Executor) deliver(ctx context.Context, logger zerolog.Logger, name event.Name, args message.Args, target subscription.Target) outcome {
	platform := notify.ResolvePlatform(target.Endpoint)
	o := outcome{platform: platform, result: metrics.ResultFailed}

	text, err := e.library.Render(platform, name, args, e.explorerTx)
	if err != nil {
		o.err = fmt.Errorf("%s: %w", target.Endpoint, err)
		return o
	}

	body, err := notify.EncodePayload(platform, target.Payload, text)
	if errors.Is(err, notify.ErrMissingCredentials) {
		logger.Error().
			Err(err).
			Str("endpoint", target.Endpoint).
			Str("platform", string(platform)).
			Msg("skipping webhook")
		o.result = metrics.ResultSkipped
		return o
	}
	if err != nil {
		o.err = fmt.Errorf("%s: %w", target.Endpoint, err)
		return o
	}

	if err := e.poster.Post(ctx, target.Endpoint, body); err != nil {
		o.err = fmt.Errorf("%s: %w", target.Endpoint, err)
		return o
	}

	logger.Debug().
		Str("endpoint", target.Endpoint).
		Str("platform", string(platform)).
		Msg("notification sent")
	o.result = metrics.ResultSent
	return o
}

// isVoteSwitch reports whether an unvote belongs to a transaction that also votes.
func isVoteSwitch(occurrence event.Occurrence) bool {
	payload, err := event.DecodeVote(occurrence.Data)
	if err != nil {
		return false
	}
	return len(payload.Transaction.Asset.Votes) > 1
}

func wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
