// Package delegates tracks the active delegate set and reports membership changes.
package delegates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nholik/delegate-sentinel/internal/chain"
	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/nholik/delegate-sentinel/internal/message"
	"github.com/nholik/delegate-sentinel/internal/metrics"
	"github.com/rs/zerolog"
)

// Diff captures membership changes between two active delegate sets.
type Diff struct {
	Added   []string
	Removed []string
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Engine holds the last notified active delegate set.
type Engine struct {
	logger  zerolog.Logger
	lister  chain.DelegateLister
	metrics *metrics.Metrics

	mu       sync.Mutex
	previous []string
}

// Option customizes engine construction.
type Option func(*config)

type config struct {
	backoff backoff.BackOff
	metrics *metrics.Metrics
}

// WithStartupBackOff overrides the retry policy of the initial baseline query.
func WithStartupBackOff(b backoff.BackOff) Option {
	return func(c *config) {
		c.backoff = b
	}
}

// WithMetrics records active delegate counts and changes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// New queries the lister once for the startup baseline, retrying until the node
// answers or ctx ends.
func New(ctx context.Context, lister chain.DelegateLister, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if lister == nil {
		return nil, errors.New("delegate lister is required")
	}

	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.backoff == nil {
		cfg.backoff = backoff.NewExponentialBackOff()
	}

	var baseline []string
	operation := func() error {
		current, err := lister.ActiveDelegates(ctx)
		if err != nil {
			return err
		}
		baseline = current
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn().Err(err).Dur("retry_in", wait).Msg("active delegate query failed")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(cfg.backoff, ctx), notify); err != nil {
		return nil, fmt.Errorf("initial active delegate query: %w", err)
	}

	engine := &Engine{
		logger:   logger,
		lister:   lister,
		metrics:  cfg.metrics,
		previous: clone(baseline),
	}
	engine.metrics.SetActiveDelegates(len(baseline))
	logger.Info().Int("active_delegates", len(baseline)).Msg("active delegate baseline loaded")

	return engine, nil
}

// ComputeDiff compares the current active set with the baseline. The baseline is
// replaced only when something changed.
func (e *Engine) ComputeDiff(ctx context.Context) (Diff, bool, error) {
	current, err := e.lister.ActiveDelegates(ctx)
	if err != nil {
		return Diff{}, false, fmt.Errorf("query active delegates: %w", err)
	}
	e.metrics.SetActiveDelegates(len(current))

	e.mu.Lock()
	change := diff(e.previous, current)
	if !change.Empty() {
		e.previous = clone(current)
	}
	e.mu.Unlock()

	if change.Empty() {
		e.logger.Debug().Int("active_delegates", len(current)).Msg("active delegates unchanged")
		return Diff{}, false, nil
	}

	e.metrics.IncDelegateChanges()
	e.logger.Info().
		Strs("added", change.Added).
		Strs("removed", change.Removed).
		Msg("active delegates changed")

	return change, true, nil
}

// Transform adapts ComputeDiff to the notification transform contract: it yields
// [added, removed] or nil when nothing changed.
func (e *Engine) Transform(ctx context.Context, _ event.Occurrence) (message.Args, error) {
	change, changed, err := e.ComputeDiff(ctx)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, nil
	}
	return message.Args{change.Added, change.Removed}, nil
}

// Baseline returns a copy of the last notified active set.
func (e *Engine) Baseline() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.previous)
}

// diff computes set differences, keeping added in current order and removed in
// previous order.
func diff(previous, current []string) Diff {
	prevSet := make(map[string]struct{}, len(previous))
	for _, name := range previous {
		prevSet[name] = struct{}{}
	}
	currSet := make(map[string]struct{}, len(current))
	for _, name := range current {
		currSet[name] = struct{}{}
	}

	var change Diff
	for _, name := range current {
		if _, ok := prevSet[name]; !ok {
			change.Added = append(change.Added, name)
			prevSet[name] = struct{}{}
		}
	}
	for _, name := range previous {
		if _, ok := currSet[name]; !ok {
			change.Removed = append(change.Removed, name)
			currSet[name] = struct{}{}
		}
	}
	return change
}

func clone(names []string) []string {
	if names == nil {
		return []string{}
	}
	return append([]string(nil), names...)
}
