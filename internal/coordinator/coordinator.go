package coordinator

import (
	"context"
	"sync"

	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/nholik/delegate-sentinel/internal/eventbus"
	"github.com/nholik/delegate-sentinel/internal/runner"
	"github.com/rs/zerolog"
)

const defaultBuffer = 256

// Coordinator listens on the event bus and dispatches every subscribed event in
// its own goroutine. It optionally drives the delegate poller.
type Coordinator struct {
	logger     zerolog.Logger
	bus        eventbus.Bus
	dispatcher runner.Dispatcher
	sources    map[string][]event.Name
	poller     *runner.Runner
	buffer     int

	inflight sync.WaitGroup
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithPoller runs r alongside the bus listener.
func WithPoller(r *runner.Runner) Option {
	return func(c *Coordinator) {
		c.poller = r
	}
}

// WithBuffer sets the bus subscription buffer.
func WithBuffer(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// New constructs a Coordinator. sources maps bus event names to the subscribed
// names they trigger.
func New(logger zerolog.Logger, bus eventbus.Bus, dispatcher runner.Dispatcher, sources map[string][]event.Name, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:     logger,
		bus:        bus,
		dispatcher: dispatcher,
		sources:    sources,
		buffer:     defaultBuffer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run blocks until ctx is canceled, then waits for in-flight dispatches.
func (c *Coordinator) Run(ctx context.Context) error {
	// A nil channel never receives: with no subscriptions only the poller runs.
	var events <-chan eventbus.Event
	if len(c.sources) > 0 {
		names := make([]string, 0, len(c.sources))
		for source := range c.sources {
			names = append(names, source)
		}
		ch, unsubscribe := c.bus.Subscribe(c.buffer, names...)
		defer unsubscribe()
		events = ch
	}

	c.logger.Info().
		Int("sources", len(c.sources)).
		Bool("poller", c.poller != nil).
		Msg("starting coordinator")

	var pollerDone sync.WaitGroup
	if c.poller != nil {
		pollerDone.Add(1)
		go func() {
			defer pollerDone.Done()
			if err := c.poller.Run(ctx); err != nil {
				c.logger.Error().Err(err).Msg("delegate poller exited with error")
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			pollerDone.Wait()
			c.inflight.Wait()
			c.logger.Info().Msg("coordinator stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				pollerDone.Wait()
				c.inflight.Wait()
				return nil
			}
			c.handle(ctx, ev)
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, ev eventbus.Event) {
	names := c.sources[ev.Name]
	if len(names) == 0 {
		c.logger.Debug().Str("event", ev.Name).Msg("no subscriptions for event")
		return
	}

	// In-flight deliveries finish after shutdown starts.
	dispatchCtx := context.WithoutCancel(ctx)
	for _, name := range names {
		occurrence := event.Occurrence{Name: name, Data: ev.Data, ReceivedAt: ev.Time}
		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			c.dispatcher.Dispatch(dispatchCtx, occurrence)
		}()
	}
}
