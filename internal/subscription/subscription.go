// Package subscription maps event names to the webhooks subscribed to them.
package subscription

import (
	"github.com/nholik/delegate-sentinel/internal/config"
	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/rs/zerolog"
)

// Target is one webhook receiving an event.
type Target struct {
	Endpoint string
	Payload  config.PayloadSchema
}

// Table is the read-only subscription table built at startup.
type Table struct {
	targets map[event.Name][]Target
	order   []event.Name
}

// Build creates the subscription table. Event names outside the allow-list are
// logged and skipped; targets keep configuration order.
func Build(logger zerolog.Logger, webhooks []config.Webhook) Table {
	table := Table{targets: make(map[event.Name][]Target)}

	for _, webhook := range webhooks {
		target := Target{Endpoint: webhook.Endpoint, Payload: webhook.Payload}
		for _, raw := range webhook.Events {
			name, err := event.Parse(raw)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("endpoint", webhook.Endpoint).
					Str("event", raw).
					Msg("ignoring subscription to unknown event")
				continue
			}
			if _, ok := table.targets[name]; !ok {
				table.order = append(table.order, name)
			}
			table.targets[name] = append(table.targets[name], target)
		}
	}

	logger.Info().
		Int("events", len(table.order)).
		Int("webhooks", len(webhooks)).
		Msg("subscriptions loaded")

	return table
}

// Targets returns a copy of the targets subscribed to name.
func (t Table) Targets(name event.Name) []Target {
	targets := t.targets[name]
	if len(targets) == 0 {
		return nil
	}
	return append([]Target(nil), targets...)
}

// Names returns the subscribed event names in first-seen order.
func (t Table) Names() []event.Name {
	return append([]event.Name(nil), t.order...)
}

// Sources maps each bus event name to the subscribed names it triggers.
func (t Table) Sources() map[string][]event.Name {
	sources := make(map[string][]event.Name, len(t.order))
	for _, name := range t.order {
		source := string(name.Source())
		sources[source] = append(sources[source], name)
	}
	return sources
}

// Len returns the number of subscribed event names.
func (t Table) Len() int {
	return len(t.order)
}
