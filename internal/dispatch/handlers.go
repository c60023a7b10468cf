package dispatch

import (
	"fmt"

	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/nholik/delegate-sentinel/internal/transform"
	"go.uber.org/multierr"
)

// Handlers maps each event name to its transform.
type Handlers map[event.Name]transform.Func

// NewHandlers registers the transform layer for every node event and
// delegateChanges for the synthetic active delegate event.
func NewHandlers(layer *transform.Layer, delegateChanges transform.Func) Handlers {
	handlers := make(Handlers, len(event.All()))
	for _, name := range event.All() {
		if name == event.ActiveDelegatesChanged {
			if delegateChanges != nil {
				handlers[name] = delegateChanges
			}
			continue
		}
		if layer == nil {
			continue
		}
		if fn, ok := layer.For(name); ok {
			handlers[name] = fn
		}
	}
	return handlers
}

// Validate reports every allow-listed event without a handler.
func (h Handlers) Validate() error {
	var err error
	for _, name := range event.All() {
		if h[name] == nil {
			err = multierr.Append(err, fmt.Errorf("no handler for %s", name))
		}
	}
	return err
}
