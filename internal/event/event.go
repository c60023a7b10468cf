// Package event defines the node events the service reacts to and the payload
// shapes it extracts notification fields from.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Name identifies a subscribable event.
type Name string

const (
	Vote                   Name = "wallet.vote"
	Unvote                 Name = "wallet.unvote"
	ForgerMissing          Name = "forger.missing"
	ForgerFailed           Name = "forger.failed"
	ForgerStarted          Name = "forger.started"
	BlockForged            Name = "block.forged"
	RoundCreated           Name = "round.created"
	DelegateRegistered     Name = "delegate.registered"
	DelegateResigned       Name = "delegate.resigned"
	ActiveDelegatesChanged Name = "activedelegates.changed"
)

// ErrUnknownEvent is returned when a name is not in the allow-list.
var ErrUnknownEvent = errors.New("unknown event")

var allNames = []Name{
	Vote,
	Unvote,
	ForgerMissing,
	ForgerFailed,
	ForgerStarted,
	BlockForged,
	RoundCreated,
	DelegateRegistered,
	DelegateResigned,
	ActiveDelegatesChanged,
}

// All returns the allow-list in a stable order.
func All() []Name {
	return append([]Name(nil), allNames...)
}

// Valid reports whether n is in the allow-list.
func (n Name) Valid() bool {
	for _, name := range allNames {
		if name == n {
			return true
		}
	}
	return false
}

// Synthetic reports whether n is derived by the service rather than emitted by the node.
func (n Name) Synthetic() bool {
	return n == ActiveDelegatesChanged
}

// Source returns the node event that triggers n.
func (n Name) Source() string {
	if n == ActiveDelegatesChanged {
		return string(RoundCreated)
	}
	return string(n)
}

// Parse validates a configured event name.
func Parse(value string) (Name, error) {
	name := Name(strings.TrimSpace(value))
	if !name.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, value)
	}
	return name, nil
}

// Occurrence is a single inbound event awaiting dispatch.
type Occurrence struct {
	Name       Name
	Data       json.RawMessage
	ReceivedAt time.Time
}
