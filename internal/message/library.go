// Package message renders notification text for each platform.
package message

import (
	"fmt"

	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/nholik/delegate-sentinel/internal/notify"
	"go.uber.org/multierr"
)

const defaultSymbol = "ARK"

// Library maps (platform, event name) to a template.
type Library struct {
	sets   map[notify.Platform]Set
	symbol string
}

// Option customizes a Library.
type Option func(*Library)

// WithSymbol sets the token symbol appended to balances.
func WithSymbol(symbol string) Option {
	return func(l *Library) {
		if symbol != "" {
			l.symbol = symbol
		}
	}
}

// NewLibrary builds the template sets for every platform. Push targets have no
// markup of their own and share the fallback set.
func NewLibrary(opts ...Option) *Library {
	l := &Library{symbol: defaultSymbol}
	for _, opt := range opts {
		opt(l)
	}

	plain := buildSet(plainStyle, l.symbol)
	l.sets = map[notify.Platform]Set{
		notify.PlatformSlack:    buildSet(slackStyle, l.symbol),
		notify.PlatformDiscord:  buildSet(discordStyle, l.symbol),
		notify.PlatformPush:     plain,
		notify.PlatformFallback: plain,
	}
	return l
}

// Validate reports every (platform, event) pair without a template.
func (l *Library) Validate() error {
	var err error
	for _, platform := range notify.Platforms() {
		set, ok := l.sets[platform]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("platform %s has no templates", platform))
			continue
		}
		for _, name := range event.All() {
			if _, ok := arity[name]; !ok {
				err = multierr.Append(err, fmt.Errorf("no argument count for %s", name))
			}
			if set[name] == nil {
				err = multierr.Append(err, fmt.Errorf("platform %s has no template for %s", platform, name))
			}
		}
	}
	return err
}

// Render formats args for the platform, appending explorerTx as the trailing argument.
func (l *Library) Render(platform notify.Platform, name event.Name, args Args, explorerTx string) (string, error) {
	set, ok := l.sets[platform]
	if !ok {
		return "", fmt.Errorf("no templates for platform %s", platform)
	}
	tmpl, ok := set[name]
	if !ok {
		return "", fmt.Errorf("no %s template for %s", platform, name)
	}

	if want, ok := arity[name]; !ok || len(args) != want {
		return "", fmt.Errorf("render %s for %s: expected %d arguments, got %d", name, platform, want, len(args))
	}

	full := make(Args, 0, len(args)+1)
	full = append(full, args...)
	full = append(full, explorerTx)

	text, err := tmpl(full)
	if err != nil {
		return "", fmt.Errorf("render %s for %s: %w", name, platform, err)
	}
	return text, nil
}
