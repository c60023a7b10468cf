package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// NoopPoster drops payloads.
type NoopPoster struct{}

// NewNoop returns a poster that logs the reason once and does nothing thereafter.
func NewNoop(logger zerolog.Logger, reason string) *NoopPoster {
	if reason != "" {
		logger.Info().Msg(reason)
	}
	return &NoopPoster{}
}

// Post implements Poster.
func (p *NoopPoster) Post(context.Context, string, []byte) error {
	return nil
}
