package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// DryRunPoster logs payloads without sending them.
type DryRunPoster struct {
	logger zerolog.Logger
}

// NewDryRunPoster returns a poster that suppresses delivery and logs instead.
func NewDryRunPoster(logger zerolog.Logger) *DryRunPoster {
	return &DryRunPoster{logger: logger}
}

// Post implements Poster.
func (p *DryRunPoster) Post(_ context.Context, endpoint string, body []byte) error {
	p.logger.Info().
		Str("endpoint", endpoint).
		RawJSON("payload", body).
		Msg("[DRY-RUN] Would notify")
	return nil
}
