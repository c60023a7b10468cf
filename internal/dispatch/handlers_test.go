package dispatch

import (
	"context"
	"testing"

	"github.com/nholik/delegate-sentinel/internal/chain"
	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/nholik/delegate-sentinel/internal/message"
	"github.com/nholik/delegate-sentinel/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandlers_CoversAllowList(t *testing.T) {
	layer, err := transform.New(testWallets, chain.StaticHost("node-1"))
	require.NoError(t, err)
	diff := func(context.Context, event.Occurrence) (message.Args, error) { return nil, nil }

	handlers := NewHandlers(layer, diff)

	require.NoError(t, handlers.Validate())
	assert.Len(t, handlers, len(event.All()))
}

func TestNewHandlers_ReportsMissing(t *testing.T) {
	layer, err := transform.New(testWallets, chain.StaticHost("node-1"))
	require.NoError(t, err)

	err = NewHandlers(layer, nil).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(event.ActiveDelegatesChanged))

	err = NewHandlers(nil, nil).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(event.BlockForged))
}
