package subscription

import (
	"bytes"
	"testing"

	"github.com/nholik/delegate-sentinel/internal/config"
	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DropsUnknownEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	table := Build(logger, []config.Webhook{
		{Endpoint: "https://hooks.slack.com/services/a", Events: []string{"block.forged", "wallet.created", " forger.missing "}},
		{Endpoint: "https://example.com/hook", Events: []string{"bogus"}},
	})

	assert.Equal(t, []event.Name{event.BlockForged, event.ForgerMissing}, table.Names())
	assert.Equal(t, 2, table.Len())
	for _, name := range table.Names() {
		assert.True(t, name.Valid())
	}
	assert.Empty(t, table.Targets(event.Name("wallet.created")))
	assert.Contains(t, buf.String(), "wallet.created")
	assert.Contains(t, buf.String(), "bogus")
}

func TestBuild_PreservesConfigurationOrder(t *testing.T) {
	table := Build(zerolog.Nop(), []config.Webhook{
		{Endpoint: "https://first.example.com", Events: []string{"wallet.vote"}},
		{Endpoint: "https://second.example.com", Events: []string{"wallet.vote", "wallet.unvote"}},
	})

	targets := table.Targets(event.Vote)
	require.Len(t, targets, 2)
	assert.Equal(t, "https://first.example.com", targets[0].Endpoint)
	assert.Equal(t, "https://second.example.com", targets[1].Endpoint)
	assert.Len(t, table.Targets(event.Unvote), 1)
}

func TestTargets_ReturnsCopy(t *testing.T) {
	table := Build(zerolog.Nop(), []config.Webhook{
		{Endpoint: "https://a.example.com", Events: []string{"block.forged"}},
	})

	targets := table.Targets(event.BlockForged)
	targets[0].Endpoint = "mutated"

	assert.Equal(t, "https://a.example.com", table.Targets(event.BlockForged)[0].Endpoint)
}

func TestSources_MapsSyntheticEventToRound(t *testing.T) {
	table := Build(zerolog.Nop(), []config.Webhook{
		{Endpoint: "https://a.example.com", Events: []string{"activedelegates.changed", "round.created"}},
		{Endpoint: "https://b.example.com", Events: []string{"block.forged"}},
	})

	sources := table.Sources()
	assert.ElementsMatch(t,
		[]event.Name{event.ActiveDelegatesChanged, event.RoundCreated},
		sources[string(event.RoundCreated)])
	assert.Equal(t, []event.Name{event.BlockForged}, sources[string(event.BlockForged)])
	_, ok := sources[string(event.ActiveDelegatesChanged)]
	assert.False(t, ok)
}

func TestBuild_Empty(t *testing.T) {
	table := Build(zerolog.Nop(), nil)
	assert.Zero(t, table.Len())
	assert.Empty(t, table.Sources())
}
