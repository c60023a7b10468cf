package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nholik/delegate-sentinel/internal/chain"
	"github.com/nholik/delegate-sentinel/internal/config"
	"github.com/nholik/delegate-sentinel/internal/coordinator"
	"github.com/nholik/delegate-sentinel/internal/delegates"
	"github.com/nholik/delegate-sentinel/internal/dispatch"
	"github.com/nholik/delegate-sentinel/internal/eventbus"
	"github.com/nholik/delegate-sentinel/internal/healthcheck"
	"github.com/nholik/delegate-sentinel/internal/logging"
	"github.com/nholik/delegate-sentinel/internal/message"
	"github.com/nholik/delegate-sentinel/internal/metrics"
	"github.com/nholik/delegate-sentinel/internal/notify"
	"github.com/nholik/delegate-sentinel/internal/runner"
	"github.com/nholik/delegate-sentinel/internal/server"
	"github.com/nholik/delegate-sentinel/internal/subscription"
	"github.com/nholik/delegate-sentinel/internal/transform"
	"github.com/rs/zerolog"
)

const nodeAPITimeout = 10 * time.Second

func main() {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger = logging.NewWithLevel(cfg.LogLevel).With().Str("host", cfg.HostID).Logger()
	logger.Info().Msg("delegate-sentinel starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Fatal().Err(err).Msg("delegate-sentinel failed")
	}
	logger.Info().Msg("delegate-sentinel stopped")
}

func run(ctx context.Context, logger zerolog.Logger, cfg config.Config) error {
	webhooks, err := config.LoadWebhookFile(cfg.WebhooksFile)
	if err != nil {
		return err
	}

	library := message.NewLibrary(message.WithSymbol(cfg.TokenSymbol))
	if err := library.Validate(); err != nil {
		return err
	}

	table := subscription.Build(logger, webhooks.Webhooks)
	collector := metrics.New()
	tracker := healthcheck.NewTracker()

	server.Start(ctx, logger, cfg.DelegatePollInterval, tracker, collector, cfg.HealthPort, cfg.MetricsPort)

	client, err := chain.NewAPIClient(cfg.NodeAPIURL, cfg.ActiveDelegates, nodeAPITimeout)
	if err != nil {
		return err
	}

	engine, err := delegates.New(ctx, client, logger.With().Str("component", "delegates").Logger(),
		delegates.WithMetrics(collector))
	if err != nil {
		return err
	}
	tracker.SetReady(len(engine.Baseline()))

	layer, err := transform.New(client, chain.StaticHost(cfg.HostID))
	if err != nil {
		return err
	}

	executor, err := dispatch.New(
		logger.With().Str("component", "dispatch").Logger(),
		table,
		dispatch.NewHandlers(layer, engine.Transform),
		library,
		newPoster(logger, cfg, table),
		webhooks.ExplorerTx,
		dispatch.WithMetrics(collector),
		dispatch.WithTracker(tracker),
	)
	if err != nil {
		return err
	}
	if err := executor.Validate(); err != nil {
		return err
	}

	bus := eventbus.New()
	var eventsOpts []server.EventsOption
	if cfg.EventsToken != "" {
		eventsOpts = append(eventsOpts, server.WithToken(cfg.EventsToken))
	}
	server.StartEvents(ctx, logger, server.NewEventsHandler(logger, bus, eventsOpts...), cfg.EventsPort)

	var coordOpts []coordinator.Option
	if cfg.DelegatePollInterval > 0 {
		poller := runner.New(
			logger.With().Str("component", "poller").Logger(),
			cfg.DelegatePollInterval,
			runner.WithDispatcher(executor),
			runner.WithTracker(tracker),
		)
		coordOpts = append(coordOpts, coordinator.WithPoller(poller))
	}

	return coordinator.New(logger, bus, executor, table.Sources(), coordOpts...).Run(ctx)
}

func newPoster(logger zerolog.Logger, cfg config.Config, table subscription.Table) notify.Poster {
	switch {
	case table.Len() == 0:
		return notify.NewNoop(logger, "no valid event subscriptions configured")
	case cfg.DryRun:
		return notify.NewDryRunPoster(logger)
	default:
		return notify.NewHTTPPoster(logger)
	}
}
