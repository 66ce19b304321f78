package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gaswatch/internal/alerting"
	"gaswatch/internal/charts"
	"gaswatch/internal/config"
	"gaswatch/internal/fetcher"
	"gaswatch/internal/history"
	"gaswatch/internal/l2"
	"gaswatch/internal/scheduler"
	"gaswatch/internal/service"
	"gaswatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFeeSource() *fetcher.Client {
	return fetcher.NewClient(fetcher.Options{
		RequestTimeout:  a.Config.RPC.RequestTimeout,
		MaxAttempts:     a.Config.RPC.MaxAttempts,
		BackoffBase:     a.Config.RPC.BackoffBase,
		MaxConnsPerHost: a.Config.RPC.MaxConnsPerHost,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Telegram.Enabled {
		return nil
	}
	cfg := a.Config.Telegram
	return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.ParseMode, cfg.Timeout, a.Logger)
}

func (a *App) newRenderer() service.ChartRenderer {
	if !a.Config.Charts.Enabled {
		return nil
	}
	return charts.NewRenderer(charts.Options{
		Directory: a.Config.Charts.Directory,
		Width:     a.Config.Charts.Width,
		Height:    a.Config.Charts.Height,
	}, a.Logger)
}

// newPersister prefers Postgres when a DSN is configured and falls back to
// the JSON snapshot file otherwise.
func (a *App) newPersister(ctx context.Context) (storage.SnapshotWriter, error) {
	if a.Config.Database.DSN != "" {
		pool, err := storage.NewPool(ctx, a.Config.Database)
		if err != nil {
			return nil, err
		}
		return storage.NewPostgresStore(pool, a.Logger), nil
	}
	if a.Config.Snapshot.Path == "" {
		return nil, nil
	}
	return storage.NewFileStore(a.Config.Snapshot.Path, a.Logger), nil
}

// newSurchargeProvider selects the live or static implementation at
// construction; nil when no network asks for L1 fee inclusion.
func (a *App) newSurchargeProvider() l2.Provider {
	endpoints := make(map[string]string)
	for key, enabled := range a.Config.L2.IncludeL1Fee {
		if !enabled {
			continue
		}
		net, ok := a.Config.Networks[key]
		if !ok || !net.IsL2 || len(net.RPCURLs) == 0 {
			continue
		}
		endpoints[key] = net.RPCURLs[0]
	}
	if len(endpoints) == 0 {
		return nil
	}

	if a.Config.L2.Mode == "static" {
		return l2.NewStatic(l2.StaticOptions{
			L1GasPriceGwei: decimal.NewFromFloat(a.Config.L2.L1GasPriceFallback),
			L2GasPriceGwei: decimal.NewFromFloat(a.Config.L2.L2GasPriceFallback),
		})
	}
	return l2.NewLive(l2.LiveOptions{
		Endpoints: endpoints,
		CacheTTL:  a.Config.L2.CacheTTL,
		Timeout:   a.Config.L2.RequestTimeout,
	}, a.Logger)
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	persister, err := a.newPersister(ctx)
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Monitoring.CheckInterval,
		StartupDelay: a.Config.Monitoring.StartupDelay,
	}, a.Logger)

	store := history.New(a.Config.NetworkKeys(), a.Config.Monitoring.Retention, a.Config.MaxHistoryEntries())
	tracker := alerting.NewTracker(a.Config.Monitoring.AlertCooldown)

	svc := service.New(
		a.Config,
		sched,
		a.newFeeSource(),
		store,
		tracker,
		a.newNotifier(),
		a.newRenderer(),
		persister,
		a.newSurchargeProvider(),
		a.Logger,
	)

	a.Logger.Info().
		Int("networks", len(a.Config.Networks)).
		Dur("check_interval", a.Config.Monitoring.CheckInterval).
		Msg("starting gas monitor")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("monitor terminated with error")
		return err
	}

	a.Logger.Info().Msg("gas monitor stopped")
	return nil
}
