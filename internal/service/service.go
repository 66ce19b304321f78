package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gaswatch/internal/alerting"
	"gaswatch/internal/config"
	"gaswatch/internal/fetcher"
	"gaswatch/internal/history"
	"gaswatch/internal/l2"
	"gaswatch/internal/model"
	"gaswatch/internal/scheduler"
	"gaswatch/internal/storage"
)

// ChartRenderer is the chart collaborator. It receives windows that are
// already time-ordered and pruned to the retention period.
type ChartRenderer interface {
	Render(network, displayName string, samples []model.GasSample) error
}

// Service orchestrates the per-tick fan-out: fetch, extract, history update,
// alert evaluation, and the slower chart/persistence cadences.
type Service struct {
	cfg       *config.Config
	scheduler *scheduler.Scheduler
	source    fetcher.FeeSource
	store     *history.Store
	tracker   *alerting.Tracker
	notifier  alerting.Notifier
	charts    ChartRenderer
	persister storage.SnapshotWriter
	surcharge l2.Provider
	logger    zerolog.Logger

	networkKeys []string
	iteration   int
	lastChart   time.Time
	lastSave    time.Time

	now func() time.Time
}

// New constructs the monitoring service. Notifier, charts, persister and
// surcharge provider may be nil; the corresponding side-effects are skipped.
func New(cfg *config.Config, sched *scheduler.Scheduler, source fetcher.FeeSource, store *history.Store, tracker *alerting.Tracker, notifier alerting.Notifier, renderer ChartRenderer, persister storage.SnapshotWriter, surcharge l2.Provider, logger zerolog.Logger) *Service {
	return &Service{
		cfg:         cfg,
		scheduler:   sched,
		source:      source,
		store:       store,
		tracker:     tracker,
		notifier:    notifier,
		charts:      renderer,
		persister:   persister,
		surcharge:   surcharge,
		logger:      logger.With().Str("component", "service").Logger(),
		networkKeys: cfg.NetworkKeys(),
		now:         time.Now,
	}
}

// Run drives the sampling loop until ctx is cancelled, then flushes one final
// snapshot and releases the fee source's connections.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}

	defer func() {
		s.flush()
		s.source.Close()
		if s.persister != nil {
			s.persister.Close()
		}
		if s.surcharge != nil {
			s.surcharge.Close()
		}
	}()

	return s.scheduler.Run(ctx, s.Tick)
}

// Tick runs one iteration: one concurrent task per network, then the chart
// and persistence cadences. A failing network degrades to "no sample this
// tick" and never aborts the others.
func (s *Service) Tick(ctx context.Context, start time.Time) error {
	s.iteration++

	var wg sync.WaitGroup
	results := make([]bool, len(s.networkKeys))
	for i, key := range s.networkKeys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			results[i] = s.processNetwork(ctx, key)
		}(i, key)
	}
	wg.Wait()

	successful := 0
	for _, ok := range results {
		if ok {
			successful++
		}
	}
	s.logger.Info().
		Int("iteration", s.iteration).
		Int("successful", successful).
		Int("total", len(s.networkKeys)).
		Msg("iteration complete")

	now := s.now()
	if s.charts != nil && now.Sub(s.lastChart) >= s.cfg.Charts.UpdateInterval {
		s.renderCharts()
		s.lastChart = now
	}
	if s.persister != nil && now.Sub(s.lastSave) >= s.cfg.Monitoring.SaveInterval {
		if err := s.persister.WriteSnapshot(ctx, s.store.Snapshot()); err != nil {
			s.logger.Error().Err(err).Msg("failed to persist history snapshot")
		}
		s.lastSave = now
	}

	return nil
}

// processNetwork runs the strictly sequential per-network pipeline:
// fetch -> extract -> surcharge -> append+prune -> alert check.
func (s *Service) processNetwork(ctx context.Context, key string) bool {
	net, ok := s.cfg.Networks[key]
	if !ok {
		return false
	}

	sample, err := s.source.Fetch(ctx, key, net)
	if err != nil {
		s.logger.Warn().Err(err).Str("network", key).Msg("no sample this tick")
		return false
	}

	sample = s.applySurcharge(ctx, key, net, sample)

	if err := s.store.Append(sample); err != nil {
		s.logger.Error().Err(err).Str("network", key).Msg("failed to record sample")
		return false
	}

	s.logSample(net, sample)
	s.checkAlerts(ctx, key, net, sample)
	return true
}

// applySurcharge opportunistically attaches L2 fee estimates. Failures leave
// the sample unchanged.
func (s *Service) applySurcharge(ctx context.Context, key string, net config.NetworkConfig, sample model.GasSample) model.GasSample {
	if s.surcharge == nil || !net.IsL2 || !s.cfg.L2.IncludeL1Fee[key] {
		return sample
	}

	surcharge, err := s.surcharge.EstimateSurcharge(ctx, key, l2.ProfileTransfer)
	if err != nil {
		s.logger.Warn().Err(err).Str("network", key).Msg("surcharge estimate unavailable")
		return sample
	}
	return sample.WithSurcharge(surcharge.L1Fee, surcharge.L2Fee)
}

func (s *Service) logSample(net config.NetworkConfig, sample model.GasSample) {
	event := s.logger.Info().
		Str("network", net.Name).
		Uint64("block", sample.BlockNumber).
		Str("base", sample.BaseFee.StringFixed(2))
	if safe, ok := sample.FeeAt(model.P25); ok {
		event = event.Str("safe", safe.StringFixed(2))
	}
	if fast, ok := sample.FeeAt(model.P75); ok {
		event = event.Str("fast", fast.StringFixed(2))
	}
	event.Msg("gas sample recorded")
}

// checkAlerts evaluates the tier thresholds and dispatches any fired events
// as one consolidated batch. Delivery failure is logged and does not roll
// back the cooldown transition.
func (s *Service) checkAlerts(ctx context.Context, key string, net config.NetworkConfig, sample model.GasSample) {
	events := alerting.Evaluate(sample, key, net, s.tracker, s.now())
	if len(events) == 0 || s.notifier == nil {
		return
	}

	if err := s.notifier.Notify(ctx, events); err != nil {
		s.logger.Error().Err(err).Str("network", key).Int("tiers", len(events)).Msg("failed to dispatch alert")
	}
}

func (s *Service) renderCharts() {
	for _, key := range s.networkKeys {
		window := s.store.Window(key)
		if len(window) == 0 {
			continue
		}
		if err := s.charts.Render(key, s.cfg.Networks[key].Name, window); err != nil {
			s.logger.Error().Err(err).Str("network", key).Msg("failed to render chart")
		}
	}
}

// flush writes a final snapshot during shutdown with a short grace period.
func (s *Service) flush() {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.persister.WriteSnapshot(ctx, s.store.Snapshot()); err != nil {
		s.logger.Error().Err(err).Msg("failed to flush history snapshot")
	}
}
