package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gaswatch/internal/alerting"
	"gaswatch/internal/config"
	"gaswatch/internal/fetcher"
	"gaswatch/internal/history"
	"gaswatch/internal/model"
	"gaswatch/internal/storage"
)

// stubSource returns a canned sample per network, or an error for networks
// listed in fail.
type stubSource struct {
	samples map[string]model.GasSample
	fail    map[string]bool
	closed  bool
}

func (s *stubSource) Fetch(ctx context.Context, network string, cfg config.NetworkConfig) (model.GasSample, error) {
	if s.fail[network] {
		return model.GasSample{}, errors.New("endpoint unreachable")
	}
	sample, ok := s.samples[network]
	if !ok {
		return model.GasSample{}, errors.New("no canned sample")
	}
	return sample, nil
}

func (s *stubSource) Close() { s.closed = true }

type stubNotifier struct {
	batches [][]alerting.Event
	err     error
}

func (n *stubNotifier) Notify(ctx context.Context, events []alerting.Event) error {
	n.batches = append(n.batches, events)
	return n.err
}

type stubPersister struct {
	writes int
	closed bool
}

func (p *stubPersister) WriteSnapshot(ctx context.Context, snapshot map[string][]model.GasSample) error {
	p.writes++
	return nil
}

func (p *stubPersister) Close() { p.closed = true }

func testConfig(networks map[string]config.NetworkConfig) *config.Config {
	return &config.Config{
		Monitoring: config.MonitoringConfig{
			CheckInterval: 60 * time.Second,
			AlertCooldown: 300 * time.Second,
			Retention:     time.Hour,
			SaveInterval:  time.Hour,
		},
		Networks: networks,
	}
}

func cannedSample(network string, block uint64, baseFee float64, p25 float64) model.GasSample {
	return model.NewGasSample(network, time.Now(), block, decimal.NewFromFloat(baseFee),
		map[model.Percentile]decimal.Decimal{model.P25: decimal.NewFromFloat(p25)})
}

func newTestService(cfg *config.Config, source fetcher.FeeSource, notifier alerting.Notifier, persister *stubPersister, clock func() time.Time) *Service {
	store := history.New(cfg.NetworkKeys(), cfg.Monitoring.Retention, cfg.MaxHistoryEntries())
	tracker := alerting.NewTracker(cfg.Monitoring.AlertCooldown)
	var writer storage.SnapshotWriter
	if persister != nil {
		writer = persister
	}
	svc := New(cfg, nil, source, store, tracker, notifier, nil, writer, nil, zerolog.Nop())
	if clock != nil {
		svc.now = clock
	}
	return svc
}

func TestTickFiresAlertOnceWithinCooldown(t *testing.T) {
	cfg := testConfig(map[string]config.NetworkConfig{
		"testnet": {Name: "Testnet", Thresholds: map[string]float64{"low": 20}},
	})
	source := &stubSource{samples: map[string]model.GasSample{
		"testnet": cannedSample("testnet", 100, 10, 2),
	}}
	notifier := &stubNotifier{}

	current := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(cfg, source, notifier, nil, func() time.Time { return current })

	// First tick fires: total at p25 is 12, under the threshold of 20.
	if err := svc.Tick(context.Background(), current); err != nil {
		t.Fatal(err)
	}
	if len(notifier.batches) != 1 {
		t.Fatalf("batches after first tick = %d, want 1", len(notifier.batches))
	}
	if got := notifier.batches[0][0].Tier; got != model.TierLow {
		t.Fatalf("fired tier %s, want low", got)
	}

	// Still inside the cooldown: no new batch.
	current = current.Add(60 * time.Second)
	if err := svc.Tick(context.Background(), current); err != nil {
		t.Fatal(err)
	}
	if len(notifier.batches) != 1 {
		t.Fatalf("batches inside cooldown = %d, want 1", len(notifier.batches))
	}

	// Past the cooldown the alert fires again.
	current = current.Add(242 * time.Second)
	if err := svc.Tick(context.Background(), current); err != nil {
		t.Fatal(err)
	}
	if len(notifier.batches) != 2 {
		t.Fatalf("batches after cooldown = %d, want 2", len(notifier.batches))
	}
}

func TestTickDeliveryFailureKeepsCooldown(t *testing.T) {
	cfg := testConfig(map[string]config.NetworkConfig{
		"testnet": {Name: "Testnet", Thresholds: map[string]float64{"low": 20}},
	})
	source := &stubSource{samples: map[string]model.GasSample{
		"testnet": cannedSample("testnet", 100, 10, 2),
	}}
	notifier := &stubNotifier{err: errors.New("telegram down")}

	current := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(cfg, source, notifier, nil, func() time.Time { return current })

	if err := svc.Tick(context.Background(), current); err != nil {
		t.Fatal(err)
	}
	current = current.Add(60 * time.Second)
	if err := svc.Tick(context.Background(), current); err != nil {
		t.Fatal(err)
	}

	// Delivery failed both times it could have been attempted, but the
	// cooldown from the first fire still suppresses the second tick.
	if len(notifier.batches) != 1 {
		t.Fatalf("delivery attempts = %d, want 1", len(notifier.batches))
	}
}

func TestTickFailingNetworkDoesNotBlockOthers(t *testing.T) {
	cfg := testConfig(map[string]config.NetworkConfig{
		"healthy": {Name: "Healthy"},
		"broken":  {Name: "Broken"},
	})
	source := &stubSource{
		samples: map[string]model.GasSample{
			"healthy": cannedSample("healthy", 50, 10, 2),
		},
		fail: map[string]bool{"broken": true},
	}

	svc := newTestService(cfg, source, nil, nil, nil)
	if err := svc.Tick(context.Background(), time.Now()); err != nil {
		t.Fatal(err)
	}

	if svc.store.Len("healthy") != 1 {
		t.Fatal("healthy network sample was not recorded")
	}
	if svc.store.Len("broken") != 0 {
		t.Fatal("failing network must not record a sample")
	}
}

func TestTickHistoryAccumulates(t *testing.T) {
	cfg := testConfig(map[string]config.NetworkConfig{
		"testnet": {Name: "Testnet"},
	})
	source := &stubSource{samples: map[string]model.GasSample{
		"testnet": cannedSample("testnet", 100, 10, 2),
	}}

	svc := newTestService(cfg, source, nil, nil, nil)
	for i := 0; i < 3; i++ {
		sample := cannedSample("testnet", uint64(100+i), 10, 2)
		sample.Timestamp = time.Now().Add(time.Duration(i) * time.Minute)
		source.samples["testnet"] = sample
		if err := svc.Tick(context.Background(), time.Now()); err != nil {
			t.Fatal(err)
		}
	}

	if got := svc.store.Len("testnet"); got != 3 {
		t.Fatalf("history length = %d, want 3", got)
	}
}

func TestTickPersistsOnSaveInterval(t *testing.T) {
	cfg := testConfig(map[string]config.NetworkConfig{
		"testnet": {Name: "Testnet"},
	})
	cfg.Monitoring.SaveInterval = 5 * time.Minute
	source := &stubSource{samples: map[string]model.GasSample{
		"testnet": cannedSample("testnet", 100, 10, 2),
	}}
	persister := &stubPersister{}

	current := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(cfg, source, nil, persister, func() time.Time { return current })
	svc.lastSave = current

	// Inside the save interval: nothing written.
	current = current.Add(time.Minute)
	if err := svc.Tick(context.Background(), current); err != nil {
		t.Fatal(err)
	}
	if persister.writes != 0 {
		t.Fatalf("writes before save interval = %d, want 0", persister.writes)
	}

	// Past the save interval: one snapshot.
	current = current.Add(5 * time.Minute)
	if err := svc.Tick(context.Background(), current); err != nil {
		t.Fatal(err)
	}
	if persister.writes != 1 {
		t.Fatalf("writes after save interval = %d, want 1", persister.writes)
	}
}
