package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gaswatch/internal/model"
)

func TestWriteSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "history.json")
	store := NewFileStore(path, zerolog.Nop())

	sample := model.NewGasSample("ethereum", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 1000,
		decimal.NewFromInt(10), map[model.Percentile]decimal.Decimal{
			model.P25: decimal.NewFromInt(2),
			model.P75: decimal.NewFromInt(5),
		})
	snapshot := map[string][]model.GasSample{
		"ethereum": {sample},
		"polygon":  nil,
	}

	if err := store.WriteSnapshot(context.Background(), snapshot); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var restored map[string][]model.GasSample
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatal(err)
	}

	got := restored["ethereum"]
	if len(got) != 1 {
		t.Fatalf("restored %d samples, want 1", len(got))
	}
	if got[0].BlockNumber != 1000 {
		t.Errorf("block = %d, want 1000", got[0].BlockNumber)
	}
	if !got[0].BaseFee.Equal(sample.BaseFee) {
		t.Errorf("base fee = %s, want %s", got[0].BaseFee, sample.BaseFee)
	}
	if !got[0].TotalFees[model.P25].Equal(decimal.NewFromInt(12)) {
		t.Errorf("p25 total = %s, want 12", got[0].TotalFees[model.P25])
	}
}

func TestWriteSnapshotReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewFileStore(path, zerolog.Nop())

	first := map[string][]model.GasSample{"ethereum": {
		model.NewGasSample("ethereum", time.Now(), 1, decimal.NewFromInt(1), nil),
	}}
	second := map[string][]model.GasSample{"ethereum": {
		model.NewGasSample("ethereum", time.Now(), 2, decimal.NewFromInt(2), nil),
	}}

	if err := store.WriteSnapshot(context.Background(), first); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteSnapshot(context.Background(), second); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var restored map[string][]model.GasSample
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatal(err)
	}
	if restored["ethereum"][0].BlockNumber != 2 {
		t.Fatal("snapshot file must reflect the latest write")
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file must not survive a successful write")
	}
}

func TestWriteSnapshotCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewFileStore(path, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.WriteSnapshot(ctx, nil); err == nil {
		t.Fatal("cancelled context must abort the write")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("no file may be written after cancellation")
	}
}
