package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewGasSampleDerivesTotals(t *testing.T) {
	base := decimal.NewFromFloat(10.5)
	priority := map[Percentile]decimal.Decimal{
		P10: decimal.NewFromFloat(0.5),
		P25: decimal.NewFromFloat(2),
		P75: decimal.NewFromFloat(7.25),
	}

	sample := NewGasSample("ethereum", time.Now(), 100, base, priority)

	if len(sample.TotalFees) != len(sample.PriorityFees) {
		t.Fatalf("priority and total fees must share a key set: %d vs %d", len(sample.PriorityFees), len(sample.TotalFees))
	}
	for tag, prio := range sample.PriorityFees {
		total, ok := sample.TotalFees[tag]
		if !ok {
			t.Fatalf("total fee missing for %s", tag)
		}
		if !total.Equal(base.Add(prio)) {
			t.Fatalf("total at %s = %s, want %s", tag, total, base.Add(prio))
		}
	}
}

func TestNewGasSampleCopiesInput(t *testing.T) {
	priority := map[Percentile]decimal.Decimal{P50: decimal.NewFromInt(1)}
	sample := NewGasSample("ethereum", time.Now(), 1, decimal.NewFromInt(10), priority)

	priority[P50] = decimal.NewFromInt(999)

	if v, _ := sample.PriorityAt(P50); !v.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("sample must not share the caller's map, got %s", v)
	}
}

func TestFeeAtMissingPercentile(t *testing.T) {
	sample := NewGasSample("ethereum", time.Now(), 1, decimal.NewFromInt(10), nil)
	if _, ok := sample.FeeAt(P90); ok {
		t.Fatal("FeeAt must report missing percentiles")
	}
}

func TestTierPercentileMapping(t *testing.T) {
	want := map[Tier]Percentile{
		TierUltraLow:  P10,
		TierLow:       P25,
		TierMedium:    P50,
		TierHigh:      P75,
		TierUltraHigh: P90,
	}
	for tier, percentile := range want {
		got, ok := TierPercentile(tier)
		if !ok || got != percentile {
			t.Fatalf("TierPercentile(%s) = %s, want %s", tier, got, percentile)
		}
	}
	if _, ok := TierPercentile(Tier("bogus")); ok {
		t.Fatal("unknown tier must not map to a percentile")
	}
}

func TestWithSurchargeLeavesOriginalUnset(t *testing.T) {
	sample := NewGasSample("arbitrum", time.Now(), 1, decimal.NewFromInt(1), nil)
	withFees := sample.WithSurcharge(decimal.NewFromInt(5), decimal.NewFromFloat(0.1))

	if sample.L1Fee != nil || sample.L2Fee != nil {
		t.Fatal("WithSurcharge must not mutate the receiver")
	}
	if withFees.L1Fee == nil || !withFees.L1Fee.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected l1 fee: %v", withFees.L1Fee)
	}
}
