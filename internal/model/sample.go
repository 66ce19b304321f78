package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Percentile identifies a position in the fee-history reward distribution.
type Percentile string

const (
	P10 Percentile = "p10"
	P25 Percentile = "p25"
	P50 Percentile = "p50"
	P75 Percentile = "p75"
	P90 Percentile = "p90"
)

// Percentiles returns the fixed percentile set in ascending order. The order
// matches the reward columns requested from eth_feeHistory.
func Percentiles() []Percentile {
	return []Percentile{P10, P25, P50, P75, P90}
}

// RewardPercentiles returns the numeric cut-points sent to eth_feeHistory.
func RewardPercentiles() []float64 {
	return []float64{10, 25, 50, 75, 90}
}

// Tier is a named alert severity bucket.
type Tier string

const (
	TierUltraLow  Tier = "ultra_low"
	TierLow       Tier = "low"
	TierMedium    Tier = "medium"
	TierHigh      Tier = "high"
	TierUltraHigh Tier = "ultra_high"
)

// Tiers returns all tiers in enumeration order, cheapest first.
func Tiers() []Tier {
	return []Tier{TierUltraLow, TierLow, TierMedium, TierHigh, TierUltraHigh}
}

var tierPercentiles = map[Tier]Percentile{
	TierUltraLow:  P10,
	TierLow:       P25,
	TierMedium:    P50,
	TierHigh:      P75,
	TierUltraHigh: P90,
}

// TierPercentile maps a tier to the percentile its threshold is evaluated
// against.
func TierPercentile(t Tier) (Percentile, bool) {
	p, ok := tierPercentiles[t]
	return p, ok
}

// ValidTier reports whether name is a known tier.
func ValidTier(name string) bool {
	_, ok := tierPercentiles[Tier(name)]
	return ok
}

// GasSample is one gas-fee observation for a single network. Samples are
// created once per successful fetch and never mutated afterwards.
type GasSample struct {
	Network      string                          `json:"network"`
	Timestamp    time.Time                       `json:"timestamp"`
	BlockNumber  uint64                          `json:"block_number"`
	BaseFee      decimal.Decimal                 `json:"base_fee"`
	PriorityFees map[Percentile]decimal.Decimal `json:"priority_fees"`
	TotalFees    map[Percentile]decimal.Decimal `json:"total_fees"`

	// Surcharge fields are populated by the L2 fee provider when available.
	L1Fee *decimal.Decimal `json:"l1_fee,omitempty"`
	L2Fee *decimal.Decimal `json:"l2_fee,omitempty"`
}

// NewGasSample builds a sample from a base fee and per-percentile priority
// fees. Total fees are derived as base + priority for every percentile
// present; the two maps always share the same key set.
func NewGasSample(network string, ts time.Time, block uint64, baseFee decimal.Decimal, priority map[Percentile]decimal.Decimal) GasSample {
	prio := make(map[Percentile]decimal.Decimal, len(priority))
	total := make(map[Percentile]decimal.Decimal, len(priority))
	for p, v := range priority {
		prio[p] = v
		total[p] = baseFee.Add(v)
	}
	return GasSample{
		Network:      network,
		Timestamp:    ts,
		BlockNumber:  block,
		BaseFee:      baseFee,
		PriorityFees: prio,
		TotalFees:    total,
	}
}

// FeeAt returns the total fee (base + priority) at a percentile.
func (s GasSample) FeeAt(p Percentile) (decimal.Decimal, bool) {
	v, ok := s.TotalFees[p]
	return v, ok
}

// PriorityAt returns the priority fee at a percentile.
func (s GasSample) PriorityAt(p Percentile) (decimal.Decimal, bool) {
	v, ok := s.PriorityFees[p]
	return v, ok
}

// WithSurcharge returns a copy of the sample carrying L2 surcharge estimates.
func (s GasSample) WithSurcharge(l1, l2 decimal.Decimal) GasSample {
	s.L1Fee = &l1
	s.L2Fee = &l2
	return s
}
