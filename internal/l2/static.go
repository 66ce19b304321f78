package l2

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// StaticOptions hold the typical fee parameters used when live contract
// reads are not wanted or not possible.
type StaticOptions struct {
	L1GasPriceGwei decimal.Decimal
	L2GasPriceGwei decimal.Decimal
}

// Static estimates surcharges from configured typical values instead of
// on-chain reads. Selected at construction when l2.mode is "static".
type Static struct {
	opts StaticOptions
}

// NewStatic constructs the static-estimate provider.
func NewStatic(opts StaticOptions) *Static {
	if opts.L1GasPriceGwei.IsZero() {
		opts.L1GasPriceGwei = decimal.NewFromInt(20)
	}
	if opts.L2GasPriceGwei.IsZero() {
		opts.L2GasPriceGwei = decimal.NewFromFloat(0.02)
	}
	return &Static{opts: opts}
}

// EstimateSurcharge applies the same fee model as the live provider with the
// configured typical parameters.
func (s *Static) EstimateSurcharge(_ context.Context, network string, profile TxProfile) (Surcharge, error) {
	k := networkKind(network)
	if k == kindUnknown {
		return Surcharge{}, fmt.Errorf("l2: unsupported network %q", network)
	}

	params := feeParams{
		l1GasPriceGwei: s.opts.L1GasPriceGwei,
		l1BaseFeeGwei:  s.opts.L1GasPriceGwei,
		overhead:       2100,
		scalar:         decimal.NewFromFloat(0.684),
		l2GasPriceGwei: s.opts.L2GasPriceGwei,
	}
	return estimate(k, params, profile)
}

// Close is a no-op for the static provider.
func (s *Static) Close() {}

var _ Provider = (*Static)(nil)
