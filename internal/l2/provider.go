// Package l2 estimates the L1 settlement surcharge layer-2 networks add on
// top of their execution fee.
package l2

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// TxProfile names a typical transaction shape used for surcharge estimates.
type TxProfile string

const (
	ProfileTransfer TxProfile = "transfer"
	ProfileSwap     TxProfile = "swap"
	ProfileNFTMint  TxProfile = "nft_mint"
)

// txBytes maps a profile to its typical calldata size in bytes.
var txBytes = map[TxProfile]int64{
	ProfileTransfer: 110,
	ProfileSwap:     180,
	ProfileNFTMint:  200,
}

// Surcharge carries the estimated fee components in Gwei.
type Surcharge struct {
	L1Fee decimal.Decimal
	L2Fee decimal.Decimal
}

// Provider estimates the surcharge for a network. A failing provider never
// fails the base sample; callers leave the surcharge fields unset instead.
type Provider interface {
	EstimateSurcharge(ctx context.Context, network string, profile TxProfile) (Surcharge, error)
	Close()
}

// kind distinguishes the two supported rollup fee models.
type kind int

const (
	kindUnknown kind = iota
	kindArbitrum
	kindOPStack
)

func networkKind(network string) kind {
	switch network {
	case "arbitrum":
		return kindArbitrum
	case "optimism", "base":
		return kindOPStack
	default:
		return kindUnknown
	}
}

// feeParams are the chain parameters both provider implementations feed into
// the shared estimate formulas.
type feeParams struct {
	l1GasPriceGwei decimal.Decimal // arbitrum model
	l1BaseFeeGwei  decimal.Decimal // op-stack model
	overhead       int64
	scalar         decimal.Decimal // already divided by 1e6
	l2GasPriceGwei decimal.Decimal
}

var oneBillion = decimal.NewFromInt(1_000_000_000)

// estimate applies the rollup-specific L1 data fee formula for a typical
// transaction of the given profile.
func estimate(k kind, params feeParams, profile TxProfile) (Surcharge, error) {
	size, ok := txBytes[profile]
	if !ok {
		size = txBytes[ProfileTransfer]
	}

	switch k {
	case kindArbitrum:
		// Calldata is charged at 16 L1 gas per byte plus a fixed overhead.
		l1GasUsed := decimal.NewFromInt(size*16 + 2000)
		return Surcharge{
			L1Fee: params.l1GasPriceGwei.Mul(l1GasUsed),
			L2Fee: params.l2GasPriceGwei,
		}, nil
	case kindOPStack:
		l1GasUsed := decimal.NewFromInt((size + params.overhead) * 12)
		l1Fee := params.l1BaseFeeGwei.Mul(l1GasUsed).Mul(params.scalar).Div(oneBillion)
		return Surcharge{
			L1Fee: l1Fee,
			L2Fee: params.l2GasPriceGwei,
		}, nil
	default:
		return Surcharge{}, fmt.Errorf("l2: no fee model for network kind %d", k)
	}
}
