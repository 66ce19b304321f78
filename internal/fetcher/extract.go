package fetcher

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gaswatch/internal/model"
)

// smoothingWindow is the number of trailing base-fee blocks the median
// smoothing runs over.
const smoothingWindow = 5

var two = decimal.NewFromInt(2)

// Extract converts a raw fee-history response into a gas sample.
//
// The base fee is the median of the last five returned per-block base fees,
// which flattens single-block spikes. Priority fees come from the most recent
// block's reward row only, one value per requested percentile. The sample's
// block number points at the newest sampled block: oldest block plus the
// number of reward rows.
func Extract(network string, raw *FeeHistoryResult, now time.Time) (model.GasSample, error) {
	if raw == nil {
		return model.GasSample{}, &ParseError{Network: network, Reason: "empty response"}
	}
	if len(raw.BaseFeePerGas) == 0 {
		return model.GasSample{}, &ParseError{Network: network, Reason: "missing baseFeePerGas"}
	}
	if len(raw.Reward) == 0 {
		return model.GasSample{}, &ParseError{Network: network, Reason: "missing reward rows"}
	}

	window := raw.BaseFeePerGas
	if len(window) > smoothingWindow {
		window = window[len(window)-smoothingWindow:]
	}
	baseFees := make([]decimal.Decimal, 0, len(window))
	for _, hexFee := range window {
		fee, err := hexToGwei(hexFee)
		if err != nil {
			return model.GasSample{}, &ParseError{Network: network, Reason: "bad base fee value", Err: err}
		}
		baseFees = append(baseFees, fee)
	}
	baseFee := median(baseFees)

	lastRow := raw.Reward[len(raw.Reward)-1]
	if len(lastRow) == 0 {
		return model.GasSample{}, &ParseError{Network: network, Reason: "empty reward row"}
	}

	priority := make(map[model.Percentile]decimal.Decimal)
	for i, tag := range model.Percentiles() {
		if i >= len(lastRow) {
			break
		}
		fee, err := hexToGwei(lastRow[i])
		if err != nil {
			return model.GasSample{}, &ParseError{Network: network, Reason: fmt.Sprintf("bad reward value at %s", tag), Err: err}
		}
		priority[tag] = fee
	}

	oldest, err := hexToUint64(raw.OldestBlock)
	if err != nil {
		return model.GasSample{}, &ParseError{Network: network, Reason: "bad oldestBlock", Err: err}
	}
	blockNumber := oldest + uint64(len(raw.Reward))

	return model.NewGasSample(network, now, blockNumber, baseFee, priority), nil
}

// hexToGwei converts a hex-encoded wei quantity to Gwei.
func hexToGwei(hexValue string) (decimal.Decimal, error) {
	wei, err := parseHexBig(hexValue)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromBigInt(wei, -9), nil
}

func hexToUint64(hexValue string) (uint64, error) {
	v, err := parseHexBig(hexValue)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("value %s out of range", hexValue)
	}
	return v.Uint64(), nil
}

func parseHexBig(hexValue string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hexValue), "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("empty hex value")
	}
	v, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex value %q", hexValue)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %q", hexValue)
	}
	return v, nil
}

// median returns the median of values; for an even count it averages the two
// middle values.
func median(values []decimal.Decimal) decimal.Decimal {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(two)
}
