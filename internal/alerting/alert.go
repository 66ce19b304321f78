// Package alerting decides when threshold crossings fire and delivers them.
package alerting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gaswatch/internal/model"
)

// Event is one fired threshold crossing.
type Event struct {
	Network     string
	NetworkName string
	Tier        model.Tier
	Percentile  model.Percentile
	Value       decimal.Decimal
	Threshold   decimal.Decimal
	BaseFee     decimal.Decimal
	Priority    decimal.Decimal
	BlockNumber uint64
	ExplorerURL string
	Timestamp   time.Time
}

// ExplorerLink builds the block link for the event's network explorer, or ""
// when no explorer is configured.
func (e Event) ExplorerLink() string {
	if e.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/block/%d", strings.TrimRight(e.ExplorerURL, "/"), e.BlockNumber)
}

// TierLabel is the human-readable tier name ("ultra_low" -> "Ultra Low").
func TierLabel(t model.Tier) string {
	parts := strings.Split(string(t), "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

var tierEmoji = map[model.Tier]string{
	model.TierUltraLow:  "💥",
	model.TierLow:       "✅",
	model.TierMedium:    "⚠️",
	model.TierHigh:      "🔥",
	model.TierUltraHigh: "🚀",
}

var tierRecommendation = map[model.Tier]string{
	model.TierUltraLow:  "Great time for transactions!",
	model.TierLow:       "Good time for transactions",
	model.TierMedium:    "Moderate fees, you can wait",
	model.TierHigh:      "High fees, avoid if possible",
	model.TierUltraHigh: "Very high fees, please wait",
}

// TierEmoji returns the tier's marker, with a generic fallback.
func TierEmoji(t model.Tier) string {
	if e, ok := tierEmoji[t]; ok {
		return e
	}
	return "⛽"
}

// TierRecommendation returns the canned recommendation text for a tier.
func TierRecommendation(t model.Tier) string {
	return tierRecommendation[t]
}
