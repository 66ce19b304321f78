package alerting

import (
	"time"

	"github.com/shopspring/decimal"

	"gaswatch/internal/config"
	"gaswatch/internal/model"
)

// suppressed reports whether a tier is muted for this network. Networks with
// disable_fast_alerts set (cheap L2s) never fire the expensive tiers.
func suppressed(net config.NetworkConfig, tier model.Tier) bool {
	if !net.DisableFastAlerts {
		return false
	}
	return tier == model.TierHigh || tier == model.TierUltraHigh
}

// Evaluate checks every configured tier for a downward threshold crossing and
// returns the events that fired. Tiers with no configured threshold, tiers
// suppressed for this network, and percentiles missing from the sample are
// skipped silently. Fired tiers are marked on the tracker immediately so the
// cooldown holds even when delivery fails later.
func Evaluate(sample model.GasSample, network string, net config.NetworkConfig, tracker *Tracker, now time.Time) []Event {
	if len(net.Thresholds) == 0 {
		return nil
	}

	var events []Event
	for _, tier := range model.Tiers() {
		raw, ok := net.Thresholds[string(tier)]
		if !ok {
			continue
		}
		if suppressed(net, tier) {
			continue
		}

		percentile, ok := model.TierPercentile(tier)
		if !ok {
			continue
		}
		value, ok := sample.FeeAt(percentile)
		if !ok {
			continue
		}

		threshold := decimal.NewFromFloat(raw)
		if value.GreaterThan(threshold) {
			continue
		}
		if !tracker.Eligible(network, tier, now) {
			continue
		}

		tracker.MarkFired(network, tier, now)
		priority, _ := sample.PriorityAt(percentile)
		events = append(events, Event{
			Network:     network,
			NetworkName: net.Name,
			Tier:        tier,
			Percentile:  percentile,
			Value:       value,
			Threshold:   threshold,
			BaseFee:     sample.BaseFee,
			Priority:    priority,
			BlockNumber: sample.BlockNumber,
			ExplorerURL: net.ExplorerURL,
			Timestamp:   now,
		})
	}
	return events
}

// Opportunity reports the cheapest satisfied tier for a sample, if any. This
// is the only surface exposed for "act when cheap" integrations; the monitor
// itself never transacts.
func Opportunity(sample model.GasSample, network string, net config.NetworkConfig) (model.Tier, bool) {
	for _, tier := range model.Tiers() {
		raw, ok := net.Thresholds[string(tier)]
		if !ok {
			continue
		}
		if suppressed(net, tier) {
			continue
		}
		percentile, ok := model.TierPercentile(tier)
		if !ok {
			continue
		}
		value, ok := sample.FeeAt(percentile)
		if !ok {
			continue
		}
		if value.LessThanOrEqual(decimal.NewFromFloat(raw)) {
			return tier, true
		}
	}
	return "", false
}
