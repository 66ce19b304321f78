package alerting

import (
	"sync"
	"time"

	"gaswatch/internal/model"
)

type cooldownKey struct {
	network string
	tier    model.Tier
}

// Tracker records the last fire time per (network, tier). Expiry is a lazy
// check on access; entries are never removed since the tier and network sets
// are finite.
type Tracker struct {
	cooldown time.Duration

	mu        sync.Mutex
	lastFired map[cooldownKey]time.Time
}

// NewTracker creates a tracker with the given cooldown period.
func NewTracker(cooldown time.Duration) *Tracker {
	return &Tracker{
		cooldown:  cooldown,
		lastFired: make(map[cooldownKey]time.Time),
	}
}

// Eligible reports whether (network, tier) may fire at now: either it never
// fired or the cooldown has elapsed since the last fire.
func (t *Tracker) Eligible(network string, tier model.Tier, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.lastFired[cooldownKey{network: network, tier: tier}]
	if !ok {
		return true
	}
	return now.Sub(last) > t.cooldown
}

// MarkFired records a fire at now, overwriting any previous entry. The entry
// stays recorded even if delivery later fails, which keeps a flaky notifier
// from producing alert storms.
func (t *Tracker) MarkFired(network string, tier model.Tier, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastFired[cooldownKey{network: network, tier: tier}] = now
}
