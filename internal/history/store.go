// Package history keeps a bounded, time-windowed sample history per network.
package history

import (
	"fmt"
	"sync"
	"time"

	"gaswatch/internal/model"
)

// Store holds ordered gas samples per network. Windows are created once at
// startup; Append is the only mutator and prunes in the same step, so a
// window never holds entries older than the retention period or more entries
// than the configured cap.
type Store struct {
	retention  time.Duration
	maxEntries int

	mu      sync.RWMutex
	windows map[string][]model.GasSample
}

// New creates an empty window for every given network key.
func New(networks []string, retention time.Duration, maxEntries int) *Store {
	if maxEntries < 1 {
		maxEntries = 1
	}
	windows := make(map[string][]model.GasSample, len(networks))
	for _, network := range networks {
		windows[network] = nil
	}
	return &Store{
		retention:  retention,
		maxEntries: maxEntries,
		windows:    windows,
	}
}

// Append records a sample and immediately prunes its network's window using
// the sample timestamp as "now". Samples arrive in capture order; equal
// timestamps keep insertion order.
func (s *Store) Append(sample model.GasSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows[sample.Network]
	if !ok {
		return fmt.Errorf("history: unknown network %q", sample.Network)
	}

	window = append(window, sample)
	s.windows[sample.Network] = s.prune(window, sample.Timestamp)
	return nil
}

// Prune drops entries older than the retention window across all networks.
// Pruning is idempotent for a fixed now.
func (s *Store) Prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for network, window := range s.windows {
		s.windows[network] = s.prune(window, now)
	}
}

func (s *Store) prune(window []model.GasSample, now time.Time) []model.GasSample {
	cutoff := now.Add(-s.retention)
	start := 0
	for start < len(window) && !window[start].Timestamp.After(cutoff) {
		start++
	}
	window = window[start:]

	if len(window) > s.maxEntries {
		window = window[len(window)-s.maxEntries:]
	}
	return window
}

// Window returns a read-only copy of a network's samples in capture order.
func (s *Store) Window(network string) []model.GasSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	window := s.windows[network]
	out := make([]model.GasSample, len(window))
	copy(out, window)
	return out
}

// Snapshot copies every network's window, keyed by network.
func (s *Store) Snapshot() map[string][]model.GasSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string][]model.GasSample, len(s.windows))
	for network, window := range s.windows {
		out := make([]model.GasSample, len(window))
		copy(out, window)
		snap[network] = out
	}
	return snap
}

// Len reports the number of retained samples for a network.
func (s *Store) Len(network string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows[network])
}
