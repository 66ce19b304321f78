// Package storage persists history snapshots. The core never reads them back;
// writes are fire-and-forget from the scheduler's point of view.
package storage

import (
	"context"

	"gaswatch/internal/model"
)

// SnapshotWriter consumes a full history snapshot on the save cadence and
// once more at shutdown.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, snapshot map[string][]model.GasSample) error
	Close()
}
