package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"gaswatch/internal/model"
)

// FileStore writes the history snapshot as a single JSON document.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore constructs a JSON snapshot writer.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With().Str("component", "snapshot_file").Logger(),
	}
}

// WriteSnapshot marshals the snapshot and replaces the target file. The write
// goes through a temp file and rename so a crash never leaves a torn file.
func (f *FileStore) WriteSnapshot(ctx context.Context, snapshot map[string][]model.GasSample) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	f.logger.Debug().Str("path", f.path).Msg("history snapshot saved")
	return nil
}

// Close is a no-op for the file store.
func (f *FileStore) Close() {}

var _ SnapshotWriter = (*FileStore)(nil)
