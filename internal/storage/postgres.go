package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"gaswatch/internal/config"
	"gaswatch/internal/model"
)

const upsertGasSampleSQL = `INSERT INTO gas_samples (
    network,
    sampled_at,
    block_number,
    base_fee_gwei,
    priority_fees,
    total_fees,
    l1_fee_gwei,
    l2_fee_gwei
) VALUES (
    $1,$2,$3,$4,$5,$6,$7,$8
)
ON CONFLICT (network, sampled_at) DO UPDATE
SET
    block_number  = EXCLUDED.block_number,
    base_fee_gwei = EXCLUDED.base_fee_gwei,
    priority_fees = EXCLUDED.priority_fees,
    total_fees    = EXCLUDED.total_fees,
    l1_fee_gwei   = EXCLUDED.l1_fee_gwei,
    l2_fee_gwei   = EXCLUDED.l2_fee_gwei;`

// NewPool configures a PostgreSQL connection pool from runtime settings.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return pool, nil
}

// PostgresStore upserts snapshot samples into the gas_samples table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "snapshot_postgres").Logger(),
	}
}

// WriteSnapshot upserts every sample in the snapshot in one batch. Samples
// already present (same network and capture time) are overwritten.
func (p *PostgresStore) WriteSnapshot(ctx context.Context, snapshot map[string][]model.GasSample) error {
	batch := &pgx.Batch{}
	queued := 0

	for network, window := range snapshot {
		for _, sample := range window {
			priority, err := json.Marshal(sample.PriorityFees)
			if err != nil {
				return fmt.Errorf("marshal priority fees: %w", err)
			}
			total, err := json.Marshal(sample.TotalFees)
			if err != nil {
				return fmt.Errorf("marshal total fees: %w", err)
			}

			var l1, l2 *string
			if sample.L1Fee != nil {
				v := sample.L1Fee.String()
				l1 = &v
			}
			if sample.L2Fee != nil {
				v := sample.L2Fee.String()
				l2 = &v
			}

			batch.Queue(upsertGasSampleSQL,
				network,
				sample.Timestamp,
				int64(sample.BlockNumber),
				sample.BaseFee.String(),
				priority,
				total,
				l1,
				l2,
			)
			queued++
		}
	}

	if queued == 0 {
		return nil
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < queued; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert gas sample: %w", err)
		}
	}

	p.logger.Debug().Int("samples", queued).Msg("history snapshot persisted")
	return nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

var _ SnapshotWriter = (*PostgresStore)(nil)
