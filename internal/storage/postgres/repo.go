package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"ratewatch/internal/rates"
	"ratewatch/internal/storage"
)

// Repo implements storage.Repository for Postgres using a pgx pool.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

// New creates a Postgres-backed Repo and validates connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

const createSQL = `
CREATE TABLE IF NOT EXISTS rate_snapshots (
	id BIGSERIAL PRIMARY KEY,
	fetched_at TIMESTAMPTZ NOT NULL,
	currency TEXT NOT NULL,
	cash_buy TEXT NOT NULL,
	cash_sell TEXT NOT NULL,
	spot_buy TEXT NOT NULL,
	spot_sell TEXT NOT NULL,
	row_hash TEXT NOT NULL,
	UNIQUE (fetched_at, currency)
)`

// EnsureSchema creates the snapshot table. Idempotent on every startup.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("create rate_snapshots: %w", err)
	}
	return nil
}

// InsertSnapshot bulk-inserts snapshot rows.
//
// Idempotency comes from ON CONFLICT (fetched_at, currency) DO NOTHING;
// reprocessing the same snapshot must not fail the run with unique-constraint
// violations.
func (r *Repo) InsertSnapshot(ctx context.Context, snap rates.Snapshot) (int64, error) {
	if len(snap.Rows) == 0 {
		return 0, nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO rate_snapshots
	(fetched_at, currency, cash_buy, cash_sell, spot_buy, spot_sell, row_hash) VALUES `)

	args := make([]any, 0, len(snap.Rows)*7)
	for i, row := range snap.Rows {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 7
		b.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args,
			snap.FetchedAt.UTC(), row.Currency,
			row.CashBuy, row.CashSell, row.SpotBuy, row.SpotSell,
			storage.RowHash(row),
		)
	}
	b.WriteString(" ON CONFLICT (fetched_at, currency) DO NOTHING")

	tag, err := r.pool.Exec(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
