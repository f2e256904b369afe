package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ratewatch/internal/rates"
	"ratewatch/internal/storage"
)

// Repo implements storage.Repository for SQLite.
//
// SQLite has no native TIMESTAMPTZ type; modernc.org/sqlite stores timestamps
// with TEXT affinity unless you intentionally store INTEGER/REAL. Fetch
// timestamps are therefore stored as RFC3339Nano strings for reliable
// round-trip behavior and easy debugging.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

// New opens (or creates) the SQLite database at cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

const createSQL = `
CREATE TABLE IF NOT EXISTS rate_snapshots (
	id INTEGER PRIMARY KEY,
	fetched_at TEXT NOT NULL,
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
	_, err := r.db.ExecContext(ctx, createSQL)
	return err
}

// InsertSnapshot bulk-inserts snapshot rows.
//
// "INSERT OR IGNORE" relies on the UNIQUE(fetched_at, currency) constraint,
// so re-inserting the same snapshot is idempotent and reports 0 affected
// rows.
func (r *Repo) InsertSnapshot(ctx context.Context, snap rates.Snapshot) (int64, error) {
	if len(snap.Rows) == 0 {
		return 0, nil
	}

	fetchedAt := snap.FetchedAt.UTC().Format(time.RFC3339Nano)

	var b strings.Builder
	b.WriteString(`INSERT OR IGNORE INTO rate_snapshots
	(fetched_at, currency, cash_buy, cash_sell, spot_buy, spot_sell, row_hash) VALUES `)

	args := make([]any, 0, len(snap.Rows)*7)
	for i, row := range snap.Rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			fetchedAt, row.Currency,
			row.CashBuy, row.CashSell, row.SpotBuy, row.SpotSell,
			storage.RowHash(row),
		)
	}

	res, err := r.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
