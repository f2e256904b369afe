package mssql

import (
	"context"
	"database/sql"
	"fmt"

	"ratewatch/internal/rates"
	"ratewatch/internal/storage"
)

// Repo implements storage.Repository for Microsoft SQL Server.
//
// Note on driver registration: this package intentionally does NOT blank-import
// a SQL Server driver. The application registers the "sqlserver" driver by
// importing ratewatch/internal/storage/all (or the driver directly).
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

// New constructs a Repo using database/sql and the "sqlserver" driver.
//
// The caller must ensure a SQL Server driver is registered with database/sql
// under the name "sqlserver" before calling New; otherwise sql.Open fails.
// Connectivity is validated via PingContext.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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
IF OBJECT_ID(N'rate_snapshots', N'U') IS NULL
CREATE TABLE rate_snapshots (
	id INT IDENTITY(1,1) PRIMARY KEY,
	fetched_at DATETIMEOFFSET NOT NULL,
	currency NVARCHAR(128) NOT NULL,
	cash_buy NVARCHAR(32) NOT NULL,
	cash_sell NVARCHAR(32) NOT NULL,
	spot_buy NVARCHAR(32) NOT NULL,
	spot_sell NVARCHAR(32) NOT NULL,
	row_hash CHAR(64) NOT NULL,
	CONSTRAINT uq_rate_snapshots UNIQUE (fetched_at, currency)
)`

// EnsureSchema creates the snapshot table. Idempotent on every startup.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create rate_snapshots: %w", err)
	}
	return nil
}

const insertSQL = `
INSERT INTO rate_snapshots
	(fetched_at, currency, cash_buy, cash_sell, spot_buy, spot_sell, row_hash)
SELECT @p1, @p2, @p3, @p4, @p5, @p6, @p7
WHERE NOT EXISTS (
	SELECT 1 FROM rate_snapshots WHERE fetched_at = @p1 AND currency = @p2
)`

// InsertSnapshot inserts snapshot rows one at a time.
//
// SQL Server has no ON CONFLICT; the NOT EXISTS guard gives the same
// idempotent-reprocessing behavior as the other backends. Row counts are per
// statement, so the affected total is accumulated.
func (r *Repo) InsertSnapshot(ctx context.Context, snap rates.Snapshot) (int64, error) {
	if len(snap.Rows) == 0 {
		return 0, nil
	}

	var total int64
	for _, row := range snap.Rows {
		res, err := r.db.ExecContext(ctx, insertSQL,
			snap.FetchedAt.UTC(), row.Currency,
			row.CashBuy, row.CashSell, row.SpotBuy, row.SpotSell,
			storage.RowHash(row),
		)
		if err != nil {
			return total, fmt.Errorf("insert snapshot row %s: %w", row.Currency, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
