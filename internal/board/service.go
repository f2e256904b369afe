// Package board orchestrates the posted-rates dashboard: it serves snapshots
// through the TTL cache, answers conversion queries, and optionally persists
// every fresh snapshot.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ratewatch/internal/cache"
	"ratewatch/internal/metrics"
	"ratewatch/internal/rates"
	"ratewatch/internal/storage"
)

// ErrUnknownCurrency reports a currency that is not on the board at all, as
// opposed to one that is listed but paused.
var ErrUnknownCurrency = errors.New("unknown currency")

// Fetcher fetches one snapshot of the posted-rates board.
type Fetcher interface {
	FetchBoard(ctx context.Context) (rates.Snapshot, error)
}

// Conversion is the result of a TWD-to-foreign conversion against a board
// row.
type Conversion struct {
	Currency string          `json:"currency"`
	Code     string          `json:"code"`
	Amount   decimal.Decimal `json:"amount_twd"`
	Rate     string          `json:"spot_sell"`
	Result   decimal.Decimal `json:"result"`
}

// Service serves board snapshots through the TTL cache and answers
// conversion queries against them.
//
// All methods are safe for concurrent use; the cache and the fetcher carry
// their own synchronization and the rest of the state is read-only after
// NewService.
type Service struct {
	fetcher Fetcher
	cache   *cache.Snapshots
	repo    storage.Repository // nil disables persistence
	metrics metrics.Backend
	log     *slog.Logger

	cacheKey string
	now      func() time.Time
}

// ServiceOptions configures a Service. Fetcher is required; everything else
// has a working zero value.
type ServiceOptions struct {
	Fetcher Fetcher
	TTL     time.Duration

	// CacheKey identifies the board in the cache. Defaults to the bank URL so
	// a service per source works out of the box.
	CacheKey string

	// Repo, when set, receives every fresh snapshot. Insert failures are
	// logged, not propagated; serving rates beats archiving them.
	Repo storage.Repository

	Metrics metrics.Backend
	Logger  *slog.Logger

	// now is a test seam; production uses time.Now.
	now func() time.Time
}

// NewService creates a board service.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("board service: fetcher is required")
	}

	key := opts.CacheKey
	if key == "" {
		key = rates.DefaultBoardURL
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.Nop{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}

	return &Service{
		fetcher:  opts.Fetcher,
		cache:    cache.New(opts.TTL),
		repo:     opts.Repo,
		metrics:  m,
		log:      log,
		cacheKey: key,
		now:      nowFn,
	}, nil
}

// Board returns the current snapshot, fetching only on a cache miss.
func (s *Service) Board(ctx context.Context) (rates.Snapshot, error) {
	if snap, ok := s.cache.Get(s.cacheKey); ok {
		return snap, nil
	}
	return s.refetch(ctx)
}

// Refresh drops the cached snapshot and fetches a fresh one. Bound to the
// dashboard's manual refresh action.
func (s *Service) Refresh(ctx context.Context) (rates.Snapshot, error) {
	s.cache.Clear()
	return s.refetch(ctx)
}

func (s *Service) refetch(ctx context.Context) (rates.Snapshot, error) {
	start := s.now()
	snap, err := s.fetcher.FetchBoard(ctx)
	elapsed := s.now().Sub(start).Seconds()

	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.IncCounter(metrics.FetchTotal, 1, metrics.Labels{"status": status})
	s.metrics.ObserveHistogram(metrics.FetchDurationSeconds, elapsed, metrics.Labels{"status": status})

	if err != nil {
		return rates.Snapshot{}, err
	}

	s.metrics.IncCounter(metrics.RowsExtracted, float64(len(snap.Rows)), metrics.Labels{"source": "bot"})
	s.cache.Put(s.cacheKey, snap)

	if s.repo != nil {
		n, err := s.repo.InsertSnapshot(ctx, snap)
		if err != nil {
			s.log.Warn("snapshot persist failed", "error", err)
		} else {
			s.log.Debug("snapshot persisted", "rows", n)
		}
	}

	return snap, nil
}

// Convert answers "how much of currency does amount TWD buy" against the
// current board.
//
// The currency argument matches either the ISO code ("USD",
// case-insensitive) or the full board label. A paused currency returns
// rates.ErrNotTradable; an unlisted one returns ErrUnknownCurrency.
func (s *Service) Convert(ctx context.Context, currency string, amount decimal.Decimal) (Conversion, error) {
	if amount.Sign() <= 0 {
		return Conversion{}, fmt.Errorf("convert: amount must be positive, got %s", amount)
	}

	snap, err := s.Board(ctx)
	if err != nil {
		return Conversion{}, err
	}

	row, ok := findRow(snap.Rows, currency)
	if !ok {
		return Conversion{}, fmt.Errorf("convert %q: %w", currency, ErrUnknownCurrency)
	}

	result, err := rates.Convert(amount, row)
	if err != nil {
		return Conversion{}, fmt.Errorf("convert %s: %w", row.Code(), err)
	}

	return Conversion{
		Currency: row.Currency,
		Code:     row.Code(),
		Amount:   amount,
		Rate:     row.SpotSell,
		Result:   result,
	}, nil
}

func findRow(rows []rates.Row, currency string) (rates.Row, bool) {
	want := strings.TrimSpace(currency)
	for _, r := range rows {
		if strings.EqualFold(r.Code(), want) || r.Currency == want {
			return r, true
		}
	}
	return rates.Row{}, false
}
