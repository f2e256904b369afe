package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"ratewatch/internal/board"
	"ratewatch/internal/rates"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleRates serves the current board as JSON. ?tradable=1 narrows the rows
// to currencies usable for conversion.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Board(r.Context())
	if err != nil {
		s.log.Error("board fetch failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	rows := snap.Rows
	if isTruthy(r.URL.Query().Get("tradable")) {
		rows = rates.FilterTradable(rows)
	}

	writeJSON(w, http.StatusOK, rates.Snapshot{Rows: rows, FetchedAt: snap.FetchedAt})
}

// handleConvert answers GET /api/convert?currency=USD&amount=1000.
//
// Status codes:
//   - 400 for missing or malformed parameters
//   - 404 for a currency not on the board
//   - 409 for a currency whose spot trading is paused
//   - 502 when the board itself cannot be fetched
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	currency := strings.TrimSpace(q.Get("currency"))
	if currency == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "currency parameter is required"})
		return
	}

	amountStr := strings.TrimSpace(q.Get("amount"))
	if amountStr == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount parameter is required"})
		return
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || amount.Sign() <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount must be a positive number"})
		return
	}

	conv, err := s.svc.Convert(r.Context(), currency, amount)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, conv)
	case errors.Is(err, rates.ErrNotTradable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: rates.PausedLabel})
	case errors.Is(err, board.ErrUnknownCurrency):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.log.Error("convert failed", "currency", currency, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
}

// handleRefresh drops the cache and fetches a fresh board.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Refresh(r.Context())
	if err != nil {
		s.log.Error("refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":       len(snap.Rows),
		"fetched_at": snap.FetchedAt,
	})
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}
