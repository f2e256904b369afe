// Package rates models a bank's posted exchange-rate board: the row type, the
// "not tradable" sentinel, tradable filtering, and TWD-to-foreign conversion.
package rates

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinel marks a rate field for which the bank currently offers no trading.
// The board renders it as a bare dash; empty cells mean the same thing.
const Sentinel = "-"

// PausedLabel is the user-visible rendering of Sentinel (暫停交易, "trading
// paused"). It matches the wording on the source site.
const PausedLabel = "暫停交易"

// ErrNotTradable is returned when a conversion is requested against a
// sentinel or unparseable rate. Callers present this as the paused state
// rather than an error page.
var ErrNotTradable = errors.New("rates: not tradable")

// Row is one currency on the board. Each rate is either a decimal string
// (possibly with thousands separators) or Sentinel.
type Row struct {
	Currency string `json:"currency"`
	CashBuy  string `json:"cash_buy"`
	CashSell string `json:"cash_sell"`
	SpotBuy  string `json:"spot_buy"`
	SpotSell string `json:"spot_sell"`
}

var reCode = regexp.MustCompile(`\(([A-Z]{3})\)`)

// Code returns the ISO-style currency code embedded in the board's currency
// label, e.g. "美金 (USD)" -> "USD". If no code is present the trimmed label
// itself is returned.
func (r Row) Code() string {
	if m := reCode.FindStringSubmatch(r.Currency); m != nil {
		return m[1]
	}
	return strings.TrimSpace(r.Currency)
}

// Tradable reports whether at least one of the spot rates is not the
// sentinel. Rows where both spot rates are sentinel are off the board.
func (r Row) Tradable() bool {
	return r.SpotBuy != Sentinel || r.SpotSell != Sentinel
}

// FilterTradable returns the rows usable for conversion, preserving board
// order.
func FilterTradable(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Tradable() {
			out = append(out, r)
		}
	}
	return out
}

// NormalizeRate canonicalizes a scraped rate cell: trimmed, with blank cells
// collapsed to Sentinel.
func NormalizeRate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Sentinel
	}
	return s
}

// ParseRate parses a rate string into a decimal, stripping thousands
// separators first.
//
// Sentinel values, unparseable strings, and non-positive rates all return
// ErrNotTradable: every one of them means "no numeric result", and the caller
// must degrade to the paused state instead of crashing.
func ParseRate(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == Sentinel {
		return decimal.Zero, ErrNotTradable
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNotTradable
	}
	if d.Sign() <= 0 {
		return decimal.Zero, ErrNotTradable
	}
	return d, nil
}

// Convert computes how much foreign currency a TWD amount buys at the row's
// spot sell rate (the bank sells foreign currency to the customer), rounded
// to 2 decimal places for display.
//
// Returns ErrNotTradable when the spot sell rate is the sentinel or cannot be
// parsed.
func Convert(amount decimal.Decimal, r Row) (decimal.Decimal, error) {
	rate, err := ParseRate(r.SpotSell)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.DivRound(rate, 2), nil
}

// DisplayRate maps sentinel cells to the paused label for table rendering and
// leaves real rates untouched.
func DisplayRate(s string) string {
	if NormalizeRate(s) == Sentinel {
		return PausedLabel
	}
	return s
}
