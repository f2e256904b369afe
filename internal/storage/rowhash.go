package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"ratewatch/internal/rates"
)

// rowHashSep separates field components in the canonical string. ASCII Unit
// Separator cannot appear in scraped rate text.
const rowHashSep = "\x1f"

// RowHash computes a deterministic SHA-256 hash over a row's fields.
//
// The hash is stable across fetches: it covers the currency label and the
// four rate strings but not the fetch timestamp, so two snapshots with
// identical boards produce identical hashes per row. Field names are included
// in the canonical form to avoid accidental collisions between empty fields.
//
// Output is a lowercase hex string (length 64).
func RowHash(r rates.Row) string {
	var b strings.Builder
	b.Grow(96)

	writeField(&b, "currency", r.Currency, false)
	writeField(&b, "cash_buy", r.CashBuy, true)
	writeField(&b, "cash_sell", r.CashSell, true)
	writeField(&b, "spot_buy", r.SpotBuy, true)
	writeField(&b, "spot_sell", r.SpotSell, true)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func writeField(b *strings.Builder, name, value string, sep bool) {
	if sep {
		b.WriteString(rowHashSep)
	}
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(strings.TrimSpace(value))
}
