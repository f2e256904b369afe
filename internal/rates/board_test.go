package rates

import "testing"

// boardHTML mimics the posted-rates page structure: data-table attributes on
// cells, the currency label duplicated in a print_show div, and one currency
// with spot trading paused.
const boardHTML = `<html><body>
<table title="牌告匯率">
<thead><tr><th>幣別</th><th>現金買入</th><th>現金賣出</th><th>即期買入</th><th>即期賣出</th></tr></thead>
<tbody>
<tr>
  <td data-table="幣別"><div class="print_hide">美金(USD)</div><div class="print_show">美金 (USD)</div></td>
  <td data-table="本行現金買入">31.20</td>
  <td data-table="本行現金賣出">31.80</td>
  <td data-table="本行即期買入">31.45</td>
  <td data-table="本行即期賣出">31.50</td>
</tr>
<tr>
  <td data-table="幣別"><div class="print_show">越南盾 (VND)</div></td>
  <td data-table="本行現金買入">0.00102</td>
  <td data-table="本行現金賣出">0.00142</td>
  <td data-table="本行即期買入">-</td>
  <td data-table="本行即期賣出"></td>
</tr>
<tr>
  <td data-table="幣別"><div class="print_show">日圓 (JPY)</div></td>
  <td data-table="本行現金買入">0.2002</td>
  <td data-table="本行現金賣出">0.2122</td>
  <td data-table="本行即期買入">0.2045</td>
  <td data-table="本行即期賣出">0.2085</td>
</tr>
</tbody>
</table>
</body></html>`

// TestParseBoard verifies row extraction: header rows without a currency
// label are dropped, rates land in the right fields, and blank cells
// normalize to the sentinel.
func TestParseBoard(t *testing.T) {
	t.Parallel()

	rows, err := ParseBoard(boardHTML)
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows)=%d, want 3", len(rows))
	}

	usd := rows[0]
	if usd.Currency != "美金 (USD)" {
		t.Fatalf("currency=%q, want 美金 (USD)", usd.Currency)
	}
	if usd.CashBuy != "31.20" || usd.CashSell != "31.80" || usd.SpotBuy != "31.45" || usd.SpotSell != "31.50" {
		t.Fatalf("usd rates wrong: %+v", usd)
	}

	vnd := rows[1]
	if vnd.SpotBuy != Sentinel {
		t.Fatalf("vnd spot buy=%q, want sentinel", vnd.SpotBuy)
	}
	// An empty cell means the same thing as a dash.
	if vnd.SpotSell != Sentinel {
		t.Fatalf("vnd spot sell=%q, want sentinel", vnd.SpotSell)
	}
	if vnd.Tradable() {
		t.Fatalf("vnd should not be tradable")
	}

	if !rows[2].Tradable() {
		t.Fatalf("jpy should be tradable")
	}
}

// TestParseBoard_NoTable verifies an unmatched base selector yields zero rows
// without error; the caller decides whether that is fatal.
func TestParseBoard_NoTable(t *testing.T) {
	t.Parallel()

	rows, err := ParseBoard("<html><body><p>maintenance</p></body></html>")
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("len(rows)=%d, want 0", len(rows))
	}
}

// TestBoardSchema verifies the schema names every field the row type carries.
func TestBoardSchema(t *testing.T) {
	t.Parallel()

	s := BoardSchema()
	if s.BaseSelector == "" {
		t.Fatal("base selector empty")
	}

	want := map[string]bool{
		"currency": false, "cash_buy": false, "cash_sell": false,
		"spot_buy": false, "spot_sell": false,
	}
	for _, f := range s.Fields {
		if _, ok := want[f.Name]; !ok {
			t.Fatalf("unexpected field %q", f.Name)
		}
		want[f.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("schema missing field %q", name)
		}
	}
}
