package rates

import (
	"fmt"

	"ratewatch/internal/extract"
)

// DefaultBoardURL is the Bank of Taiwan posted-rates page.
const DefaultBoardURL = "https://rate.bot.com.tw/xrt?Lang=zh-TW"

// BoardSchema is the extraction schema for the posted-rates table. The
// selectors target the page's own data-table attributes, which are stable
// across layout changes (the visible column headers are not).
func BoardSchema() *extract.Schema {
	return &extract.Schema{
		Name:         "posted exchange rates",
		BaseSelector: "table[title='牌告匯率'] tbody tr",
		Fields: []extract.Field{
			{Name: "currency", Selector: "td[data-table='幣別'] div.print_show", Type: "text"},
			{Name: "cash_buy", Selector: "td[data-table='本行現金買入']", Type: "text"},
			{Name: "cash_sell", Selector: "td[data-table='本行現金賣出']", Type: "text"},
			{Name: "spot_buy", Selector: "td[data-table='本行即期買入']", Type: "text"},
			{Name: "spot_sell", Selector: "td[data-table='本行即期賣出']", Type: "text"},
		},
	}
}

// ParseBoard extracts rate rows from the board page HTML.
//
// Rows with no currency label (header or spacer rows the base selector picks
// up) are dropped. Rate cells are normalized so blanks become the sentinel.
// Zero extracted rows is not an error here; callers that need data treat an
// empty board as a fetch failure with context they have (URL, status).
func ParseBoard(html string) ([]Row, error) {
	s := BoardSchema()
	recs, err := extract.Records(html, s.BaseSelector, s.Fields)
	if err != nil {
		return nil, fmt.Errorf("extract board: %w", err)
	}

	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		currency, _ := rec["currency"].(string)
		if currency == "" {
			continue
		}
		rows = append(rows, Row{
			Currency: currency,
			CashBuy:  NormalizeRate(stringField(rec, "cash_buy")),
			CashSell: NormalizeRate(stringField(rec, "cash_sell")),
			SpotBuy:  NormalizeRate(stringField(rec, "spot_buy")),
			SpotSell: NormalizeRate(stringField(rec, "spot_sell")),
		})
	}
	return rows, nil
}

func stringField(rec map[string]any, key string) string {
	v, _ := rec[key].(string)
	return v
}
