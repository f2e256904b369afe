package server

import (
	_ "embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"ratewatch/internal/board"
	"ratewatch/internal/rates"
)

//go:embed templates/index.html.tmpl
var indexTemplate string

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"display": rates.DisplayRate,
}).Parse(indexTemplate))

// convertResult carries one inline conversion for the page. When the
// conversion cannot be answered, Message holds the user-facing reason and the
// other fields stay empty.
type convertResult struct {
	Amount  string
	Code    string
	Rate    string
	Result  string
	Message string
}

type pageData struct {
	Rows      []rates.Row
	Tradable  []rates.Row
	FetchedAt string
	Error     string
	Amount    string
	Selected  string
	Convert   *convertResult
}

// handleIndex renders the dashboard: the board table plus the converter,
// whose currency select lists only the tradable rows. The converter form
// submits back to "/" with currency/amount query parameters, and the result
// (or the paused label) is rendered next to the form. A fetch failure still
// renders the page, with an error banner and a 502 so probes notice.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{Amount: "1000"}

	snap, err := s.svc.Board(r.Context())
	if err != nil {
		s.log.Error("board fetch failed", "error", err)
		data.Error = "匯率資料暫時無法取得，請稍後再試。"
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_ = indexTmpl.Execute(w, data)
		return
	}

	data.Rows = snap.Rows
	data.Tradable = rates.FilterTradable(snap.Rows)
	data.FetchedAt = snap.FetchedAt.Local().Format("2006-01-02 15:04:05")

	q := r.URL.Query()
	if currency := strings.TrimSpace(q.Get("currency")); currency != "" {
		if amt := strings.TrimSpace(q.Get("amount")); amt != "" {
			data.Amount = amt
		}
		data.Selected = strings.ToUpper(currency)
		data.Convert = s.convertInline(r, currency, data.Amount)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexTmpl.Execute(w, data)
}

// convertInline answers the page's converter form. Failures become a message
// in the result box rather than a non-200 page; the board itself rendered
// fine.
func (s *Server) convertInline(r *http.Request, currency, amountStr string) *convertResult {
	res := &convertResult{Amount: amountStr}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil || amount.Sign() <= 0 {
		res.Message = "金額必須是正數。"
		return res
	}

	conv, err := s.svc.Convert(r.Context(), currency, amount)
	switch {
	case err == nil:
		res.Code = conv.Code
		res.Rate = conv.Rate
		res.Result = conv.Result.String()
	case errors.Is(err, rates.ErrNotTradable):
		res.Message = rates.PausedLabel
	case errors.Is(err, board.ErrUnknownCurrency):
		res.Message = "查無此幣別。"
	default:
		s.log.Error("convert failed", "currency", currency, "error", err)
		res.Message = "換算失敗，請稍後再試。"
	}
	return res
}
