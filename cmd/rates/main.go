// Command rates fetches the Bank of Taiwan posted exchange-rate board and
// prints it, converts a TWD amount, or archives the snapshot.
//
// Usage (table):
//
//	rates
//
// Usage (JSON, tradable currencies only):
//
//	rates -json -tradable
//
// Usage (conversion):
//
//	rates -convert USD -amount 1000
//
// Usage (archive the snapshot):
//
//	rates -store sqlite -dsn rates.db
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"ratewatch/internal/rates"
	"ratewatch/internal/storage"
	_ "ratewatch/internal/storage/all"
)

func main() {
	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdout,
		os.Stderr,
		nil,
	))
}

// run is split out from main so we can unit test the command without spawning
// an OS process. A non-nil fetcher overrides the real board client.
//
// It returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdout io.Writer,
	stderr io.Writer,
	fetcher interface {
		FetchBoard(ctx context.Context) (rates.Snapshot, error)
	},
) int {
	fs := flag.NewFlagSet("rates", flag.ContinueOnError)
	fs.SetOutput(stderr)

	urlFlag := fs.String("url", rates.DefaultBoardURL, "Board page URL")
	timeout := fs.Duration("timeout", 20*time.Second, "Fetch timeout")
	jsonOut := fs.Bool("json", false, "Print JSON instead of a table")
	tradable := fs.Bool("tradable", false, "Only currencies with at least one spot rate")
	convertTo := fs.String("convert", "", "Currency code or label to convert TWD into")
	amountFlag := fs.String("amount", "", "TWD amount for -convert")
	storeKind := fs.String("store", "", "Archive the snapshot: storage kind (sqlite, postgres, mssql)")
	dsn := fs.String("dsn", "", "DSN for -store")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *convertTo != "" && *amountFlag == "" {
		fmt.Fprintf(stderr, "-convert requires -amount\n")
		return 2
	}
	if *storeKind != "" && *dsn == "" {
		fmt.Fprintf(stderr, "-store requires -dsn\n")
		return 2
	}

	if fetcher == nil {
		fetcher = rates.NewClient(rates.ClientOptions{URL: *urlFlag, Timeout: *timeout})
	}

	snap, err := fetcher.FetchBoard(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	if *storeKind != "" {
		if err := archive(ctx, *storeKind, *dsn, snap, stderr); err != nil {
			fmt.Fprintf(stderr, "archive snapshot: %v\n", err)
			return 1
		}
	}

	if *convertTo != "" {
		return convert(snap, *convertTo, *amountFlag, stdout, stderr)
	}

	rows := snap.Rows
	if *tradable {
		rows = rates.FilterTradable(rows)
	}

	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(rates.Snapshot{Rows: rows, FetchedAt: snap.FetchedAt}); err != nil {
			fmt.Fprintf(stderr, "encode json: %v\n", err)
			return 1
		}
		return 0
	}

	printTable(stdout, rows, snap.FetchedAt)
	return 0
}

func printTable(w io.Writer, rows []rates.Row, fetchedAt time.Time) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"幣別", "現金買入", "現金賣出", "即期買入", "即期賣出"})

	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Currency,
			rates.DisplayRate(r.CashBuy),
			rates.DisplayRate(r.CashSell),
			rates.DisplayRate(r.SpotBuy),
			rates.DisplayRate(r.SpotSell),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
	fmt.Fprintf(w, "資料時間: %s\n", fetchedAt.Local().Format("2006-01-02 15:04:05"))
}

func convert(snap rates.Snapshot, currency, amountStr string, stdout, stderr io.Writer) int {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || amount.Sign() <= 0 {
		fmt.Fprintf(stderr, "-amount must be a positive number\n")
		return 2
	}

	for _, r := range snap.Rows {
		if !matchesCurrency(r, currency) {
			continue
		}
		result, err := rates.Convert(amount, r)
		if err != nil {
			fmt.Fprintf(stdout, "%s %s\n", r.Currency, rates.PausedLabel)
			return 0
		}
		fmt.Fprintf(stdout, "%s TWD = %s %s (即期賣出 %s)\n", amount, result, r.Code(), r.SpotSell)
		return 0
	}

	fmt.Fprintf(stderr, "unknown currency %q\n", currency)
	return 1
}

func matchesCurrency(r rates.Row, want string) bool {
	return strings.EqualFold(r.Code(), want) || r.Currency == want
}

func archive(ctx context.Context, kind, dsn string, snap rates.Snapshot, stderr io.Writer) error {
	repo, err := storage.New(ctx, storage.Config{Kind: kind, DSN: dsn})
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	n, err := repo.InsertSnapshot(ctx, snap)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "archived %d rows\n", n)
	return nil
}
