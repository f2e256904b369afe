// Command extract reads HTML (from stdin, a file, a URL, or a directory of
// files), applies a declarative schema, and prints JSON records.
//
// Usage (stdin):
//
//	cat page.html | extract -schema schemas/products.json
//
// Usage (fetch URL):
//
//	extract -url "https://example.com/page" -schema schemas/products.json
//
// Usage (local file):
//
//	extract -file fixtures/products.html -schema schemas/products.json
//
// Usage (directory mode):
//
//	extract -dir ./pages -schema schemas/products.json
//
// Debug (print outer HTML blocks):
//
//	cat page.html | extract -selector "div.product-card"
//
// Debug (print text for selector matches):
//
//	cat page.html | extract -selector "div.product-card h3" -text
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ratewatch/internal/extract"
)

func main() {
	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdin,
		os.Stdout,
		os.Stderr,
		http.DefaultClient,
	))
}

// run is split out from main so we can unit test the command without spawning
// an OS process.
//
// It returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stderr)

	onlyText := fs.Bool("text", false, "Debug: print text blocks for -selector matches (not JSON)")
	debugSelector := fs.String("selector", "", "Debug: CSS selector to print matches for (not JSON)")
	schemaPath := fs.String("schema", "", "Path to schema JSON file (required for JSON extraction)")
	urlFlag := fs.String("url", "", "Optional: fetch HTML from URL instead of stdin")
	fileFlag := fs.String("file", "", "Optional: read HTML from a local file instead of stdin")
	timeout := fs.Duration("timeout", 20*time.Second, "Timeout for -url fetch")
	dirFlag := fs.String("dir", "", "Optional: directory containing HTML files to parse")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	loader := extract.NewLoader(httpClient, *timeout)

	// Debug selector mode needs HTML input but NOT a schema.
	if *debugSelector != "" {
		html, err := loader.Load(ctx, extract.Input{
			URL:   *urlFlag,
			Path:  *fileFlag,
			Stdin: stdin,
		})
		if err != nil {
			fmt.Fprintf(stderr, "load html: %v\n", err)
			return 1
		}

		if err := extract.DebugPrintSelector(stdout, html, *debugSelector, *onlyText); err != nil {
			fmt.Fprintf(stderr, "debug selector: %v\n", err)
			return 1
		}
		return 0
	}

	// Schema-driven mode (JSON output)
	if *schemaPath == "" {
		fmt.Fprintf(stderr, "missing -schema\n")
		return 2
	}

	schema, err := extract.LoadSchema(*schemaPath)
	if err != nil {
		fmt.Fprintf(stderr, "load schema: %v\n", err)
		return 2
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)

	// Directory mode: stream output as a single JSON array.
	if *dirFlag != "" {
		if err := extract.StreamFromDir(stdout, *dirFlag, schema, enc); err != nil {
			fmt.Fprintf(stderr, "dir extract: %v\n", err)
			return 1
		}
		return 0
	}

	// Single input mode: stdin, -file, or -url
	html, err := loader.Load(ctx, extract.Input{
		URL:   *urlFlag,
		Path:  *fileFlag,
		Stdin: stdin,
	})
	if err != nil {
		fmt.Fprintf(stderr, "load html: %v\n", err)
		return 1
	}

	// Record mode: output []object (one per root container)
	if schema.BaseSelector != "" {
		records, err := extract.Records(html, schema.BaseSelector, schema.Fields)
		if err != nil {
			fmt.Fprintf(stderr, "extract records: %v\n", err)
			return 1
		}
		if err := enc.Encode(records); err != nil {
			fmt.Fprintf(stderr, "encode json: %v\n", err)
			return 1
		}
		return 0
	}

	// Single-object mode: output one object
	obj, err := extract.One(html, schema.Fields)
	if err != nil {
		fmt.Fprintf(stderr, "extract: %v\n", err)
		return 1
	}
	if err := enc.Encode(obj); err != nil {
		fmt.Fprintf(stderr, "encode json: %v\n", err)
		return 1
	}
	return 0
}
