package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Snapshot is one fetch of the board: the extracted rows plus when they were
// fetched. Snapshots are immutable; consumers filter and convert from a
// snapshot and discard it on the next refresh.
type Snapshot struct {
	Rows      []Row     `json:"rows"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Client fetches and parses the posted-rates board.
//
// There is deliberately no retry or backoff: a failed fetch propagates to the
// caller as a single error, and the next cache miss simply tries again.
type Client struct {
	http *resty.Client
	url  string
	now  func() time.Time
}

// ClientOptions configures a Client. Zero values pick the Bank of Taiwan
// board and a 20s timeout.
type ClientOptions struct {
	URL     string
	Timeout time.Duration

	// now is a test seam; production uses time.Now.
	now func() time.Time
}

// NewClient creates a board client.
func NewClient(opts ClientOptions) *Client {
	url := opts.URL
	if url == "" {
		url = DefaultBoardURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}

	http := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "ratewatch/1.0")

	return &Client{http: http, url: url, now: nowFn}
}

// FetchBoard GETs the board page and extracts its rows.
//
// Errors:
//   - transport errors and non-2xx statuses are returned as a single wrapped
//     error; there is no retry.
//   - a page that parses but yields zero rows is an error too: it means the
//     table moved and the schema silently matched nothing.
func (c *Client) FetchBoard(ctx context.Context) (Snapshot, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch board: %w", err)
	}
	if resp.IsError() {
		return Snapshot{}, fmt.Errorf("fetch board: http status %d", resp.StatusCode())
	}

	rows, err := ParseBoard(string(resp.Body()))
	if err != nil {
		return Snapshot{}, err
	}
	if len(rows) == 0 {
		return Snapshot{}, fmt.Errorf("fetch board: no rate rows extracted from %s", c.url)
	}

	return Snapshot{Rows: rows, FetchedAt: c.now()}, nil
}
