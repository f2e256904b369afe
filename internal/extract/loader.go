package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Input describes where HTML should come from.
type Input struct {
	// URL, if provided, is fetched via HTTP GET.
	URL string

	// Path, if provided (and URL is empty), is read from the local filesystem.
	Path string

	// Stdin is used when URL and Path are both empty. If nil, stdin reads as empty.
	Stdin io.Reader
}

// Loader fetches or reads HTML with a consistent timeout policy.
type Loader struct {
	client  *http.Client
	timeout time.Duration
}

// NewLoader creates a Loader. If client is nil, http.DefaultClient is used.
func NewLoader(client *http.Client, timeout time.Duration) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		client:  client,
		timeout: timeout,
	}
}

// Load returns the HTML source for stdin, a local file, or a fetched URL.
//
// On non-2xx HTTP responses, Load returns an error that includes the status
// code and up to 4KB of the response body for debugging.
//
// Fetched responses that declare a non-UTF-8 charset in Content-Type are
// decoded to UTF-8 before being returned. Several Taiwanese bank boards still
// serve Big5; goquery expects UTF-8 input.
func (l *Loader) Load(ctx context.Context, input Input) (string, error) {
	if strings.TrimSpace(input.URL) == "" {
		if strings.TrimSpace(input.Path) != "" {
			b, err := os.ReadFile(input.Path)
			if err != nil {
				return "", fmt.Errorf("read file: %w", err)
			}
			return string(b), nil
		}
		if input.Stdin == nil {
			return "", nil
		}
		b, err := io.ReadAll(input.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "ratewatch/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body := decodeCharset(resp.Body, resp.Header.Get("Content-Type"))
	b, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}

// decodeCharset wraps r with a UTF-8 decoder when contentType declares a
// charset other than UTF-8.
//
// Unknown or missing charsets return r unchanged: a wrong guess would corrupt
// the stream, while passing bytes through keeps UTF-8 pages (the common case)
// working.
func decodeCharset(r io.Reader, contentType string) io.Reader {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r
	}
	name := strings.TrimSpace(params["charset"])
	if name == "" || strings.EqualFold(name, "utf-8") {
		return r
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return r
	}
	return transform.NewReader(r, enc.NewDecoder())
}
