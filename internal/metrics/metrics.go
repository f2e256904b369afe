// Package metrics defines the minimal backend interface the scrape code
// emits to. Concrete backends (Datadog) live in subpackages; everything else
// depends only on Backend so swapping or disabling metrics never touches the
// scrape path.
package metrics

// Labels are free-form metric dimensions (e.g. status, source).
type Labels map[string]string

// Backend receives metric observations.
//
// Implementations must be safe for concurrent use; the dashboard emits from
// request handlers.
type Backend interface {
	// IncCounter adds delta to a named counter. Non-positive deltas are ignored.
	IncCounter(name string, delta float64, labels Labels)

	// ObserveHistogram records one sample of a named distribution. Negative
	// values are ignored.
	ObserveHistogram(name string, value float64, labels Labels)
}

// Metric names emitted by the fetch path. Keeping them here makes the
// operational contract visible in one place.
const (
	FetchTotal           = "ratewatch_fetch_total"
	FetchDurationSeconds = "ratewatch_fetch_duration_seconds"
	RowsExtracted        = "ratewatch_rows_extracted"
)

// Nop discards all observations. Used when metrics are disabled.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}

var _ Backend = Nop{}
