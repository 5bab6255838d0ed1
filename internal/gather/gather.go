// Package gather runs the filing discovery and enrichment pipeline: fetch
// a daily index, scan candidate documents, enrich matches, and accumulate
// the results.
package gather

import (
	"context"
	"time"

	"filingscan/internal/domain"
	"filingscan/internal/edgar"
)

// Gatherer is the interface for all data gathering processes.
type Gatherer interface {
	// Name returns the gatherer identifier.
	Name() string
	// Run performs one gathering pass and returns when it completes or ctx
	// is cancelled.
	Run(ctx context.Context) error
}

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

// IndexSource fetches the raw daily master index for a date.
type IndexSource interface {
	FetchIndex(ctx context.Context, date time.Time) (string, error)
}

// DocumentSource fetches filing documents by their index path.
type DocumentSource interface {
	FetchDocument(ctx context.Context, path string) (string, error)
	DocumentURL(path string) string
}

// TickerSource loads the CIK to ticker directory.
type TickerSource interface {
	FetchTickerDirectory(ctx context.Context) (*edgar.TickerDirectory, error)
}

// Summarizer condenses document text. It never fails; an empty string
// means no summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

// MarketData supplies price features and profile data. It never fails;
// unknown values are nil.
type MarketData interface {
	Features(ctx context.Context, ticker string, filingDate time.Time) domain.PriceFeatures
	Profile(ctx context.Context, ticker string) domain.Profile
}

// Compile-time checks that the EDGAR client serves every EDGAR role.
var (
	_ IndexSource    = (*edgar.Client)(nil)
	_ DocumentSource = (*edgar.Client)(nil)
	_ TickerSource   = (*edgar.Client)(nil)
)
