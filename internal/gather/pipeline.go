package gather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"filingscan/internal/domain"
	"filingscan/internal/edgar"
	"filingscan/internal/scan"
	"filingscan/internal/store"
	"filingscan/internal/util"
)

// ErrNoIndexFound is returned by most-recent mode when no daily index could
// be fetched within the lookback window.
var ErrNoIndexFound = errors.New("no daily index found")

// Compile-time interface check.
var _ Gatherer = (*Pipeline)(nil)

// Deps are the external collaborators of a Pipeline.
type Deps struct {
	Index      IndexSource
	Documents  DocumentSource
	Tickers    TickerSource
	Summarizer Summarizer
	Market     MarketData
	Store      store.ResultStore
}

// Options configure a Pipeline. Zero values select the defaults.
type Options struct {
	FormTypes    []string
	Keywords     []string
	Schema       store.Schema
	LookbackDays int
	RetryDelay   time.Duration
	Workers      int
	Resume       bool

	// Dates, when set, makes Run process exactly these dates instead of
	// discovering the most recent index.
	Dates []time.Time

	Now    func() time.Time
	Logger *slog.Logger
}

// Pipeline is the filing discovery and enrichment pipeline.
type Pipeline struct {
	deps     Deps
	forms    edgar.FormSet
	matcher  *scan.Matcher
	schema   store.Schema
	lookback int
	delay    time.Duration
	workers  int
	resume   bool
	dates    []time.Time
	now      func() time.Time
	log      *slog.Logger
}

// Stats summarises one run.
type Stats struct {
	Dates      int // dates whose index was processed
	Skipped    int // dates skipped (unavailable or already completed)
	Candidates int // allow-listed index records
	Matched    int // filings with at least one keyword
	Rows       int // rows in the result table after the last write
}

// New creates a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if opts.Schema.Name == "" {
		opts.Schema = store.FullSchema
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 7
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		deps:     deps,
		forms:    edgar.NewFormSet(opts.FormTypes),
		matcher:  scan.NewMatcher(opts.Keywords),
		schema:   opts.Schema,
		lookback: opts.LookbackDays,
		delay:    opts.RetryDelay,
		workers:  opts.Workers,
		resume:   opts.Resume,
		dates:    opts.Dates,
		now:      opts.Now,
		log:      opts.Logger.With("component", "pipeline"),
	}
}

// Name returns the gatherer identifier.
func (p *Pipeline) Name() string { return "filingscan" }

// Run processes the configured dates, or the most recent available index
// when no dates are configured.
func (p *Pipeline) Run(ctx context.Context) error {
	var (
		stats Stats
		err   error
	)
	if len(p.dates) > 0 {
		stats, err = p.RunDates(ctx, p.dates)
	} else {
		stats, err = p.RunLatest(ctx)
	}
	if err != nil {
		return err
	}
	p.log.Info("run complete",
		"dates", stats.Dates,
		"skipped", stats.Skipped,
		"candidates", stats.Candidates,
		"matched", stats.Matched,
		"rows", stats.Rows,
	)
	return nil
}

// ---------------------------------------------------------------------------
// Modes
// ---------------------------------------------------------------------------

// RunLatest walks back from yesterday one calendar day at a time until a
// daily index is found, then processes that date. When every day in the
// lookback window fails it returns ErrNoIndexFound and writes nothing.
func (p *Pipeline) RunLatest(ctx context.Context) (Stats, error) {
	var stats Stats

	tracker, err := p.openTracker()
	if err != nil {
		return stats, err
	}
	defer tracker.Close()

	yesterday := util.Day(p.now()).AddDate(0, 0, -1)
	var (
		found time.Time
		raw   string
		done  bool
	)
	policy := util.RetryPolicy{
		MaxAttempts: p.lookback,
		Delay:       p.delay,
		OnRetry: func(attempt int, err error) {
			p.log.Warn("daily index unavailable, trying previous day",
				"date", yesterday.AddDate(0, 0, -attempt).Format(domain.DateLayout), "error", err)
		},
	}
	err = policy.Do(ctx, func(attempt int) error {
		date := yesterday.AddDate(0, 0, -attempt)
		if tracker.IsCompleted(date) {
			found, done = date, true
			return nil
		}
		text, err := p.deps.Index.FetchIndex(ctx, date)
		if err != nil {
			if ctx.Err() != nil {
				return util.Permanent(ctx.Err())
			}
			return err
		}
		found, raw = date, text
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		oldest := yesterday.AddDate(0, 0, -(p.lookback - 1))
		return stats, fmt.Errorf("%w between %s and %s: %v", ErrNoIndexFound,
			oldest.Format(domain.DateLayout), yesterday.Format(domain.DateLayout), err)
	}

	if done {
		p.log.Info("latest index already completed", "date", found.Format(domain.DateLayout))
		stats.Skipped++
		return stats, nil
	}

	dir := p.loadDirectory(ctx)
	if err := p.processDate(ctx, found, raw, dir, tracker, &stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// RunDates processes each date in order. A date whose index cannot be
// fetched is skipped with a warning.
func (p *Pipeline) RunDates(ctx context.Context, dates []time.Time) (Stats, error) {
	var stats Stats

	tracker, err := p.openTracker()
	if err != nil {
		return stats, err
	}
	defer tracker.Close()

	dir := p.loadDirectory(ctx)

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		date = util.Day(date)
		dateStr := date.Format(domain.DateLayout)

		if tracker.IsCompleted(date) {
			p.log.Info("date already completed, skipping", "date", dateStr)
			stats.Skipped++
			continue
		}

		raw, err := p.deps.Index.FetchIndex(ctx, date)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			p.log.Warn("skipping date, index unavailable", "date", dateStr, "error", err)
			stats.Skipped++
			continue
		}

		if err := p.processDate(ctx, date, raw, dir, tracker, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// ---------------------------------------------------------------------------
// Per-date and per-filing work
// ---------------------------------------------------------------------------

// processDate scans one index, persists the enriched matches, and marks
// the date completed once the write has succeeded.
func (p *Pipeline) processDate(ctx context.Context, date time.Time, raw string, dir *edgar.TickerDirectory, tracker *progressTracker, stats *Stats) error {
	dateStr := date.Format(domain.DateLayout)
	start := time.Now()

	filings, candidates, err := p.processIndex(ctx, raw, dir)
	if err != nil {
		return err
	}

	rows, err := store.Accumulate(ctx, p.deps.Store, p.schema, p.schema.RenderAll(filings))
	if err != nil {
		return err
	}
	if err := tracker.MarkCompleted(date); err != nil {
		return fmt.Errorf("marking %s completed: %w", dateStr, err)
	}

	stats.Dates++
	stats.Candidates += candidates
	stats.Matched += len(filings)
	stats.Rows = rows

	p.log.Info("date processed",
		"date", dateStr,
		"candidates", candidates,
		"matched", len(filings),
		"rows", rows,
		"output", p.deps.Store.Path(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// processIndex parses raw and processes every candidate through a bounded
// worker pool. Results keep index order regardless of scheduling.
func (p *Pipeline) processIndex(ctx context.Context, raw string, dir *edgar.TickerDirectory) ([]domain.EnrichedFiling, int, error) {
	records := slices.Collect(edgar.ParseIndex(raw, p.forms))
	slots := make([]*domain.EnrichedFiling, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			f, ok, err := p.processFiling(gctx, rec, dir)
			if err != nil {
				return err
			}
			if ok {
				slots[i] = &f
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, len(records), err
	}
	if err := ctx.Err(); err != nil {
		return nil, len(records), err
	}

	filings := make([]domain.EnrichedFiling, 0, len(records))
	for _, f := range slots {
		if f != nil {
			filings = append(filings, *f)
		}
	}
	return filings, len(records), nil
}

// processFiling fetches and scans one document and, on a keyword match,
// enriches it. It reports false for filings that are dropped. The only
// error it returns is context cancellation.
func (p *Pipeline) processFiling(ctx context.Context, rec domain.IndexRecord, dir *edgar.TickerDirectory) (domain.EnrichedFiling, bool, error) {
	text, err := p.deps.Documents.FetchDocument(ctx, rec.DocumentPath)
	if err != nil {
		if ctx.Err() != nil {
			return domain.EnrichedFiling{}, false, ctx.Err()
		}
		p.log.Warn("document fetch failed", "cik", rec.CIK, "path", rec.DocumentPath, "error", err)
		return domain.EnrichedFiling{}, false, nil
	}

	keywords := p.matcher.Match(text)
	if len(keywords) == 0 {
		return domain.EnrichedFiling{}, false, nil
	}
	matched := domain.MatchedFiling{
		IndexRecord:     rec,
		MatchedKeywords: keywords,
		DocumentURL:     p.deps.Documents.DocumentURL(rec.DocumentPath),
	}

	ticker, ok := dir.Resolve(matched.CIK)
	if !ok {
		p.log.Debug("no ticker for CIK", "cik", matched.CIK, "company", matched.CompanyName)
	}
	p.log.Info("filing matched",
		"ticker", ticker,
		"form", matched.FormType,
		"keywords", len(keywords),
		"url", matched.DocumentURL,
	)

	out := domain.EnrichedFiling{
		Ticker:          ticker,
		FormType:        matched.FormType,
		FilingDate:      matched.FilingDate,
		MatchedKeywords: matched.MatchedKeywords,
	}
	if p.deps.Summarizer != nil {
		out.Summary = p.deps.Summarizer.Summarize(ctx, edgar.PlainText(text))
	}
	if p.deps.Market != nil && p.schema.Enriches() {
		out.Features = p.deps.Market.Features(ctx, ticker, matched.FilingDate)
		out.Profile = p.deps.Market.Profile(ctx, ticker)
	}
	if err := ctx.Err(); err != nil {
		return domain.EnrichedFiling{}, false, err
	}
	return out, true, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// loadDirectory fetches the ticker directory, falling back to an empty one
// so that filings are still recorded without tickers.
func (p *Pipeline) loadDirectory(ctx context.Context) *edgar.TickerDirectory {
	if p.deps.Tickers == nil {
		return edgar.EmptyTickerDirectory()
	}
	dir, err := p.deps.Tickers.FetchTickerDirectory(ctx)
	if err != nil {
		p.log.Error("ticker directory unavailable, continuing without tickers", "error", err)
		return edgar.EmptyTickerDirectory()
	}
	return dir
}

func (p *Pipeline) openTracker() (*progressTracker, error) {
	if !p.resume {
		return disabledTracker(), nil
	}
	t, err := newProgressTracker(p.deps.Store.Path() + ".completed")
	if err != nil {
		return nil, fmt.Errorf("creating progress tracker: %w", err)
	}
	return t, nil
}
