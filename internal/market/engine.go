package market

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"filingscan/internal/domain"
)

// BarSource returns daily bars for a symbol between start and end.
type BarSource interface {
	Name() string
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// ProfileSource returns market capitalisation and sector for a symbol.
type ProfileSource interface {
	Profile(ctx context.Context, symbol string) (domain.Profile, error)
}

// Engine fetches market data through rate-limited sources and converts it
// into features. Every failure degrades to unknown values; nothing is
// returned to the caller as an error.
type Engine struct {
	bars     BarSource
	profiles ProfileSource
	limiter  *rate.Limiter
	log      *slog.Logger
}

// NewEngine creates an Engine. Either source may be nil, which disables
// the corresponding lookups. perMinute caps provider requests; zero or
// negative means unlimited.
func NewEngine(bars BarSource, profiles ProfileSource, perMinute int, logger *slog.Logger) *Engine {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		bars:     bars,
		profiles: profiles,
		limiter:  rate.NewLimiter(limit, 1),
		log:      logger.With("component", "market"),
	}
}

// Features returns the price features for ticker around filingDate. An
// empty ticker yields all-unknown features without any provider call.
func (e *Engine) Features(ctx context.Context, ticker string, filingDate time.Time) domain.PriceFeatures {
	if ticker == "" || e.bars == nil {
		return domain.PriceFeatures{}
	}
	if err := e.limiter.Wait(ctx); err != nil {
		e.log.Warn("market data throttle", "ticker", ticker, "error", err)
		return domain.PriceFeatures{}
	}

	start, end := Window(filingDate)
	bars, err := e.bars.DailyBars(ctx, ticker, start, end)
	if err != nil {
		e.log.Warn("price fetch failed", "ticker", ticker, "source", e.bars.Name(), "error", err)
		return domain.PriceFeatures{}
	}

	f := ComputeFeatures(bars, filingDate)
	if !f.Known() {
		e.log.Debug("filing date not in price series", "ticker", ticker, "date", filingDate.Format(domain.DateLayout), "bars", len(bars))
	}
	return f
}

// Profile returns company profile data for ticker, or the zero Profile.
func (e *Engine) Profile(ctx context.Context, ticker string) domain.Profile {
	if ticker == "" || e.profiles == nil {
		return domain.Profile{}
	}
	if err := e.limiter.Wait(ctx); err != nil {
		e.log.Warn("market data throttle", "ticker", ticker, "error", err)
		return domain.Profile{}
	}

	p, err := e.profiles.Profile(ctx, ticker)
	if err != nil {
		e.log.Warn("profile fetch failed", "ticker", ticker, "error", err)
		return domain.Profile{}
	}
	return p
}
