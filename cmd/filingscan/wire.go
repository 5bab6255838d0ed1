package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"filingscan/internal/config"
	"filingscan/internal/edgar"
	"filingscan/internal/gather"
	"filingscan/internal/market"
	"filingscan/internal/store"
	"filingscan/internal/summarize"
)

// buildPipeline constructs every client from cfg and wires them into a
// Pipeline. The returned close function releases the result store.
func buildPipeline(ctx context.Context, c *config.Config, dates []time.Time, log *slog.Logger) (*gather.Pipeline, func(), error) {
	schema, err := store.SchemaByName(c.Output.Schema)
	if err != nil {
		return nil, nil, err
	}

	client := edgar.NewClient(edgar.Options{
		BaseURL:         c.EDGAR.BaseURL,
		TickersURL:      c.EDGAR.TickersURL,
		UserAgent:       c.EDGAR.UserAgent,
		RequestInterval: c.EDGAR.RequestInterval,
		Timeout:         c.EDGAR.Timeout,
		Logger:          log,
	})

	gen, err := summarize.NewGenerator(ctx, c.Summarizer)
	if err != nil {
		return nil, nil, fmt.Errorf("creating summarizer: %w", err)
	}
	if gen == nil {
		log.Warn("summarizer disabled, summaries will be empty")
	}
	summarizer := summarize.New(gen, summarize.Options{
		Instruction: c.Summarizer.Instruction,
		MaxChars:    c.Summarizer.MaxChars,
		Timeout:     c.Summarizer.Timeout,
		Logger:      log,
	})

	rs, err := store.Open(c.Output.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening output: %w", err)
	}

	deps := gather.Deps{
		Index:      client,
		Documents:  client,
		Tickers:    client,
		Summarizer: summarizer,
		Store:      rs,
	}
	if schema.Enriches() {
		deps.Market = newMarketEngine(c.MarketData, c.EDGAR.Timeout, log)
	}

	p := gather.New(deps, gather.Options{
		FormTypes:    c.Filter.EffectiveFormTypes(),
		Keywords:     c.Filter.EffectiveKeywords(),
		Schema:       schema,
		LookbackDays: c.Pipeline.LookbackDays,
		RetryDelay:   c.Pipeline.RetryDelay,
		Workers:      c.Pipeline.Workers,
		Resume:       c.Pipeline.Resume,
		Dates:        dates,
		Logger:       log,
	})

	closeFn := func() {
		if err := rs.Close(); err != nil {
			log.Warn("closing output", "path", rs.Path(), "error", err)
		}
	}
	return p, closeFn, nil
}

// newMarketEngine selects the bar and profile sources named in mc. The
// Yahoo source serves both roles when both select it.
func newMarketEngine(mc config.MarketData, timeout time.Duration, log *slog.Logger) *market.Engine {
	var (
		bars     market.BarSource
		profiles market.ProfileSource
		yahoo    *market.YahooSource
	)
	yahooSource := func() *market.YahooSource {
		if yahoo == nil {
			yahoo = market.NewYahooSource("", timeout)
		}
		return yahoo
	}

	switch mc.Provider {
	case config.MarketAlpaca:
		bars = market.NewAlpacaSource(mc.APIKey, mc.APISecret, mc.DataURL, mc.Feed)
	case config.MarketYahoo:
		bars = yahooSource()
	}
	if mc.ProfileProvider == config.MarketYahoo {
		profiles = yahooSource()
	}
	return market.NewEngine(bars, profiles, mc.RateLimitPerMin, log)
}
