// Package domain defines the core types shared across filingscan: index
// records, matched and enriched filings, and the market-data bars the
// price feature engine consumes.
package domain

import (
	"time"
)

// DateLayout is the canonical textual form of a calendar date.
const DateLayout = "2006-01-02"

// ---------------------------------------------------------------------------
// Index
// ---------------------------------------------------------------------------

// IndexRecord is one row of the EDGAR daily master index.
type IndexRecord struct {
	CIK          string // 10-digit, zero padded
	CompanyName  string
	FormType     string
	FilingDate   time.Time // midnight UTC
	DocumentPath string    // relative to the Archives root
}

// MatchedFiling is an IndexRecord whose document contained at least one
// configured keyword.
type MatchedFiling struct {
	IndexRecord
	MatchedKeywords []string // configured-list order
	DocumentURL     string
}

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Bar is a single daily OHLCV bar.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// PriceFeatures holds the price and volume signals computed around a
// filing date. A nil field means the value is unknown.
type PriceFeatures struct {
	Pct1D            *float64
	Pct3D            *float64
	PctBefore        *float64
	VolatilityBefore *float64
	VolumeChange     *float64
}

// Known reports whether at least one feature is known.
func (p PriceFeatures) Known() bool {
	return p.Pct1D != nil || p.Pct3D != nil || p.PctBefore != nil ||
		p.VolatilityBefore != nil || p.VolumeChange != nil
}

// Profile holds fundamental attributes of the filer's traded security.
type Profile struct {
	MarketCap *float64
	Sector    string
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

// EnrichedFiling is the final output record for one matched filing.
type EnrichedFiling struct {
	Ticker          string
	FormType        string
	FilingDate      time.Time
	MatchedKeywords []string
	Summary         string
	Features        PriceFeatures
	Profile         Profile
}

// Float returns a pointer to v, for building known feature values.
func Float(v float64) *float64 { return &v }
