package store

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"filingscan/internal/domain"
)

// KeywordSeparator joins matched keywords in a single cell.
const KeywordSeparator = ";"

// Kind is the logical type of a column, used by typed backends.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindBool
)

// Column is one output column and how to render it from a filing.
type Column struct {
	Name  string
	Kind  Kind
	value func(domain.EnrichedFiling) string
}

// Schema is an ordered set of output columns.
type Schema struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Render converts an EnrichedFiling into a Row in column order.
func (s Schema) Render(f domain.EnrichedFiling) Row {
	row := make(Row, len(s.Columns))
	for i, c := range s.Columns {
		row[i] = c.value(f)
	}
	return row
}

// RenderAll renders filings in order.
func (s Schema) RenderAll(filings []domain.EnrichedFiling) []Row {
	rows := make([]Row, len(filings))
	for i, f := range filings {
		rows[i] = s.Render(f)
	}
	return rows
}

// Enriches reports whether the schema carries price or profile columns,
// i.e. whether market data needs to be fetched at all.
func (s Schema) Enriches() bool {
	for _, c := range s.Columns {
		switch c.Name {
		case "pct_1d", "pct_3d", "pct_before", "volatility_before", "volume_change", "market_cap", "sector":
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Built-in schemas
// ---------------------------------------------------------------------------

var (
	colTicker = Column{"ticker", KindString, func(f domain.EnrichedFiling) string { return f.Ticker }}
	colForm   = Column{"form", KindString, func(f domain.EnrichedFiling) string { return f.FormType }}
	colDate   = Column{"filingDate", KindString, func(f domain.EnrichedFiling) string {
		return f.FilingDate.Format(domain.DateLayout)
	}}
	colKeywords = Column{"keywords", KindString, func(f domain.EnrichedFiling) string {
		return strings.Join(f.MatchedKeywords, KeywordSeparator)
	}}
	colSummary = Column{"summary", KindString, func(f domain.EnrichedFiling) string { return f.Summary }}

	colPct1D      = Column{"pct_1d", KindFloat, func(f domain.EnrichedFiling) string { return FormatFloat(f.Features.Pct1D) }}
	colPct3D      = Column{"pct_3d", KindFloat, func(f domain.EnrichedFiling) string { return FormatFloat(f.Features.Pct3D) }}
	colPctBefore  = Column{"pct_before", KindFloat, func(f domain.EnrichedFiling) string { return FormatFloat(f.Features.PctBefore) }}
	colVolatility = Column{"volatility_before", KindFloat, func(f domain.EnrichedFiling) string {
		return FormatFloat(f.Features.VolatilityBefore)
	}}
	colVolume = Column{"volume_change", KindFloat, func(f domain.EnrichedFiling) string {
		return FormatFloat(f.Features.VolumeChange)
	}}

	colSummaryLen = Column{"summary_length", KindInt, func(f domain.EnrichedFiling) string {
		return strconv.Itoa(utf8.RuneCountInString(f.Summary))
	}}
	colHasNumbers = Column{"has_numbers", KindBool, func(f domain.EnrichedFiling) string {
		return strconv.FormatBool(strings.IndexFunc(f.Summary, unicode.IsDigit) >= 0)
	}}
	colNumKeywords = Column{"num_keywords_matched", KindInt, func(f domain.EnrichedFiling) string {
		return strconv.Itoa(len(f.MatchedKeywords))
	}}
	colMarketCap = Column{"market_cap", KindFloat, func(f domain.EnrichedFiling) string { return FormatFloat(f.Profile.MarketCap) }}
	colSector    = Column{"sector", KindString, func(f domain.EnrichedFiling) string { return f.Profile.Sector }}
)

// FullSchema carries price features and company profile columns.
var FullSchema = Schema{
	Name: "full",
	Columns: []Column{
		colTicker, colForm, colDate, colKeywords, colSummary,
		colPct1D, colPct3D, colPctBefore, colVolatility, colVolume,
		colSummaryLen, colHasNumbers, colNumKeywords, colMarketCap, colSector,
	},
}

// BasicSchema omits every market-data column.
var BasicSchema = Schema{
	Name: "basic",
	Columns: []Column{
		colTicker, colForm, colDate, colKeywords, colSummary,
		colSummaryLen, colHasNumbers, colNumKeywords,
	},
}

// SchemaByName returns the built-in schema called name.
func SchemaByName(name string) (Schema, error) {
	switch name {
	case FullSchema.Name, "":
		return FullSchema, nil
	case BasicSchema.Name:
		return BasicSchema, nil
	}
	return Schema{}, fmt.Errorf("store: unknown schema %q", name)
}

// FormatFloat renders a known value in shortest round-trip form and an
// unknown value as the empty string.
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// parseFloatCell is the inverse of FormatFloat.
func parseFloatCell(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
