package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TickerDirectory maps between ticker symbols and ten-digit CIKs. It is
// read-only after construction and safe for concurrent lookups.
type TickerDirectory struct {
	byCIK    map[string]string
	byTicker map[string]string
}

// TickerEntry is one row of the SEC company ticker registry.
type TickerEntry struct {
	CIK    string
	Ticker string
	Title  string
}

// NewTickerDirectory builds a directory from entries. When a CIK or ticker
// appears more than once, the last entry wins.
func NewTickerDirectory(entries []TickerEntry) *TickerDirectory {
	d := &TickerDirectory{
		byCIK:    make(map[string]string, len(entries)),
		byTicker: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		cik := PadCIK(e.CIK)
		ticker := strings.ToUpper(strings.TrimSpace(e.Ticker))
		if cik == "" || ticker == "" {
			continue
		}
		d.byCIK[cik] = ticker
		d.byTicker[ticker] = cik
	}
	return d
}

// EmptyTickerDirectory returns a directory that resolves nothing.
func EmptyTickerDirectory() *TickerDirectory {
	return NewTickerDirectory(nil)
}

// Resolve returns the ticker for a CIK. The CIK may be given with or
// without leading zeros.
func (d *TickerDirectory) Resolve(cik string) (string, bool) {
	t, ok := d.byCIK[PadCIK(cik)]
	return t, ok
}

// CIK returns the ten-digit CIK for a ticker symbol.
func (d *TickerDirectory) CIK(ticker string) (string, bool) {
	c, ok := d.byTicker[strings.ToUpper(ticker)]
	return c, ok
}

// Len returns the number of distinct CIKs in the directory.
func (d *TickerDirectory) Len() int { return len(d.byCIK) }

type registryEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// ParseTickerDirectory decodes company_tickers.json. The registry is an
// object keyed by row number; rows are applied in ascending key order so
// duplicate handling matches file order.
func ParseTickerDirectory(raw []byte) (*TickerDirectory, error) {
	var rows map[string]registryEntry
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decoding ticker registry: %w", err)
	}

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr == nil && berr == nil {
			return ai - bi
		}
		return strings.Compare(a, b)
	})

	entries := make([]TickerEntry, 0, len(rows))
	for _, k := range keys {
		r := rows[k]
		entries = append(entries, TickerEntry{CIK: r.CIK.String(), Ticker: r.Ticker, Title: r.Title})
	}
	return NewTickerDirectory(entries), nil
}

// FetchTickerDirectory downloads and parses the company ticker registry.
func (c *Client) FetchTickerDirectory(ctx context.Context) (*TickerDirectory, error) {
	body, err := c.get(ctx, c.tickersURL, ErrFetch)
	if err != nil {
		return nil, err
	}
	dir, err := ParseTickerDirectory(body)
	if err != nil {
		return nil, err
	}
	c.log.Info("ticker directory loaded", "entries", dir.Len())
	return dir, nil
}
