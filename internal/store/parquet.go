package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// Compile-time interface check.
var _ ResultStore = (*ParquetStore)(nil)

// ParquetStore keeps the result table in a single Parquet file with typed
// columns. Unknown numbers are stored as nulls.
type ParquetStore struct {
	path string
}

// NewParquetStore creates a ParquetStore at path.
func NewParquetStore(path string) *ParquetStore {
	return &ParquetStore{path: path}
}

func (s *ParquetStore) Path() string { return s.path }

func (s *ParquetStore) Close() error { return nil }

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// FullRecord is the Parquet schema for the full result table.
type FullRecord struct {
	Ticker             string   `parquet:"ticker"`
	Form               string   `parquet:"form"`
	FilingDate         string   `parquet:"filingDate"`
	Keywords           string   `parquet:"keywords"`
	Summary            string   `parquet:"summary"`
	Pct1D              *float64 `parquet:"pct_1d,optional"`
	Pct3D              *float64 `parquet:"pct_3d,optional"`
	PctBefore          *float64 `parquet:"pct_before,optional"`
	VolatilityBefore   *float64 `parquet:"volatility_before,optional"`
	VolumeChange       *float64 `parquet:"volume_change,optional"`
	SummaryLength      int64    `parquet:"summary_length"`
	HasNumbers         bool     `parquet:"has_numbers"`
	NumKeywordsMatched int64    `parquet:"num_keywords_matched"`
	MarketCap          *float64 `parquet:"market_cap,optional"`
	Sector             string   `parquet:"sector"`
}

// BasicRecord is the Parquet schema for the basic result table.
type BasicRecord struct {
	Ticker             string `parquet:"ticker"`
	Form               string `parquet:"form"`
	FilingDate         string `parquet:"filingDate"`
	Keywords           string `parquet:"keywords"`
	Summary            string `parquet:"summary"`
	SummaryLength      int64  `parquet:"summary_length"`
	HasNumbers         bool   `parquet:"has_numbers"`
	NumKeywordsMatched int64  `parquet:"num_keywords_matched"`
}

// ---------------------------------------------------------------------------
// ResultStore implementation
// ---------------------------------------------------------------------------

// Load reads the table. A missing file yields no rows.
func (s *ParquetStore) Load(_ context.Context, schema Schema) ([]Row, error) {
	cols, err := parquetColumns(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s schema: %w", s.path, err)
	}
	want := schema.ColumnNames()
	if !sameColumns(cols, want) {
		return nil, mismatch(s.path, cols, want)
	}

	switch schema.Name {
	case BasicSchema.Name:
		records, err := readParquetFile[BasicRecord](s.path)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, len(records))
		for i, r := range records {
			rows[i] = r.row()
		}
		return rows, nil
	default:
		records, err := readParquetFile[FullRecord](s.path)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, len(records))
		for i, r := range records {
			rows[i] = r.row()
		}
		return rows, nil
	}
}

// Save writes the table to a temporary file and renames it into place.
func (s *ParquetStore) Save(_ context.Context, schema Schema, rows []Row) error {
	tmp := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp")
	defer os.Remove(tmp)

	var err error
	switch schema.Name {
	case BasicSchema.Name:
		records := make([]BasicRecord, len(rows))
		for i, r := range rows {
			if records[i], err = basicRecordFromRow(r); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
		err = writeParquetFile(tmp, records)
	default:
		records := make([]FullRecord, len(rows))
		for i, r := range rows {
			if records[i], err = fullRecordFromRow(r); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
		err = writeParquetFile(tmp, records)
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// ---------------------------------------------------------------------------
// Row conversion
// ---------------------------------------------------------------------------

func (r FullRecord) row() Row {
	return Row{
		r.Ticker, r.Form, r.FilingDate, r.Keywords, r.Summary,
		FormatFloat(r.Pct1D), FormatFloat(r.Pct3D), FormatFloat(r.PctBefore),
		FormatFloat(r.VolatilityBefore), FormatFloat(r.VolumeChange),
		strconv.FormatInt(r.SummaryLength, 10), strconv.FormatBool(r.HasNumbers),
		strconv.FormatInt(r.NumKeywordsMatched, 10), FormatFloat(r.MarketCap), r.Sector,
	}
}

func fullRecordFromRow(row Row) (FullRecord, error) {
	if len(row) != len(FullSchema.Columns) {
		return FullRecord{}, fmt.Errorf("got %d cells, want %d", len(row), len(FullSchema.Columns))
	}
	p := cellParser{row: row}
	rec := FullRecord{
		Ticker:             row[0],
		Form:               row[1],
		FilingDate:         row[2],
		Keywords:           row[3],
		Summary:            row[4],
		Pct1D:              p.float(5),
		Pct3D:              p.float(6),
		PctBefore:          p.float(7),
		VolatilityBefore:   p.float(8),
		VolumeChange:       p.float(9),
		SummaryLength:      p.int(10),
		HasNumbers:         p.bool(11),
		NumKeywordsMatched: p.int(12),
		MarketCap:          p.float(13),
		Sector:             row[14],
	}
	return rec, p.err
}

func (r BasicRecord) row() Row {
	return Row{
		r.Ticker, r.Form, r.FilingDate, r.Keywords, r.Summary,
		strconv.FormatInt(r.SummaryLength, 10), strconv.FormatBool(r.HasNumbers),
		strconv.FormatInt(r.NumKeywordsMatched, 10),
	}
}

func basicRecordFromRow(row Row) (BasicRecord, error) {
	if len(row) != len(BasicSchema.Columns) {
		return BasicRecord{}, fmt.Errorf("got %d cells, want %d", len(row), len(BasicSchema.Columns))
	}
	p := cellParser{row: row}
	rec := BasicRecord{
		Ticker:             row[0],
		Form:               row[1],
		FilingDate:         row[2],
		Keywords:           row[3],
		Summary:            row[4],
		SummaryLength:      p.int(5),
		HasNumbers:         p.bool(6),
		NumKeywordsMatched: p.int(7),
	}
	return rec, p.err
}

// cellParser converts typed cells and remembers the first failure.
type cellParser struct {
	row Row
	err error
}

func (p *cellParser) fail(i int, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("cell %d (%q): %w", i, p.row[i], err)
	}
}

func (p *cellParser) float(i int) *float64 {
	v, err := parseFloatCell(p.row[i])
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *cellParser) int(i int) int64 {
	if p.row[i] == "" {
		return 0
	}
	v, err := strconv.ParseInt(p.row[i], 10, 64)
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *cellParser) bool(i int) bool {
	if p.row[i] == "" {
		return false
	}
	v, err := strconv.ParseBool(p.row[i])
	if err != nil {
		p.fail(i, err)
	}
	return v
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// parquetColumns returns the top-level column names of a Parquet file.
func parquetColumns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, err
	}

	fields := pf.Schema().Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
	}
	return names, nil
}
