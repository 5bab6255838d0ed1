// Package store persists enriched filings as a deduplicated result table.
// The on-disk format is chosen by file extension: CSV (default), Parquet,
// or SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrSchemaMismatch is returned when a persisted table's columns differ
// from the active schema.
var ErrSchemaMismatch = errors.New("store: persisted columns do not match schema")

// Row is one result row, one cell per schema column. An empty cell means
// the value is unknown.
type Row []string

// ResultStore loads and atomically replaces a whole result table.
type ResultStore interface {
	// Load returns the persisted rows. A missing table yields no rows and
	// no error. A table with different columns yields ErrSchemaMismatch.
	Load(ctx context.Context, schema Schema) ([]Row, error)

	// Save replaces the persisted table with rows. Readers never observe
	// a partially written table.
	Save(ctx context.Context, schema Schema, rows []Row) error

	// Path returns the location of the table.
	Path() string

	Close() error
}

// Open returns the ResultStore for path, chosen by extension: ".parquet"
// selects Parquet, ".db" / ".sqlite" / ".sqlite3" select SQLite, anything
// else is CSV.
func Open(path string) (ResultStore, error) {
	if path == "" {
		return nil, errors.New("store: empty output path")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return NewParquetStore(path), nil
	case ".db", ".sqlite", ".sqlite3":
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("store: open %s: %w", path, err)
		}
		return s, nil
	default:
		return NewCSVStore(path), nil
	}
}

// mismatch builds an ErrSchemaMismatch with both column lists.
func mismatch(path string, got, want []string) error {
	return fmt.Errorf("%w: %s has [%s], schema expects [%s]",
		ErrSchemaMismatch, path, strings.Join(got, ","), strings.Join(want, ","))
}

func sameColumns(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
