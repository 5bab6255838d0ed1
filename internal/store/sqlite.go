package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

// tableName is the SQLite table holding result rows.
const tableName = "filings"

// SQLiteStore keeps the result table in a SQLite database. Every column is
// TEXT; unknown values are NULL.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// NewSQLiteStore opens (or creates on first write) a SQLite database at
// dbPath and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStore{path: dbPath, db: db}, nil
}

func (s *SQLiteStore) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the table. A missing database or table yields no rows.
func (s *SQLiteStore) Load(ctx context.Context, schema Schema) ([]Row, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	cols, err := s.columns(ctx)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}
	want := schema.ColumnNames()
	if !sameColumns(cols, want) {
		return nil, mismatch(s.path, cols, want)
	}

	rs, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", quoteList(want), tableName))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.path, err)
	}
	defer rs.Close()

	var rows []Row
	cells := make([]sql.NullString, len(want))
	dest := make([]any, len(want))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rs.Next() {
		if err := rs.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(Row, len(cells))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

// Save replaces the table contents inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, schema Schema, rows []Row) error {
	names := schema.ColumnNames()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	defs := make([]string, len(names))
	for i, n := range names {
		defs[i] = quote(n) + " TEXT"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableName); err != nil {
		return fmt.Errorf("clearing table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName, quoteList(names), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for n, r := range rows {
		if len(r) != len(names) {
			return fmt.Errorf("row %d: got %d cells, want %d", n, len(r), len(names))
		}
		for i, cell := range r {
			if cell == "" {
				args[i] = nil
			} else {
				args[i] = cell
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", n, err)
		}
	}

	return tx.Commit()
}

// columns returns the filings table's column names in declaration order,
// or nil when the table does not exist.
func (s *SQLiteStore) columns(ctx context.Context) ([]string, error) {
	rs, err := s.db.QueryContext(ctx, "PRAGMA table_info("+tableName+")")
	if err != nil {
		return nil, fmt.Errorf("reading %s schema: %w", s.path, err)
	}
	defer rs.Close()

	var cols []string
	for rs.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rs.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rs.Err()
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteList(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = quote(n)
	}
	return strings.Join(q, ", ")
}
