package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// dateColumn is the position of filingDate in every built-in schema.
const dateColumn = 2

// Merge returns the union of existing and incoming with exact duplicate
// rows removed, in canonical order. Merge is commutative and idempotent:
// Merge(a, b) equals Merge(b, a), and Merge(a, a) equals Merge(a, nil).
// Neither input is modified.
func Merge(existing, incoming []Row) []Row {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]Row, 0, len(existing)+len(incoming))
	for _, set := range [][]Row{existing, incoming} {
		for _, r := range set {
			k := rowKey(r)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			merged = append(merged, slices.Clone(r))
		}
	}
	slices.SortFunc(merged, compareRows)
	return merged
}

// Accumulate merges incoming into the table held by s and rewrites it.
// It returns the number of rows persisted.
func Accumulate(ctx context.Context, s ResultStore, schema Schema, incoming []Row) (int, error) {
	existing, err := s.Load(ctx, schema)
	if err != nil {
		return 0, err
	}
	merged := Merge(existing, incoming)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.Save(ctx, schema, merged); err != nil {
		return 0, fmt.Errorf("store: saving %s: %w", s.Path(), err)
	}
	return len(merged), nil
}

func rowKey(r Row) string {
	return strings.Join(r, "\x1f")
}

// compareRows orders by filing date, then cell by cell, then by length.
func compareRows(a, b Row) int {
	if len(a) > dateColumn && len(b) > dateColumn {
		if c := strings.Compare(a[dateColumn], b[dateColumn]); c != 0 {
			return c
		}
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}
