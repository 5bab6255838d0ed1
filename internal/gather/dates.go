package gather

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"filingscan/internal/domain"
	"filingscan/internal/util"
)

// ReadDatesFile reads the dates to process from path. The file is either
// a CSV whose header has a "date" column, or a plain list with one date in
// the first field of each line. Dates may be written as YYYY-MM-DD,
// YYYYMMDD, or MM/DD/YYYY. Blank lines and lines starting with '#' are
// ignored; repeated dates are kept once, in first-seen order.
func ReadDatesFile(path string) ([]time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDates(f)
}

// ReadDates parses a dates list from r. See ReadDatesFile.
func ReadDates(r io.Reader) ([]time.Time, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var (
		dates []time.Time
		seen  = make(map[string]struct{})
		col   = 0
		first = true
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dates: %w", err)
		}

		if first {
			first = false
			if i := headerColumn(rec, "date"); i >= 0 {
				col = i
				continue
			}
		}
		if col >= len(rec) || strings.TrimSpace(rec[col]) == "" {
			continue
		}

		line, _ := cr.FieldPos(0)
		d, err := util.ParseDate(rec[col])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		key := d.Format(domain.DateLayout)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dates = append(dates, d)
	}
	return dates, nil
}

func headerColumn(rec []string, name string) int {
	for i, cell := range rec {
		if strings.EqualFold(strings.TrimSpace(cell), name) {
			return i
		}
	}
	return -1
}
