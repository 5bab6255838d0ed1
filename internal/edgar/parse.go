package edgar

import (
	"iter"
	"strings"
	"time"

	"filingscan/internal/domain"
)

// indexHeader prefixes the column header line of a master index. Records
// follow it.
const indexHeader = "CIK|Company Name|Form Type"

// FormSet is an allow-list of form types.
type FormSet map[string]struct{}

// NewFormSet builds a FormSet from form type names.
func NewFormSet(forms []string) FormSet {
	set := make(FormSet, len(forms))
	for _, f := range forms {
		set[strings.TrimSpace(f)] = struct{}{}
	}
	return set
}

// Contains reports whether form is allowed.
func (s FormSet) Contains(form string) bool {
	_, ok := s[form]
	return ok
}

// ParseIndex returns the records of a daily master index whose form type
// is in forms, in source order. Lines before the column header are ignored.
// Lines that do not have exactly five pipe-separated fields, or whose date
// is not YYYY-MM-DD or YYYYMMDD, are skipped. The sequence may be ranged
// over any number of times.
func ParseIndex(raw string, forms FormSet) iter.Seq[domain.IndexRecord] {
	return func(yield func(domain.IndexRecord) bool) {
		inBody := false
		for line := range strings.Lines(raw) {
			line = strings.TrimRight(line, "\r\n")
			if !inBody {
				inBody = strings.HasPrefix(strings.TrimSpace(line), indexHeader)
				continue
			}

			rec, ok := parseLine(line, forms)
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

func parseLine(line string, forms FormSet) (domain.IndexRecord, bool) {
	fields := strings.Split(line, "|")
	if len(fields) != 5 {
		return domain.IndexRecord{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if !forms.Contains(fields[2]) {
		return domain.IndexRecord{}, false
	}

	date, err := parseIndexDate(fields[3])
	if err != nil {
		return domain.IndexRecord{}, false
	}

	return domain.IndexRecord{
		CIK:          PadCIK(fields[0]),
		CompanyName:  fields[1],
		FormType:     fields[2],
		FilingDate:   date,
		DocumentPath: fields[4],
	}, true
}

// parseIndexDate accepts the two encodings seen in master indexes.
func parseIndexDate(s string) (time.Time, error) {
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse("20060102", s)
}

// PadCIK left-pads a numeric CIK with zeros to ten digits.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if n := 10 - len(cik); n > 0 {
		return strings.Repeat("0", n) + cik
	}
	return cik
}
