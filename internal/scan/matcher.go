// Package scan decides which filing documents are worth enriching.
package scan

import (
	"strings"

	"github.com/samber/lo"
)

// Matcher finds configured keywords in document text. Matching is
// case-insensitive on both sides and reports keywords in the order they
// were configured.
type Matcher struct {
	keywords []string
	lowered  []string
}

// NewMatcher creates a Matcher for keywords. Blank and repeated keywords
// (compared case-insensitively) are dropped; the first spelling is kept.
func NewMatcher(keywords []string) *Matcher {
	kws := lo.UniqBy(
		lo.Filter(lo.Map(keywords, func(k string, _ int) string { return strings.TrimSpace(k) }),
			func(k string, _ int) bool { return k != "" }),
		strings.ToLower,
	)
	return &Matcher{
		keywords: kws,
		lowered:  lo.Map(kws, func(k string, _ int) string { return strings.ToLower(k) }),
	}
}

// Keywords returns the configured keywords in match order.
func (m *Matcher) Keywords() []string {
	return append([]string(nil), m.keywords...)
}

// Match returns the keywords that occur in text. An empty result means
// the document should be dropped.
func (m *Matcher) Match(text string) []string {
	if len(m.keywords) == 0 || text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var hits []string
	for i, kw := range m.lowered {
		if strings.Contains(lower, kw) {
			hits = append(hits, m.keywords[i])
		}
	}
	return hits
}
