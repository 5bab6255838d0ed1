package edgar

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DocumentURL returns the archive URL of a filing document given the
// path column of a master index record.
func (c *Client) DocumentURL(path string) string {
	return c.baseURL + "/Archives/" + strings.TrimPrefix(path, "/")
}

// FetchDocument downloads the full text of a filing. Failures surface as
// errors wrapping ErrFetch.
func (c *Client) FetchDocument(ctx context.Context, path string) (string, error) {
	body, err := c.get(ctx, c.DocumentURL(path), ErrFetch)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PlainText strips markup from a filing and collapses whitespace. Full
// submission files wrap HTML exhibits in SGML envelopes; both parse as
// HTML well enough to extract readable text. Input that fails to parse is
// returned with whitespace collapsed.
func PlainText(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}
	doc.Find("script, style, head, title").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
