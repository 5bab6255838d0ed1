// Package edgar talks to the SEC EDGAR public archive: the daily master
// index, the company ticker registry, and individual filing documents.
package edgar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"filingscan/internal/util"
)

// DefaultBaseURL is the public EDGAR host.
const DefaultBaseURL = "https://www.sec.gov"

var (
	// ErrIndexUnavailable is returned when a daily index cannot be fetched.
	ErrIndexUnavailable = errors.New("edgar: daily index unavailable")

	// ErrFetch is returned when a filing document or registry cannot be
	// fetched.
	ErrFetch = errors.New("edgar: fetch failed")
)

// StatusError reports a non-success HTTP status from EDGAR. It unwraps to
// the sentinel describing which resource failed.
type StatusError struct {
	URL        string
	StatusCode int
	kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: GET %s: HTTP %d", e.kind, e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return e.kind }

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL         string
	TickersURL      string
	UserAgent       string
	RequestInterval time.Duration
	Timeout         time.Duration
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// Client fetches EDGAR resources. Every request carries the configured
// User-Agent and waits on a shared pacer, so a single Client may be used
// from many goroutines without exceeding the configured request rate.
type Client struct {
	baseURL    string
	tickersURL string
	userAgent  string
	http       *http.Client
	pacer      *util.Pacer
	log        *slog.Logger
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	tickers := opts.TickersURL
	if tickers == "" {
		tickers = base + "/files/company_tickers.json"
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    base,
		tickersURL: tickers,
		userAgent:  opts.UserAgent,
		http:       hc,
		pacer:      util.NewPacer(opts.RequestInterval),
		log:        logger.With("component", "edgar"),
	}
}

// get performs a paced GET and returns the body. Non-2xx statuses become a
// *StatusError unwrapping to kind; transport failures wrap kind as well.
func (c *Client) get(ctx context.Context, url string, kind error) ([]byte, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kind, err)
	}
	// net/http negotiates gzip transparently as long as Accept-Encoding is
	// left unset.
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: GET %s: %v", kind, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, kind: kind}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", kind, url, err)
	}

	c.log.Debug("fetched", "url", url, "bytes", len(body), "elapsed", time.Since(start))
	return body, nil
}
