package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"filingscan/internal/domain"
)

// DefaultYahooURL is the Yahoo Finance query host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// Yahoo rejects requests without a browser-like agent.
const yahooUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// YahooSource reads daily bars from the v8 chart API and company profiles
// from the v10 quoteSummary API. It needs no credentials.
type YahooSource struct {
	baseURL string
	http    *http.Client
}

// NewYahooSource creates a YahooSource. An empty baseURL selects the
// public host.
func NewYahooSource(baseURL string, timeout time.Duration) *YahooSource {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

// --- wire types ---

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []yfOHLCV `json:"quote"`
	} `json:"indicators"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile *struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
			SummaryDetail *struct {
				MarketCap *struct {
					Raw *float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *yfError `json:"error"`
	} `json:"quoteSummary"`
}

// DailyBars implements BarSource. Sessions without a close are dropped.
func (s *YahooSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		s.baseURL, url.PathEscape(symbol), start.Unix(), end.Unix())

	var resp yfChartResponse
	if err := s.fetchJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: no data", symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := result.Indicators.Quote[0]

	bars := make([]domain.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		b := domain.Bar{
			Symbol:    strings.ToUpper(symbol),
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			b.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			b.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			b.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// Profile implements ProfileSource.
func (s *YahooSource) Profile(ctx context.Context, symbol string) (domain.Profile, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile,summaryDetail",
		s.baseURL, url.PathEscape(symbol))

	var resp yfQuoteSummaryResponse
	if err := s.fetchJSON(ctx, u, &resp); err != nil {
		return domain.Profile{}, fmt.Errorf("yahoo profile %s: %w", symbol, err)
	}
	if resp.QuoteSummary.Error != nil {
		return domain.Profile{}, fmt.Errorf("yahoo profile %s: %s", symbol, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return domain.Profile{}, fmt.Errorf("yahoo profile %s: no data", symbol)
	}

	r := resp.QuoteSummary.Result[0]
	var p domain.Profile
	if r.AssetProfile != nil {
		p.Sector = r.AssetProfile.Sector
	}
	if r.SummaryDetail != nil && r.SummaryDetail.MarketCap != nil && r.SummaryDetail.MarketCap.Raw != nil {
		p.MarketCap = domain.Float(*r.SummaryDetail.MarketCap.Raw)
	}
	return p, nil
}

func (s *YahooSource) fetchJSON(ctx context.Context, u string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	// Yahoo reports most errors in the JSON envelope, so only fail on the
	// status when the body does not decode.
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("HTTP %d: parse JSON: %w", resp.StatusCode, err)
	}
	return nil
}
