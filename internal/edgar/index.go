package edgar

import (
	"context"
	"fmt"
	"time"

	"filingscan/internal/util"
)

// IndexURL returns the location of the daily master index for date.
func (c *Client) IndexURL(date time.Time) string {
	return fmt.Sprintf("%s/Archives/edgar/daily-index/%d/QTR%d/master.%s.idx",
		c.baseURL, date.Year(), util.Quarter(date), date.Format("20060102"))
}

// FetchIndex downloads the raw daily master index for date. Weekends,
// holidays, and not-yet-published days surface as a *StatusError that
// unwraps to ErrIndexUnavailable.
func (c *Client) FetchIndex(ctx context.Context, date time.Time) (string, error) {
	body, err := c.get(ctx, c.IndexURL(date), ErrIndexUnavailable)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
