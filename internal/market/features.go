// Package market derives short-horizon price features around a filing
// date from daily bars, and looks up basic company profile data.
package market

import (
	"math"
	"slices"
	"time"

	"filingscan/internal/domain"
	"filingscan/internal/util"
)

// Window bounds for the daily series fetched around a filing.
const (
	DaysBefore = 7
	DaysAfter  = 5

	// lookback is the number of sessions before the filing used for the
	// volatility and volume baselines.
	lookback = 5
)

// Window returns the calendar range of daily bars needed for filingDate.
func Window(filingDate time.Time) (start, end time.Time) {
	d := util.Day(filingDate)
	return d.AddDate(0, 0, -DaysBefore), d.AddDate(0, 0, DaysAfter)
}

// ComputeFeatures derives the price features for filingDate from bars. The
// filing date is located among the bars' exchange-local calendar dates. If
// it is absent every feature is unknown. A feature whose inputs fall
// outside the series or whose denominator is zero is unknown as well.
// The function is pure: it never mutates bars.
func ComputeFeatures(bars []domain.Bar, filingDate time.Time) domain.PriceFeatures {
	var f domain.PriceFeatures
	if len(bars) == 0 {
		return f
	}

	series := slices.Clone(bars)
	slices.SortStableFunc(series, func(a, b domain.Bar) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	loc := util.ExchangeLocation()
	idx := slices.IndexFunc(series, func(b domain.Bar) bool {
		return util.SameDay(b.Timestamp, loc, filingDate)
	})
	if idx < 0 {
		return f
	}

	f.Pct1D = change(series, idx-1, idx+1)
	f.Pct3D = change(series, idx, idx+3)
	f.PctBefore = change(series, idx-1, idx)

	prior := series[max(0, idx-lookback):idx]
	f.VolatilityBefore = sampleStdDev(prior)
	f.VolumeChange = volumeRatio(series[idx], prior)

	return f
}

// change returns the fractional close-to-close move from bars[from] to
// bars[to].
func change(bars []domain.Bar, from, to int) *float64 {
	if from < 0 || to < 0 || from >= len(bars) || to >= len(bars) {
		return nil
	}
	base := bars[from].Close
	if base == 0 {
		return nil
	}
	return finite((bars[to].Close - base) / base)
}

// sampleStdDev is the n-1 standard deviation of closing prices.
func sampleStdDev(bars []domain.Bar) *float64 {
	n := len(bars)
	if n < 2 {
		return nil
	}
	var sum float64
	for _, b := range bars {
		sum += b.Close
	}
	mean := sum / float64(n)

	var ss float64
	for _, b := range bars {
		d := b.Close - mean
		ss += d * d
	}
	return finite(math.Sqrt(ss / float64(n-1)))
}

// volumeRatio compares the filing-day volume to the mean of prior.
func volumeRatio(day domain.Bar, prior []domain.Bar) *float64 {
	if len(prior) == 0 {
		return nil
	}
	var sum float64
	for _, b := range prior {
		sum += float64(b.Volume)
	}
	mean := sum / float64(len(prior))
	if mean == 0 {
		return nil
	}
	return finite(float64(day.Volume) / mean)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
