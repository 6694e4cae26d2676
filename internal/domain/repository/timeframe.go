package repository

import (
	"fmt"
	"time"

	"QuantPanel/internal/domain/models"
)

var (
	dailyPeriods    = []models.Period{models.Period1y, models.Period2y, models.Period5y, models.Period10y, models.PeriodMax}
	hourlyPeriods   = []models.Period{models.Period1mo, models.Period60d, models.Period1y, models.Period2y}
	intradayPeriods = []models.Period{models.Period1d, models.Period5d, models.Period1mo, models.Period60d}
)

// Timeframes lists supported intervals, daily family first.
func Timeframes() []models.Timeframe {
	return []models.Timeframe{
		models.TF1d, models.TF1wk, models.TF1mo,
		models.TF1h, models.TF30m, models.TF15m, models.TF5m, models.TF1m,
	}
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf models.Timeframe) bool {
	for _, v := range Timeframes() {
		if v == tf {
			return true
		}
	}
	return false
}

// IsIntraday reports whether tf is shorter than a day. Upstream retention for
// these intervals is short, so only fixed recent periods are offered.
func IsIntraday(tf models.Timeframe) bool {
	switch tf {
	case models.TF1d, models.TF1wk, models.TF1mo:
		return false
	default:
		return true
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() models.Timeframe { return models.TF1d }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) models.Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := models.Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// AllowedPeriods returns the named periods valid for tf.
func AllowedPeriods(tf models.Timeframe) []models.Period {
	switch {
	case !IsIntraday(tf):
		return dailyPeriods
	case tf == models.TF1h:
		return hourlyPeriods
	default:
		return intradayPeriods
	}
}

// DefaultPeriod returns the period used when none is requested.
func DefaultPeriod(tf models.Timeframe) models.Period {
	switch {
	case !IsIntraday(tf):
		return models.Period5y
	case tf == models.TF1h:
		return models.Period1y
	default:
		return models.Period1mo
	}
}

// AllowsDateRange reports whether an explicit start/end range may be used.
func AllowsDateRange(tf models.Timeframe) bool { return !IsIntraday(tf) }

// ResolveRange builds the PriceRange for a request. A zero start and end with
// an empty period falls back to DefaultPeriod. A missing start defaults to five
// years before end; a missing end defaults to now.
func ResolveRange(tf models.Timeframe, period models.Period, start, end, now time.Time) (models.PriceRange, error) {
	if !IsValidTimeframe(tf) {
		return models.PriceRange{}, fmt.Errorf("%w: unsupported timeframe %q", models.ErrConfigInvalid, tf)
	}
	custom := !start.IsZero() || !end.IsZero()
	if custom && period != "" {
		return models.PriceRange{}, fmt.Errorf("%w: use either a period or a date range, not both", models.ErrConfigInvalid)
	}
	if !custom {
		if period == "" {
			period = DefaultPeriod(tf)
		}
		for _, p := range AllowedPeriods(tf) {
			if p == period {
				return models.PriceRange{Period: period}, nil
			}
		}
		return models.PriceRange{}, fmt.Errorf("%w: period %q is not available for timeframe %s", models.ErrConfigInvalid, period, tf)
	}
	if !AllowsDateRange(tf) {
		return models.PriceRange{}, fmt.Errorf("%w: intraday timeframe %s only supports fixed periods", models.ErrConfigInvalid, tf)
	}
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.AddDate(-5, 0, 0)
	}
	if !start.Before(end) {
		return models.PriceRange{}, fmt.Errorf("%w: start must be before end", models.ErrConfigInvalid)
	}
	return models.PriceRange{Start: start, End: end}, nil
}
