package models

import (
	"fmt"
	"time"
)

// Timeframe is the bar interval of a price series.
type Timeframe string

const (
	TF1d  Timeframe = "1d"
	TF1wk Timeframe = "1wk"
	TF1mo Timeframe = "1mo"
	TF1h  Timeframe = "1h"
	TF30m Timeframe = "30m"
	TF15m Timeframe = "15m"
	TF5m  Timeframe = "5m"
	TF1m  Timeframe = "1m"
)

// Period is a named look-back span ending now.
type Period string

const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period60d Period = "60d"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
	Period10y Period = "10y"
	PeriodMax Period = "max"
)

// PriceRange selects the history to load: either a named Period or an explicit
// [Start, End) date range.
type PriceRange struct {
	Period Period    `json:"period,omitempty"`
	Start  time.Time `json:"start,omitempty"`
	End    time.Time `json:"end,omitempty"`
}

// IsCustom reports whether the range is an explicit date range.
func (r PriceRange) IsCustom() bool { return r.Period == "" }

func (r PriceRange) String() string {
	if r.IsCustom() {
		return fmt.Sprintf("%s_%s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}
	return string(r.Period)
}

// Bounds resolves the range to concrete [from, to) instants relative to now.
// PeriodMax starts at the zero time.
func (r PriceRange) Bounds(now time.Time) (from, to time.Time) {
	if r.IsCustom() {
		return r.Start, r.End
	}
	switch r.Period {
	case Period1d:
		return now.AddDate(0, 0, -1), now
	case Period5d:
		return now.AddDate(0, 0, -5), now
	case Period1mo:
		return now.AddDate(0, -1, 0), now
	case Period60d:
		return now.AddDate(0, 0, -60), now
	case Period1y:
		return now.AddDate(-1, 0, 0), now
	case Period2y:
		return now.AddDate(-2, 0, 0), now
	case Period5y:
		return now.AddDate(-5, 0, 0), now
	case Period10y:
		return now.AddDate(-10, 0, 0), now
	default:
		return time.Time{}, now
	}
}
