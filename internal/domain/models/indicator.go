package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Fixed interpretation bands for presentation.
const (
	ZScoreUpperBand      = 2.0
	ZScoreLowerBand      = -2.0
	StochasticSellZone   = 80.0
	StochasticBuyZone    = 20.0
	StochasticMidline    = 50.0
	MinLookback          = 2
	DefaultZLookback     = 252
	DefaultStochLookback = 20
)

// WindowSet is an ascending, de-duplicated set of moving-average lengths.
type WindowSet []int

// NewWindowSet drops lengths below 1, de-duplicates and sorts the rest.
func NewWindowSet(lengths []int) (WindowSet, error) {
	seen := make(map[int]struct{}, len(lengths))
	out := make(WindowSet, 0, len(lengths))
	for _, w := range lengths {
		if w < 1 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one moving-average length is required", ErrConfigInvalid)
	}
	sort.Ints(out)
	return out, nil
}

// Max returns the largest window, or 0 for an empty set.
func (w WindowSet) Max() int {
	if len(w) == 0 {
		return 0
	}
	return w[len(w)-1]
}

func (w WindowSet) String() string {
	parts := make([]string, len(w))
	for i, v := range w {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// IndicatorConfig is the immutable input of one pipeline run.
type IndicatorConfig struct {
	Symbol             string     `json:"symbol"`
	Timeframe          Timeframe  `json:"timeframe"`
	Range              PriceRange `json:"range"`
	Windows            WindowSet  `json:"windows"`
	ZScoreLookback     int        `json:"zscore_lookback"`
	StochasticLookback int        `json:"stochastic_lookback"`
}

// ValidateParams checks the numerical parameters of the config.
func (c IndicatorConfig) ValidateParams() error {
	if len(c.Windows) == 0 {
		return fmt.Errorf("%w: window set is empty", ErrConfigInvalid)
	}
	if c.Windows[0] < 1 {
		return fmt.Errorf("%w: window lengths must be >= 1", ErrConfigInvalid)
	}
	if c.ZScoreLookback < MinLookback {
		return fmt.Errorf("%w: zscore lookback must be >= %d, got %d", ErrConfigInvalid, MinLookback, c.ZScoreLookback)
	}
	if c.StochasticLookback < MinLookback {
		return fmt.Errorf("%w: stochastic lookback must be >= %d, got %d", ErrConfigInvalid, MinLookback, c.StochasticLookback)
	}
	return nil
}

// DerivedRow is one fully defined row of the derived table. MA and Dist are
// aligned with DerivedSeries.Windows.
type DerivedRow struct {
	Time       time.Time `json:"t"`
	Close      float64   `json:"close"`
	MA         []float64 `json:"ma"`
	Dist       []float64 `json:"dist"`
	Raw        float64   `json:"raw"`
	ZScore     float64   `json:"zscore"`
	Stochastic float64   `json:"stochastic"`
}

// DerivedSeries is the filtered table handed to presentation.
type DerivedSeries struct {
	Symbol    string       `json:"symbol"`
	Timeframe Timeframe    `json:"timeframe"`
	Windows   WindowSet    `json:"windows"`
	Rows      []DerivedRow `json:"rows"`
}

// Last returns the most recent row.
func (d *DerivedSeries) Last() (DerivedRow, bool) {
	if d == nil || len(d.Rows) == 0 {
		return DerivedRow{}, false
	}
	return d.Rows[len(d.Rows)-1], true
}

// Tail returns the last n rows; n <= 0 returns every row.
func (d *DerivedSeries) Tail(n int) []DerivedRow {
	if d == nil {
		return nil
	}
	if n <= 0 || n >= len(d.Rows) {
		return d.Rows
	}
	return d.Rows[len(d.Rows)-n:]
}

// ZScores returns the Z-score column.
func (d *DerivedSeries) ZScores() []float64 {
	out := make([]float64, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.ZScore
	}
	return out
}

// Stochastics returns the stochastic column.
func (d *DerivedSeries) Stochastics() []float64 {
	out := make([]float64, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Stochastic
	}
	return out
}

type Zone string

const (
	ZoneNeutral   Zone = "neutral"
	ZoneExpensive Zone = "expensive"
	ZoneCheap     Zone = "cheap"
	ZoneSell      Zone = "sell"
	ZoneBuy       Zone = "buy"
)

// Summary holds the latest row's point-in-time metrics.
type Summary struct {
	Time           time.Time `json:"t"`
	Close          float64   `json:"close"`
	ZScore         float64   `json:"zscore"`
	Stochastic     float64   `json:"stochastic"`
	ZScoreZone     Zone      `json:"zscore_zone"`
	StochasticZone Zone      `json:"stochastic_zone"`
}

// NewSummary classifies a row against the fixed bands.
func NewSummary(row DerivedRow) Summary {
	s := Summary{
		Time:           row.Time,
		Close:          row.Close,
		ZScore:         row.ZScore,
		Stochastic:     row.Stochastic,
		ZScoreZone:     ZoneNeutral,
		StochasticZone: ZoneNeutral,
	}
	switch {
	case row.ZScore > ZScoreUpperBand:
		s.ZScoreZone = ZoneExpensive
	case row.ZScore < ZScoreLowerBand:
		s.ZScoreZone = ZoneCheap
	}
	switch {
	case row.Stochastic >= StochasticSellZone:
		s.StochasticZone = ZoneSell
	case row.Stochastic <= StochasticBuyZone:
		s.StochasticZone = ZoneBuy
	}
	return s
}

// State flags the result of a pipeline run for the caller.
type State string

const (
	StateOK                  State = "ok"
	StateConfigInvalid       State = "config_invalid"
	StateLoadFailure         State = "load_failure"
	StateInsufficientHistory State = "insufficient_history"
	StateEmptyAfterFiltering State = "empty_after_filtering"
)

// Outcome is the result of one pipeline run. Series and Summary are set only
// when State is StateOK.
type Outcome struct {
	State      State           `json:"state"`
	Message    string          `json:"message,omitempty"`
	Config     IndicatorConfig `json:"config"`
	Series     *DerivedSeries  `json:"series,omitempty"`
	Summary    *Summary        `json:"summary,omitempty"`
	ComputedAt time.Time       `json:"computed_at"`
}

// OK reports whether the run produced data.
func (o *Outcome) OK() bool { return o != nil && o.State == StateOK }

// Snapshot is the point-in-time event published after a run.
type Snapshot struct {
	Symbol     string    `json:"symbol"`
	Timeframe  Timeframe `json:"timeframe"`
	Windows    string    `json:"windows"`
	State      State     `json:"state"`
	Message    string    `json:"message,omitempty"`
	Summary    *Summary  `json:"summary,omitempty"`
	Rows       int       `json:"rows"`
	ComputedAt time.Time `json:"computed_at"`
}

// NewSnapshot condenses an outcome into its publishable summary.
func NewSnapshot(o *Outcome) Snapshot {
	s := Snapshot{
		Symbol:     o.Config.Symbol,
		Timeframe:  o.Config.Timeframe,
		Windows:    o.Config.Windows.String(),
		State:      o.State,
		Message:    o.Message,
		Summary:    o.Summary,
		ComputedAt: o.ComputedAt,
	}
	if o.Series != nil {
		s.Rows = len(o.Series.Rows)
	}
	return s
}
