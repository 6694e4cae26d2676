package models

import (
	"fmt"
	"math"
	"time"
)

// PricePoint is a single close observation.
type PricePoint struct {
	Time  time.Time `json:"t"`
	Close float64   `json:"c"`
}

// PriceSeries is an immutable close-price series with strictly increasing
// timestamps. Build it with NewPriceSeries.
type PriceSeries struct {
	symbol    string
	timeframe Timeframe
	points    []PricePoint
}

// NewPriceSeries validates and copies points into a PriceSeries.
func NewPriceSeries(symbol string, tf Timeframe, points []PricePoint) (PriceSeries, error) {
	out := make([]PricePoint, len(points))
	for i, p := range points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			return PriceSeries{}, fmt.Errorf("close at %s is not finite", p.Time.Format(time.RFC3339))
		}
		if i > 0 && !p.Time.After(points[i-1].Time) {
			return PriceSeries{}, fmt.Errorf("timestamps not strictly increasing at index %d (%s)", i, p.Time.Format(time.RFC3339))
		}
		out[i] = p
	}
	return PriceSeries{symbol: symbol, timeframe: tf, points: out}, nil
}

func (s PriceSeries) Symbol() string       { return s.symbol }
func (s PriceSeries) Timeframe() Timeframe { return s.timeframe }
func (s PriceSeries) Len() int             { return len(s.points) }
func (s PriceSeries) At(i int) PricePoint  { return s.points[i] }

// Points returns a copy of the observations.
func (s PriceSeries) Points() []PricePoint {
	out := make([]PricePoint, len(s.points))
	copy(out, s.points)
	return out
}

// Closes returns the close prices in series order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Close
	}
	return out
}

// CollapseDuplicates drops non-finite closes and keeps the last observation
// for runs of equal timestamps. Decreasing timestamps are an error.
func CollapseDuplicates(points []PricePoint) ([]PricePoint, error) {
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			continue
		}
		if n := len(out); n > 0 {
			prev := out[n-1].Time
			switch {
			case p.Time.Equal(prev):
				out[n-1] = p
				continue
			case p.Time.Before(prev):
				return nil, fmt.Errorf("timestamp %s goes backwards after %s",
					p.Time.Format(time.RFC3339), prev.Format(time.RFC3339))
			}
		}
		out = append(out, p)
	}
	return out, nil
}
