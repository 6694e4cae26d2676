package indicator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"QuantPanel/internal/domain/models"
)

// Distances holds, for every window of a WindowSet, the simple moving average
// of close and the signed fractional distance of close from it, plus their
// sum. All columns are aligned with the input closes; undefined cells are NaN.
type Distances struct {
	Windows models.WindowSet
	MA      [][]float64 // MA[i] belongs to Windows[i]
	Dist    [][]float64
	Raw     []float64
}

// ComputeDistances runs the distance engine. The length check happens before
// any computation so a short series never yields an all-undefined table.
//
// A zero moving average makes the matching distance non-finite; it is kept as
// is and the row is dropped by the final filter.
func ComputeDistances(closes []float64, windows models.WindowSet) (*Distances, error) {
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: window set is empty", models.ErrConfigInvalid)
	}
	if need := windows.Max(); len(closes) < need {
		return nil, &models.InsufficientHistoryError{Have: len(closes), Need: need}
	}

	d := &Distances{
		Windows: windows,
		MA:      make([][]float64, len(windows)),
		Dist:    make([][]float64, len(windows)),
		Raw:     nanSlice(len(closes)),
	}
	for i, w := range windows {
		ma := MovingAverage(closes, w)
		dist := nanSlice(len(closes))
		for t := w - 1; t < len(closes); t++ {
			dist[t] = (closes[t] - ma[t]) / ma[t]
		}
		d.MA[i] = ma
		d.Dist[i] = dist
	}

	first := windows.Max() - 1
	for t := first; t < len(closes); t++ {
		sum := 0.0
		for i := range windows {
			sum += d.Dist[i][t]
		}
		d.Raw[t] = sum
	}
	return d, nil
}

// MovingAverage returns the simple arithmetic mean of the trailing w values at
// every index with at least w samples, NaN before that.
func MovingAverage(values []float64, w int) []float64 {
	out := nanSlice(len(values))
	if w < 1 {
		return out
	}
	for t := w - 1; t < len(values); t++ {
		out[t] = stat.Mean(values[t-w+1:t+1], nil)
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if !isFinite(v) {
			return false
		}
	}
	return true
}
