package indicator

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ZScore normalizes raw over a trailing window of lookback samples:
//
//	z[t] = (raw[t] - mean) / stdev
//
// stdev is the sample standard deviation (divides by lookback-1). A cell is
// NaN while the window is not fully populated with finite values, and when
// the window has zero variance.
func ZScore(raw []float64, lookback int) []float64 {
	out := nanSlice(len(raw))
	if lookback < 2 {
		return out
	}
	for t := lookback - 1; t < len(raw); t++ {
		win := raw[t-lookback+1 : t+1]
		if !allFinite(win) {
			continue
		}
		// a constant window has no spread; rounding in the mean could
		// otherwise leave a tiny non-zero stdev behind
		if floats.Min(win) == floats.Max(win) {
			continue
		}
		mean, std := stat.MeanStdDev(win, nil)
		// non-constant windows can still underflow to a zero stdev for
		// near-identical values or overflow to Inf for huge ones
		if std == 0 || !isFinite(std) {
			continue
		}
		out[t] = (raw[t] - mean) / std
	}
	return out
}
