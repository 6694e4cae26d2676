package indicator

import "gonum.org/v1/gonum/floats"

// Stochastic rescales raw into a 0-100 oscillator against the min and max of
// its trailing lookback window:
//
//	k[t] = (raw[t] - min) / (max - min) * 100
//
// A flat window (max == min) uses a divisor of 1, which yields exactly 0.
// Cells are NaN until the window holds lookback finite values.
func Stochastic(raw []float64, lookback int) []float64 {
	out := nanSlice(len(raw))
	if lookback < 2 {
		return out
	}
	for t := lookback - 1; t < len(raw); t++ {
		win := raw[t-lookback+1 : t+1]
		if !allFinite(win) {
			continue
		}
		lo, hi := floats.Min(win), floats.Max(win)
		divisor := hi - lo
		if divisor == 0 {
			divisor = 1
		}
		out[t] = ((raw[t] - lo) / divisor) * 100
	}
	return out
}
