package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStochasticValues(t *testing.T) {
	raw := []float64{1, 3, 2, 5, 4}
	k := Stochastic(raw, 3)
	assert.True(t, math.IsNaN(k[0]))
	assert.True(t, math.IsNaN(k[1]))
	assert.InDelta(t, 50.0, k[2], 1e-12)          // (2-1)/(3-1)
	assert.InDelta(t, 100.0, k[3], 1e-12)         // new high
	assert.InDelta(t, 100.0*2.0/3.0, k[4], 1e-12) // (4-2)/(5-2)
}

func TestStochasticFlatWindowIsZero(t *testing.T) {
	raw := []float64{-0.25, -0.25, -0.25, -0.25}
	k := Stochastic(raw, 2)
	for i := 1; i < len(raw); i++ {
		assert.Equal(t, 0.0, k[i])
	}
}

func TestStochasticBounded(t *testing.T) {
	raw := randomWalk(500, 9)
	k := Stochastic(raw, 14)
	for t2 := 13; t2 < len(raw); t2++ {
		win := raw[t2-13 : t2+1]
		lo, hi := win[0], win[0]
		for _, v := range win {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi > lo {
			assert.GreaterOrEqual(t, k[t2], 0.0)
			assert.LessOrEqual(t, k[t2], 100.0)
		} else {
			assert.Equal(t, 0.0, k[t2])
		}
	}
}

func TestStochasticSkipsNonFiniteWindows(t *testing.T) {
	raw := []float64{1, math.Inf(-1), 2, 3}
	k := Stochastic(raw, 2)
	assert.True(t, math.IsNaN(k[1]))
	assert.True(t, math.IsNaN(k[2]))
	assert.InDelta(t, 100.0, k[3], 1e-12)
}
