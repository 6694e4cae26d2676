package indicator

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantPanel/internal/domain/models"
)

func randomWalk(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	price := 100.0
	for i := range out {
		price *= 1 + (r.Float64()-0.5)*0.04
		out[i] = price
	}
	return out
}

func TestMovingAverageMatchesTalib(t *testing.T) {
	closes := randomWalk(300, 7)
	for _, w := range []int{1, 5, 20, 50, 200} {
		got := MovingAverage(closes, w)
		want := talib.Sma(closes, w)
		for i := range closes {
			if i < w-1 {
				assert.True(t, math.IsNaN(got[i]), "window %d index %d should be undefined", w, i)
				continue
			}
			assert.InDelta(t, want[i], got[i], 1e-9, "window %d index %d", w, i)
		}
	}
}

func TestComputeDistancesDefinedCount(t *testing.T) {
	closes := randomWalk(500, 11)
	for _, ws := range []models.WindowSet{{1}, {20}, {50, 100}, {9, 21, 200}, {500}} {
		d, err := ComputeDistances(closes, ws)
		require.NoError(t, err)

		defined := 0
		for _, v := range d.Raw {
			if !math.IsNaN(v) {
				defined++
			}
		}
		assert.Equal(t, len(closes)-ws.Max()+1, defined, "windows %v", ws)
	}
}

func TestComputeDistancesValues(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14}
	d, err := ComputeDistances(closes, models.WindowSet{2, 4})
	require.NoError(t, err)

	// t=4: MA2 = 13.5, MA4 = 12.5
	assert.InDelta(t, 13.5, d.MA[0][4], 1e-12)
	assert.InDelta(t, 12.5, d.MA[1][4], 1e-12)
	assert.InDelta(t, 0.5/13.5, d.Dist[0][4], 1e-12)
	assert.InDelta(t, 1.5/12.5, d.Dist[1][4], 1e-12)
	assert.InDelta(t, 0.5/13.5+1.5/12.5, d.Raw[4], 1e-12)

	// defined for MA2 but not for the raw sum
	assert.False(t, math.IsNaN(d.Dist[0][1]))
	assert.True(t, math.IsNaN(d.Raw[2]))
}

func TestComputeDistancesInsufficientHistory(t *testing.T) {
	closes := randomWalk(150, 3)
	d, err := ComputeDistances(closes, models.WindowSet{200})
	assert.Nil(t, d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))

	var ih *models.InsufficientHistoryError
	require.True(t, errors.As(err, &ih))
	assert.Equal(t, 150, ih.Have)
	assert.Equal(t, 200, ih.Need)
}

func TestComputeDistancesZeroAverage(t *testing.T) {
	closes := []float64{0, 0, 0, 1, 2}
	d, err := ComputeDistances(closes, models.WindowSet{3})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(d.Dist[0][2]), "0/0 distance surfaces as NaN")
	assert.False(t, isFinite(d.Raw[2]))
	assert.True(t, isFinite(d.Raw[4]))
}
