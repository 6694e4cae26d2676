package chart

import (
	"bytes"
	"math"
	"testing"
	"time"

	"QuantPanel/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleSeries(n int, step time.Duration) *models.DerivedSeries {
	t0 := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	ds := &models.DerivedSeries{Symbol: "AAPL", Timeframe: models.TF1d, Windows: models.WindowSet{5}}
	for i := 0; i < n; i++ {
		x := float64(i)
		ds.Rows = append(ds.Rows, models.DerivedRow{
			Time:       t0.Add(time.Duration(i) * step),
			Close:      100 + math.Sin(x/5),
			ZScore:     2.5 * math.Sin(x/7),
			Stochastic: 50 + 50*math.Sin(x/3),
		})
	}
	return ds
}

func TestRenderAllKinds(t *testing.T) {
	for _, categorical := range []bool{false, true} {
		ds := sampleSeries(120, 24*time.Hour)
		for _, k := range Kinds() {
			var buf bytes.Buffer
			err := Render(&buf, k, ds, Options{Width: 800, Height: 300, Categorical: categorical})
			require.NoError(t, err, "kind=%s categorical=%v", k, categorical)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), "kind=%s", k)
		}
	}
}

func TestRenderRejects(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Render(&buf, KindZScore, sampleSeries(1, time.Hour), Options{}), ErrTooFewRows)
	assert.ErrorIs(t, Render(&buf, Kind("pie"), sampleSeries(10, time.Hour), Options{}), ErrUnknownKind)

	_, err := ParseKind("pie")
	assert.ErrorIs(t, err, ErrUnknownKind)
	k, err := ParseKind("histogram")
	require.NoError(t, err)
	assert.Equal(t, KindHistogram, k)
}

func TestHistogram(t *testing.T) {
	values := []float64{-2, -1, 0, 0, 1, 2}
	edges, counts := Histogram(values, 4)
	require.Len(t, edges, 5)
	require.Len(t, counts, 4)

	total := 0.0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, float64(len(values)), total, "every value lands in a bin")
	assert.Equal(t, 0, BinIndex(edges, -2))
	assert.Equal(t, 3, BinIndex(edges, 2))
	assert.Equal(t, 2, BinIndex(edges, 0))
	assert.Equal(t, -1, BinIndex(edges, 5))
}

func TestHistogramConstantInput(t *testing.T) {
	edges, counts := Histogram([]float64{1, 1, 1}, HistogramBins)
	require.Len(t, counts, HistogramBins)
	assert.InDelta(t, 0.5, edges[0], 1e-12)
	sum := 0.0
	for _, c := range counts {
		sum += c
	}
	assert.Equal(t, 3.0, sum)
}
