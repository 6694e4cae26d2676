package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"QuantPanel/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcome(n int) *models.Outcome {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ds := &models.DerivedSeries{Symbol: "PETR4.SA", Timeframe: models.TF1d, Windows: models.WindowSet{50, 200}}
	for i := 0; i < n; i++ {
		ds.Rows = append(ds.Rows, models.DerivedRow{
			Time:       t0.AddDate(0, 0, i),
			Close:      30 + float64(i),
			MA:         []float64{29, 28},
			Dist:       []float64{0.015, 0.0325},
			Raw:        0.0475,
			ZScore:     2.346,
			Stochastic: 91.27,
		})
	}
	last, _ := ds.Last()
	s := models.NewSummary(last)
	return &models.Outcome{State: models.StateOK, Series: ds, Summary: &s}
}

func TestFormatMetrics(t *testing.T) {
	m := FormatMetrics(models.Summary{Close: 36.456, ZScore: -1.234, Stochastic: 12.345, ZScoreZone: models.ZoneNeutral, StochasticZone: models.ZoneBuy})
	assert.Equal(t, "36.46", m.Price)
	assert.Equal(t, "-1.23", m.ZScore)
	assert.Equal(t, "12.3", m.Stochastic)
	assert.Equal(t, "buy", m.StochasticZone)
}

func TestWriteOutcomeTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutcome(&buf, outcome(60), Options{Rows: 5}))
	out := buf.String()

	assert.Contains(t, out, "MA50")
	assert.Contains(t, out, "Dist200%")
	assert.Contains(t, out, "Raw%")
	// fractions are printed as percentages
	assert.Contains(t, out, " 1.50 ")
	assert.Contains(t, out, " 3.25 ")
	assert.Contains(t, out, " 4.75 ")
	assert.Contains(t, out, "2.35")
	assert.Contains(t, out, "91.3")
	assert.Contains(t, out, "expensive")
	// only the last five days are listed
	assert.Contains(t, out, "2024-04-29")
	assert.NotContains(t, out, "2024-04-24")
}

func TestWriteTableDistanceAsPercent(t *testing.T) {
	ds := &models.DerivedSeries{Symbol: "VALE3.SA", Timeframe: models.TF1d, Windows: models.WindowSet{50}}
	ds.Rows = []models.DerivedRow{{
		Time:       time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Close:      101.23,
		MA:         []float64{100},
		Dist:       []float64{0.0123},
		Raw:        0.0123,
		ZScore:     0.5,
		Stochastic: 40,
	}}

	var buf bytes.Buffer
	WriteTable(&buf, ds, Options{})
	out := buf.String()

	assert.Contains(t, out, "Dist50%")
	assert.Contains(t, out, " 1.23 ")
	assert.NotContains(t, out, " 0.01 ")
}

func TestWriteOutcomeHalted(t *testing.T) {
	var buf bytes.Buffer
	o := &models.Outcome{
		State:   models.StateInsufficientHistory,
		Message: "series returned only 10 bars",
		Config:  models.IndicatorConfig{Symbol: "AAPL"},
	}
	require.NoError(t, WriteOutcome(&buf, o, Options{}))
	assert.True(t, strings.HasPrefix(buf.String(), "AAPL insufficient_history"))
}
