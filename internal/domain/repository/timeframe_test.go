package repository

import (
	"testing"
	"time"

	"QuantPanel/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestResolveRangeDefaults(t *testing.T) {
	cases := []struct {
		tf   models.Timeframe
		want models.Period
	}{
		{models.TF1d, models.Period5y},
		{models.TF1wk, models.Period5y},
		{models.TF1h, models.Period1y},
		{models.TF5m, models.Period1mo},
	}
	for _, c := range cases {
		r, err := ResolveRange(c.tf, "", time.Time{}, time.Time{}, now)
		require.NoError(t, err, c.tf)
		assert.Equal(t, c.want, r.Period, c.tf)
	}
}

func TestResolveRangePeriodRules(t *testing.T) {
	valid := []struct {
		tf models.Timeframe
		p  models.Period
	}{
		{models.TF1d, models.PeriodMax},
		{models.TF1mo, models.Period10y},
		{models.TF1h, models.Period60d},
		{models.TF1m, models.Period1d},
	}
	for _, c := range valid {
		_, err := ResolveRange(c.tf, c.p, time.Time{}, time.Time{}, now)
		assert.NoError(t, err, "%s/%s", c.tf, c.p)
	}

	invalid := []struct {
		tf models.Timeframe
		p  models.Period
	}{
		{models.TF1d, models.Period5d},
		{models.TF1h, models.Period5y},
		{models.TF15m, models.Period1y},
		{"2h", models.Period1y},
	}
	for _, c := range invalid {
		_, err := ResolveRange(c.tf, c.p, time.Time{}, time.Time{}, now)
		assert.ErrorIs(t, err, models.ErrConfigInvalid, "%s/%s", c.tf, c.p)
	}
}

func TestResolveRangeDates(t *testing.T) {
	r, err := ResolveRange(models.TF1d, "", date(2020, 1, 1), date(2021, 1, 1), now)
	require.NoError(t, err)
	assert.True(t, r.IsCustom())
	assert.Equal(t, date(2020, 1, 1), r.Start)

	r, err = ResolveRange(models.TF1d, "", time.Time{}, date(2021, 1, 1), now)
	require.NoError(t, err)
	assert.Equal(t, date(2016, 1, 1), r.Start)

	r, err = ResolveRange(models.TF1d, "", date(2024, 1, 1), time.Time{}, now)
	require.NoError(t, err)
	assert.Equal(t, now, r.End)

	_, err = ResolveRange(models.TF1d, "", date(2021, 1, 1), date(2020, 1, 1), now)
	assert.ErrorIs(t, err, models.ErrConfigInvalid)
	_, err = ResolveRange(models.TF1d, models.Period1y, date(2020, 1, 1), date(2021, 1, 1), now)
	assert.ErrorIs(t, err, models.ErrConfigInvalid)
	_, err = ResolveRange(models.TF1h, "", date(2020, 1, 1), date(2021, 1, 1), now)
	assert.ErrorIs(t, err, models.ErrConfigInvalid)
}

func TestNormalizeTimeframe(t *testing.T) {
	assert.Equal(t, models.TF1d, NormalizeTimeframe(""))
	assert.Equal(t, models.TF1d, NormalizeTimeframe("7d"))
	assert.Equal(t, models.TF30m, NormalizeTimeframe("30m"))
	assert.True(t, IsIntraday(models.TF1h))
	assert.False(t, IsIntraday(models.TF1mo))
}

func TestPriceQueryKey(t *testing.T) {
	q := PriceQuery{Symbol: "AAPL", Timeframe: models.TF1d, Range: models.PriceRange{Start: date(2020, 1, 1), End: date(2021, 1, 1)}}
	assert.Equal(t, "AAPL:1d:2020-01-01_2021-01-01", q.Key())
}
