package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
	"QuantPanel/internal/service/ratelimit"
	"QuantPanel/internal/services/indicator"
	"QuantPanel/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	n   int
	err error
}

func (s *stubLoader) Name() string { return "stub" }

func (s *stubLoader) Load(_ context.Context, q domrepo.PriceQuery) (models.PriceSeries, error) {
	if s.err != nil {
		return models.PriceSeries{}, s.err
	}
	t0 := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.PricePoint, s.n)
	for i := range pts {
		x := float64(i)
		pts[i] = models.PricePoint{Time: t0.AddDate(0, 0, i), Close: 50 + 5*math.Sin(x/12) + x/40}
	}
	return models.NewPriceSeries(q.Symbol, q.Timeframe, pts)
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(string, models.State)       {}
func (nopMetrics) RecordCache(string)                   {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordSummary(string, models.Summary) {}
func (nopMetrics) RecordLatency(string, float64)        {}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newServer(loader domrepo.PriceLoader, rl *ratelimit.Limiter) *echo.Echo {
	uc := usecase.NewIndicatorUseCase(loader, indicator.NewPipeline(), nopMetrics{})
	e := echo.New()
	NewIndicatorHandler(nil, uc, rl).RegisterRoutes(e)
	return e
}

func get(t *testing.T, e *echo.Echo, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env
}

func TestIndicatorOK(t *testing.T) {
	e := newServer(&stubLoader{n: 800}, nil)

	rec := get(t, e, "/api/indicator?symbol=vale3.sa&tf=1d&period=5y&windows=20,50&z=100&k=14&rows=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var res IndicatorResponse
	decode(t, rec, &res)
	assert.Equal(t, models.StateOK, res.State)
	assert.Equal(t, "VALE3.SA", res.Config.Symbol)
	assert.Equal(t, models.WindowSet{20, 50}, res.Config.Windows)
	assert.Equal(t, 100, res.Config.ZScoreLookback)
	assert.Len(t, res.Rows, 5)
	assert.Greater(t, res.TotalRows, 5)
	require.NotNil(t, res.Summary)
	require.NotNil(t, res.Metrics)
	assert.NotEmpty(t, res.Metrics.ZScore)
}

func TestIndicatorDefaults(t *testing.T) {
	e := newServer(&stubLoader{n: 900}, nil)

	rec := get(t, e, "/api/indicator?symbol=AAPL")
	require.Equal(t, http.StatusOK, rec.Code)

	var res IndicatorResponse
	decode(t, rec, &res)
	assert.Equal(t, models.StateOK, res.State)
	assert.Equal(t, models.TF1d, res.Config.Timeframe)
	assert.Equal(t, models.WindowSet{50, 100, 200}, res.Config.Windows)
	assert.Equal(t, 252, res.Config.ZScoreLookback)
	assert.Equal(t, 20, res.Config.StochasticLookback)
	assert.Len(t, res.Rows, res.TotalRows)
}

func TestIndicatorConfiguredDefaults(t *testing.T) {
	uc := usecase.NewIndicatorUseCase(&stubLoader{n: 800}, indicator.NewPipeline(), nopMetrics{})
	h := NewIndicatorHandler(nil, uc, nil)
	h.SetDefaults(models.IndicatorRequest{Windows: "10, 30", ZLookback: 120})
	e := echo.New()
	h.RegisterRoutes(e)

	rec := get(t, e, "/api/indicator/summary?symbol=AAPL&z=90")
	require.Equal(t, http.StatusOK, rec.Code)
	var res IndicatorResponse
	decode(t, rec, &res)
	assert.Equal(t, models.WindowSet{10, 30}, res.Config.Windows)
	assert.Equal(t, 90, res.Config.ZScoreLookback)
	assert.Equal(t, 20, res.Config.StochasticLookback)
}

func TestIndicatorValidation(t *testing.T) {
	e := newServer(&stubLoader{n: 800}, nil)

	for _, target := range []string{
		"/api/indicator",
		"/api/indicator?symbol=AAPL&tf=2h",
		"/api/indicator?symbol=AAPL&z=1",
		"/api/indicator?symbol=AAPL&start=2020-13-45",
	} {
		rec := get(t, e, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestIndicatorHaltStates(t *testing.T) {
	cases := []struct {
		name   string
		loader *stubLoader
		query  string
		state  models.State
	}{
		{"load failure", &stubLoader{err: errors.New("boom")}, "symbol=X", models.StateLoadFailure},
		{"insufficient", &stubLoader{n: 30}, "symbol=X&windows=50", models.StateInsufficientHistory},
		{"config invalid", &stubLoader{n: 800}, "symbol=X&tf=5m&period=5y", models.StateConfigInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newServer(tc.loader, nil)
			rec := get(t, e, "/api/indicator?"+tc.query)
			require.Equal(t, http.StatusOK, rec.Code)
			var res IndicatorResponse
			decode(t, rec, &res)
			assert.Equal(t, tc.state, res.State)
			assert.NotEmpty(t, res.Message)
			assert.Nil(t, res.Summary)
			assert.Empty(t, res.Rows)
		})
	}
}

func TestSummary(t *testing.T) {
	e := newServer(&stubLoader{n: 800}, nil)

	rec := get(t, e, "/api/indicator/summary?symbol=AAPL&windows=20&z=60")
	require.Equal(t, http.StatusOK, rec.Code)
	var res IndicatorResponse
	decode(t, rec, &res)
	assert.Equal(t, models.StateOK, res.State)
	require.NotNil(t, res.Summary)
	assert.Empty(t, res.Rows)
}

func TestChart(t *testing.T) {
	e := newServer(&stubLoader{n: 800}, nil)

	for _, kind := range []string{"zscore", "stochastic", "histogram"} {
		rec := get(t, e, "/api/indicator/chart/"+kind+"?symbol=AAPL&windows=20&z=60&width=400&height=300")
		require.Equal(t, http.StatusOK, rec.Code, kind)
		assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, []byte("\x89PNG"), rec.Body.Bytes()[:4])
	}

	rec := get(t, e, "/api/indicator/chart/candles?symbol=AAPL")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChartHaltReturnsEnvelope(t *testing.T) {
	e := newServer(&stubLoader{err: errors.New("down")}, nil)

	rec := get(t, e, "/api/indicator/chart/zscore?symbol=AAPL")
	require.Equal(t, http.StatusOK, rec.Code)
	var res IndicatorResponse
	decode(t, rec, &res)
	assert.Equal(t, models.StateLoadFailure, res.State)
}

func TestTimeframes(t *testing.T) {
	e := newServer(&stubLoader{}, nil)

	rec := get(t, e, "/api/timeframes")
	require.Equal(t, http.StatusOK, rec.Code)
	var out []TimeframeInfo
	decode(t, rec, &out)
	require.Len(t, out, len(domrepo.Timeframes()))
	for _, tf := range out {
		assert.Contains(t, tf.Periods, tf.DefaultPeriod, tf.Timeframe)
		assert.Equal(t, !tf.Intraday, tf.DateRange)
	}
}

func TestRateLimited(t *testing.T) {
	e := newServer(&stubLoader{n: 800}, ratelimit.New(1, 0.001))

	rec := get(t, e, "/api/indicator/summary?symbol=AAPL&windows=20&z=60")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = get(t, e, "/api/indicator/summary?symbol=AAPL&windows=20&z=60")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
