package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
	"QuantPanel/internal/service/metrics"
	"QuantPanel/internal/service/ratelimit"
	"QuantPanel/internal/services/chart"
	"QuantPanel/internal/services/report"
	"QuantPanel/internal/usecase"
	xhttp "QuantPanel/pkg/http"
	xlogger "QuantPanel/pkg/logger"
	xutil "QuantPanel/pkg/util"

	"github.com/labstack/echo/v4"
)

// IndicatorHandler serves indicator runs over HTTP. Every request triggers a
// full recomputation; only raw prices may be cached underneath.
type IndicatorHandler struct {
	logger   *xlogger.Logger
	uc       *usecase.IndicatorUseCase
	rl       *ratelimit.Limiter
	defaults models.IndicatorRequest
}

func NewIndicatorHandler(logger *xlogger.Logger, uc *usecase.IndicatorUseCase, rl *ratelimit.Limiter) *IndicatorHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &IndicatorHandler{logger: logger, uc: uc, rl: rl}
}

// SetDefaults seeds every request before query binding. Fields left empty
// fall back to the request struct's own defaults.
func (h *IndicatorHandler) SetDefaults(d models.IndicatorRequest) { h.defaults = d }

func (h *IndicatorHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/indicator", h.Indicator)
	g.GET("/indicator/summary", h.Summary)
	g.GET("/indicator/chart/:kind", h.Chart)
	g.GET("/timeframes", h.Timeframes)
}

// IndicatorResponse is the body of GET /api/indicator. Rows holds the
// trailing rows requested; TotalRows counts the full derived series.
type IndicatorResponse struct {
	State      models.State           `json:"state"`
	Message    string                 `json:"message,omitempty"`
	Config     models.IndicatorConfig `json:"config"`
	Summary    *models.Summary        `json:"summary,omitempty"`
	Metrics    *report.Metrics        `json:"metrics,omitempty"`
	Rows       []models.DerivedRow    `json:"rows,omitempty"`
	TotalRows  int                    `json:"total_rows"`
	ComputedAt time.Time              `json:"computed_at"`
}

func newIndicatorResponse(o *models.Outcome, rows int, withRows bool) IndicatorResponse {
	res := IndicatorResponse{
		State:      o.State,
		Message:    o.Message,
		Config:     o.Config,
		Summary:    o.Summary,
		ComputedAt: o.ComputedAt,
	}
	if o.Summary != nil {
		m := report.FormatMetrics(*o.Summary)
		res.Metrics = &m
	}
	if o.Series != nil {
		res.TotalRows = len(o.Series.Rows)
		if withRows {
			res.Rows = o.Series.Tail(rows)
		}
	}
	return res
}

func (h *IndicatorHandler) Indicator(c echo.Context) error {
	o, rows, herr := h.run(c, "indicator")
	if herr != nil {
		return herr
	}
	if o == nil {
		return nil
	}
	return xhttp.SuccessResponse(c, newIndicatorResponse(o, rows, true))
}

func (h *IndicatorHandler) Summary(c echo.Context) error {
	o, _, herr := h.run(c, "summary")
	if herr != nil {
		return herr
	}
	if o == nil {
		return nil
	}
	return xhttp.SuccessResponse(c, newIndicatorResponse(o, 0, false))
}

// Chart renders a PNG. Runs that did not produce data answer with the usual
// JSON envelope carrying the state flag.
func (h *IndicatorHandler) Chart(c echo.Context) error {
	kind, err := chart.ParseKind(c.Param("kind"))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown chart %q", c.Param("kind")).
			WithParam("options", chart.Kinds()))
	}

	o, _, herr := h.run(c, "chart")
	if herr != nil {
		return herr
	}
	if o == nil {
		return nil
	}
	if !o.OK() {
		return xhttp.SuccessResponse(c, newIndicatorResponse(o, 0, false))
	}

	opts := chart.Options{
		Width:       clamp(xutil.ParseIntDefault(c.QueryParam("width"), 1024), 320, 4096),
		Height:      clamp(xutil.ParseIntDefault(c.QueryParam("height"), 400), 200, 2048),
		Categorical: domrepo.IsIntraday(o.Config.Timeframe),
	}
	var buf bytes.Buffer
	if err := chart.Render(&buf, kind, o.Series, opts); err != nil {
		if errors.Is(err, chart.ErrTooFewRows) {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_TOO_FEW_ROWS", "", err.Error(), http.StatusUnprocessableEntity))
		}
		h.logger.Error("chart render failed", xlogger.String("kind", string(kind)), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("render %s chart", kind).WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// TimeframeInfo describes one timeframe and the ranges it accepts.
type TimeframeInfo struct {
	Timeframe     models.Timeframe `json:"timeframe"`
	Intraday      bool             `json:"intraday"`
	Periods       []models.Period  `json:"periods"`
	DefaultPeriod models.Period    `json:"default_period"`
	DateRange     bool             `json:"date_range"`
}

func (h *IndicatorHandler) Timeframes(c echo.Context) error {
	out := make([]TimeframeInfo, 0, len(domrepo.Timeframes()))
	for _, tf := range domrepo.Timeframes() {
		out = append(out, TimeframeInfo{
			Timeframe:     tf,
			Intraday:      domrepo.IsIntraday(tf),
			Periods:       domrepo.AllowedPeriods(tf),
			DefaultPeriod: domrepo.DefaultPeriod(tf),
			DateRange:     domrepo.AllowsDateRange(tf),
		})
	}
	return xhttp.SuccessResponse(c, out)
}

// run binds, rate limits and executes one pipeline run. When the response has
// already been written it returns a nil outcome together with the write error.
func (h *IndicatorHandler) run(c echo.Context, endpoint string) (*models.Outcome, int, error) {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if h.rl != nil && !h.rl.Allow(c.RealIP()) {
		metrics.APIRateLimited.WithLabelValues(endpoint).Inc()
		h.logger.Warn("indicator rate limited", xlogger.String("remote", c.RealIP()), xlogger.String("endpoint", endpoint))
		return nil, 0, xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	req := h.defaults
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return nil, 0, xhttp.BadRequestResponse(c, verr)
	}
	params, err := usecase.ParamsFromRequest(req)
	if err != nil {
		return nil, 0, xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("%s", err.Error()))
	}

	o, err := h.uc.Run(c.Request().Context(), params)
	if err != nil {
		h.logger.Warn("indicator run aborted", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		return nil, 0, xhttp.AppErrorResponse(c, xhttp.InternalErrorf("request aborted").WithError(err))
	}
	metrics.APIOutcomes.WithLabelValues(endpoint, string(o.State)).Inc()
	return o, req.Rows, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
