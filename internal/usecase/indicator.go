package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
	domsvc "QuantPanel/internal/domain/service"
	"QuantPanel/internal/services/indicator"
	applogger "QuantPanel/pkg/logger"
	xutil "QuantPanel/pkg/util"
)

// IndicatorUseCase runs one full pipeline invocation per call: load the price
// series, compute the derived table, and report the outcome.
type IndicatorUseCase struct {
	loader   domrepo.PriceLoader
	pipeline domsvc.IndicatorPipeline
	metrics  domrepo.Metrics
	pub      domrepo.SnapshotPublisher
	l        *applogger.Logger
	now      func() time.Time
}

func NewIndicatorUseCase(loader domrepo.PriceLoader, pipeline domsvc.IndicatorPipeline, metrics domrepo.Metrics) *IndicatorUseCase {
	return &IndicatorUseCase{loader: loader, pipeline: pipeline, metrics: metrics, now: time.Now}
}

// SetLogger injects a structured logger.
func (uc *IndicatorUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

// SetPublisher enables snapshot publishing after every run.
func (uc *IndicatorUseCase) SetPublisher(p domrepo.SnapshotPublisher) { uc.pub = p }

// RunParams are the raw, user-facing parameters of a run.
type RunParams struct {
	Symbol             string
	Timeframe          string
	Period             string
	Start              time.Time
	End                time.Time
	Windows            string
	WindowList         []int // multi-select input; wins over Windows when set
	ZScoreLookback     int
	StochasticLookback int
}

// ParamsFromRequest converts a validated HTTP or queue request.
func ParamsFromRequest(req models.IndicatorRequest) (RunParams, error) {
	start, err := xutil.ParseDate(req.Start)
	if err != nil {
		return RunParams{}, fmt.Errorf("%w: start %q is not a date", models.ErrConfigInvalid, req.Start)
	}
	end, err := xutil.ParseDate(req.End)
	if err != nil {
		return RunParams{}, fmt.Errorf("%w: end %q is not a date", models.ErrConfigInvalid, req.End)
	}
	return RunParams{
		Symbol:             req.Symbol,
		Timeframe:          req.TF,
		Period:             req.Period,
		Start:              start,
		End:                end,
		Windows:            req.Windows,
		ZScoreLookback:     req.ZLookback,
		StochasticLookback: req.KLookback,
	}, nil
}

// BuildConfig validates raw parameters into an immutable config.
func (uc *IndicatorUseCase) BuildConfig(p RunParams) (models.IndicatorConfig, error) {
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		return models.IndicatorConfig{}, fmt.Errorf("%w: symbol required", models.ErrConfigInvalid)
	}

	tf := models.Timeframe(p.Timeframe)
	if p.Timeframe == "" {
		tf = domrepo.DefaultTimeframe()
	}
	rng, err := domrepo.ResolveRange(tf, models.Period(p.Period), p.Start, p.End, uc.now().UTC())
	if err != nil {
		return models.IndicatorConfig{}, err
	}

	var windows models.WindowSet
	if len(p.WindowList) > 0 {
		windows, err = models.NewWindowSet(p.WindowList)
	} else {
		windows, err = indicator.ParseWindowSet(p.Windows)
	}
	if err != nil {
		return models.IndicatorConfig{}, err
	}

	cfg := models.IndicatorConfig{
		Symbol:             symbol,
		Timeframe:          tf,
		Range:              rng,
		Windows:            windows,
		ZScoreLookback:     p.ZScoreLookback,
		StochasticLookback: p.StochasticLookback,
	}
	if err := cfg.ValidateParams(); err != nil {
		return models.IndicatorConfig{}, err
	}
	return cfg, nil
}

// Run executes the pipeline. Domain failures are reported through the
// Outcome state; the returned error is non-nil only when ctx is done.
func (uc *IndicatorUseCase) Run(ctx context.Context, p RunParams) (*models.Outcome, error) {
	start := time.Now()

	cfg, err := uc.BuildConfig(p)
	if err != nil {
		return uc.finish(ctx, start, &models.Outcome{Config: cfg}, err), nil
	}

	loadStart := time.Now()
	series, err := uc.loader.Load(ctx, domrepo.PriceQuery{Symbol: cfg.Symbol, Timeframe: cfg.Timeframe, Range: cfg.Range})
	uc.metrics.RecordLatency("load_seconds", time.Since(loadStart).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, models.ErrLoadFailure) {
			err = fmt.Errorf("%w: %v", models.ErrLoadFailure, err)
		}
		return uc.finish(ctx, start, &models.Outcome{Config: cfg}, err), nil
	}

	derived, err := uc.pipeline.Compute(series, cfg)
	out := &models.Outcome{Config: cfg, Series: derived}
	if err == nil {
		if last, ok := derived.Last(); ok {
			s := models.NewSummary(last)
			out.Summary = &s
		}
	}
	return uc.finish(ctx, start, out, err), nil
}

func (uc *IndicatorUseCase) finish(ctx context.Context, start time.Time, out *models.Outcome, err error) *models.Outcome {
	out.State = models.StateFor(err)
	out.ComputedAt = uc.now().UTC()
	if err != nil {
		out.Message = err.Error()
		out.Series = nil
		out.Summary = nil
	}

	dur := time.Since(start)
	uc.metrics.RecordRun(out.Config.Symbol, out.State)
	uc.metrics.RecordLatency("pipeline_seconds", dur.Seconds())
	if out.Summary != nil {
		uc.metrics.RecordSummary(out.Config.Symbol, *out.Summary)
	}

	if uc.l != nil {
		fields := []applogger.Field{
			applogger.String("symbol", out.Config.Symbol),
			applogger.String("tf", string(out.Config.Timeframe)),
			applogger.String("windows", out.Config.Windows.String()),
			applogger.String("state", string(out.State)),
			applogger.Duration("duration_ms", dur),
		}
		switch out.State {
		case models.StateOK:
			uc.l.Info("indicator run ok", append(fields, applogger.Int("rows", len(out.Series.Rows)))...)
		case models.StateLoadFailure:
			uc.l.Warn("indicator load failed", append(fields, applogger.Error(err))...)
		default:
			uc.l.Info("indicator run halted", append(fields, applogger.String("reason", out.Message))...)
		}
	}

	if uc.pub != nil && out.State != models.StateConfigInvalid {
		if perr := uc.pub.PublishSnapshot(ctx, models.NewSnapshot(out)); perr != nil {
			uc.metrics.RecordError("snapshot_publish")
			if uc.l != nil {
				uc.l.Error("snapshot publish failed", applogger.String("symbol", out.Config.Symbol), applogger.Error(perr))
			}
		}
	}
	return out
}
