package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"QuantPanel/internal/di"
	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
	"QuantPanel/internal/services/chart"
	"QuantPanel/internal/services/report"
	"QuantPanel/internal/usecase"
	xhttp "QuantPanel/pkg/http"
	"QuantPanel/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func init() {
	computeCmd.Flags().String("symbol", "", "ticker symbol, e.g. PETR4.SA")
	computeCmd.Flags().String("tf", "", "timeframe (1d, 1wk, 1mo, 1h, 30m, 15m, 5m, 1m)")
	computeCmd.Flags().String("period", "", "named period; default depends on the timeframe")
	computeCmd.Flags().String("start", "", "range start YYYY-MM-DD (daily timeframes only)")
	computeCmd.Flags().String("end", "", "range end YYYY-MM-DD (daily timeframes only)")
	computeCmd.Flags().String("windows", "", "comma separated moving-average lengths")
	computeCmd.Flags().Int("z", 0, "Z-score lookback")
	computeCmd.Flags().Int("k", 0, "stochastic lookback")
	computeCmd.Flags().Int("rows", report.DefaultTableRows, "trailing rows to print; 0 prints all")
	computeCmd.Flags().String("chart-dir", "", "write zscore, stochastic and histogram PNGs here")
	computeCmd.Flags().String("source", "", "price source override (yahoo or clickhouse)")
	computeCmd.Flags().Bool("no-color", false, "disable ANSI colors")
	_ = computeCmd.MarkFlagRequired("symbol")
	RootCmd.AddCommand(computeCmd)
}

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "run the indicator pipeline once and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if source, _ := cmd.Flags().GetString("source"); source != "" {
			cfg.Loader.Source = source
		}
		// one-shot process: an in-memory cache would never be read again
		cfg.Cache.Enabled = false

		l, err := newLogger(cmd)
		if err != nil {
			return err
		}

		ch, cleanup, err := di.ProvideClickHouseClient(cfg, l)
		if err != nil {
			return err
		}
		defer cleanup()

		rec := metrics.New(prometheus.NewRegistry())
		loader, err := di.ProvidePriceLoader(cfg, l, ch, nil, rec)
		if err != nil {
			return err
		}
		uc := di.ProvideIndicatorUseCase(loader, rec, nil, l)

		req := models.IndicatorRequest{
			TF:        cfg.Indicator.Timeframe,
			Windows:   cfg.Indicator.Windows,
			ZLookback: cfg.Indicator.ZScoreLookback,
			KLookback: cfg.Indicator.StochasticLookback,
		}
		if err := requestFromFlags(cmd, &req); err != nil {
			return err
		}
		if verr := xhttp.DefaultAndValidate(ctx, &req); verr != nil {
			return fmt.Errorf("invalid arguments: %s", describeValidation(verr))
		}
		params, err := usecase.ParamsFromRequest(req)
		if err != nil {
			return err
		}

		o, err := uc.Run(ctx, params)
		if err != nil {
			return err
		}

		noColor, _ := cmd.Flags().GetBool("no-color")
		rows, _ := cmd.Flags().GetInt("rows")
		if err := report.WriteOutcome(cmd.OutOrStdout(), o, report.Options{Rows: rows, Color: !noColor}); err != nil {
			return err
		}
		if !o.OK() {
			return fmt.Errorf("run ended in state %s", o.State)
		}

		dir, _ := cmd.Flags().GetString("chart-dir")
		if dir == "" {
			return nil
		}
		return writeCharts(dir, o.Series)
	},
}

// requestFromFlags overlays every flag the user set onto req.
func requestFromFlags(cmd *cobra.Command, req *models.IndicatorRequest) error {
	f := cmd.Flags()
	var err error
	str := func(name string, dst *string) {
		if err == nil && f.Changed(name) {
			*dst, err = f.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if err == nil && f.Changed(name) {
			*dst, err = f.GetInt(name)
		}
	}
	str("symbol", &req.Symbol)
	str("tf", &req.TF)
	str("period", &req.Period)
	str("start", &req.Start)
	str("end", &req.End)
	str("windows", &req.Windows)
	num("z", &req.ZLookback)
	num("k", &req.KLookback)
	return err
}

func describeValidation(v interface{}) string {
	errs, ok := v.([]xhttp.ValidationError)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(e.Field), e.Message))
	}
	return strings.Join(parts, "; ")
}

func writeCharts(dir string, ds *models.DerivedSeries) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("chart dir: %w", err)
	}
	opts := chart.Options{Categorical: domrepo.IsIntraday(ds.Timeframe)}
	base := strings.NewReplacer("^", "", "=", "", "/", "_").Replace(ds.Symbol)
	for _, kind := range chart.Kinds() {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.png", base, ds.Timeframe, kind))
		if err := writeChart(path, kind, ds, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeChart(path string, kind chart.Kind, ds *models.DerivedSeries, opts chart.Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := chart.Render(f, kind, ds, opts); err != nil {
		return fmt.Errorf("render %s: %w", kind, err)
	}
	return nil
}
