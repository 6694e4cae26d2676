package main

import (
	"fmt"
	"strings"
	"time"

	"QuantPanel/internal/di"
	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
	internalrepo "QuantPanel/internal/repository"
	"QuantPanel/internal/service/yahoo"
	xhttp "QuantPanel/pkg/http"
	applogger "QuantPanel/pkg/logger"
	xutil "QuantPanel/pkg/util"

	"github.com/spf13/cobra"
)

func init() {
	ingestCmd.Flags().StringSlice("symbol", nil, "symbols to copy (repeatable or comma separated)")
	ingestCmd.Flags().String("tf", "1d", "timeframe")
	ingestCmd.Flags().String("period", "", "named period; default depends on the timeframe")
	ingestCmd.Flags().String("start", "", "range start YYYY-MM-DD")
	ingestCmd.Flags().String("end", "", "range end YYYY-MM-DD")
	_ = ingestCmd.MarkFlagRequired("symbol")
	RootCmd.AddCommand(ingestCmd)
}

// ingestCmd copies closes from Yahoo into the ClickHouse table read by the
// clickhouse loader source.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "copy close prices from Yahoo into ClickHouse",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		l, err := newLogger(cmd)
		if err != nil {
			return err
		}

		symbols, _ := cmd.Flags().GetStringSlice("symbol")
		tfStr, _ := cmd.Flags().GetString("tf")
		period, _ := cmd.Flags().GetString("period")
		startStr, _ := cmd.Flags().GetString("start")
		endStr, _ := cmd.Flags().GetString("end")

		start, err := xutil.ParseDate(startStr)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		end, err := xutil.ParseDate(endStr)
		if err != nil {
			return fmt.Errorf("end: %w", err)
		}
		tf := domrepo.NormalizeTimeframe(tfStr)
		rng, err := domrepo.ResolveRange(tf, models.Period(period), start, end, time.Now())
		if err != nil {
			return err
		}

		cfg.Loader.Source = "clickhouse"
		cfg.ClickHouse.InitSchema = true
		if err := cfg.Validate(); err != nil {
			return err
		}
		client, cleanup, err := di.ProvideClickHouseClient(cfg, l)
		if err != nil {
			return err
		}
		defer cleanup()
		store := internalrepo.NewCHPriceStore(client.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
		store.SetLogger(l)

		src := yahoo.New(cfg.Yahoo.BaseURL, xhttp.NewClient(
			xhttp.WithTimeout(cfg.Loader.Timeout),
			xhttp.WithUserAgent(cfg.Yahoo.UserAgent),
		))
		src.SetLogger(l)

		var failed []string
		for _, sym := range symbols {
			sym = strings.ToUpper(strings.TrimSpace(sym))
			q := domrepo.PriceQuery{Symbol: sym, Timeframe: tf, Range: rng}
			series, err := src.Load(ctx, q)
			if err == nil {
				err = store.SaveSeries(ctx, series)
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.Error("ingest failed", applogger.String("symbol", sym), applogger.Error(err))
				failed = append(failed, sym)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d closes stored\n", sym, tf, series.Len())
		}
		if len(failed) > 0 {
			return fmt.Errorf("ingest failed for %s", strings.Join(failed, ", "))
		}
		return nil
	},
}
