package indicator

import (
	"fmt"

	"QuantPanel/internal/domain/models"
)

// Pipeline computes the derived table for a price series. It keeps no state
// between calls; every Compute works on its own freshly allocated columns.
type Pipeline struct{}

func NewPipeline() *Pipeline { return &Pipeline{} }

// Compute runs the distance engine, both normalizers on the same raw signal,
// and keeps only rows where every column is defined and finite.
//
// Errors wrap models.ErrConfigInvalid, models.ErrInsufficientHistory or
// models.ErrEmptyAfterFiltering.
func (p *Pipeline) Compute(series models.PriceSeries, cfg models.IndicatorConfig) (*models.DerivedSeries, error) {
	if err := cfg.ValidateParams(); err != nil {
		return nil, err
	}

	closes := series.Closes()
	dist, err := ComputeDistances(closes, cfg.Windows)
	if err != nil {
		return nil, err
	}
	z := ZScore(dist.Raw, cfg.ZScoreLookback)
	k := Stochastic(dist.Raw, cfg.StochasticLookback)

	out := &models.DerivedSeries{
		Symbol:    series.Symbol(),
		Timeframe: series.Timeframe(),
		Windows:   cfg.Windows,
	}
	for t := range closes {
		if !rowDefined(dist, z, k, closes, t) {
			continue
		}
		row := models.DerivedRow{
			Time:       series.At(t).Time,
			Close:      closes[t],
			MA:         make([]float64, len(cfg.Windows)),
			Dist:       make([]float64, len(cfg.Windows)),
			Raw:        dist.Raw[t],
			ZScore:     z[t],
			Stochastic: k[t],
		}
		for i := range cfg.Windows {
			row.MA[i] = dist.MA[i][t]
			row.Dist[i] = dist.Dist[i][t]
		}
		out.Rows = append(out.Rows, row)
	}

	if len(out.Rows) == 0 {
		return nil, fmt.Errorf("%w: %d bars with windows %s, zscore lookback %d and stochastic lookback %d; load more history or reduce the lookbacks",
			models.ErrEmptyAfterFiltering, len(closes), cfg.Windows, cfg.ZScoreLookback, cfg.StochasticLookback)
	}
	return out, nil
}

func rowDefined(d *Distances, z, k, closes []float64, t int) bool {
	if !isFinite(closes[t]) || !isFinite(d.Raw[t]) || !isFinite(z[t]) || !isFinite(k[t]) {
		return false
	}
	for i := range d.Windows {
		if !isFinite(d.MA[i][t]) || !isFinite(d.Dist[i][t]) {
			return false
		}
	}
	return true
}
