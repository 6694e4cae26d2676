package service

import "QuantPanel/internal/domain/models"

// IndicatorPipeline turns a loaded price series into the filtered derived table.
type IndicatorPipeline interface {
	Compute(series models.PriceSeries, cfg models.IndicatorConfig) (*models.DerivedSeries, error)
}
