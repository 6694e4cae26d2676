package repository

import (
	"context"
	"fmt"

	"QuantPanel/internal/domain/models"
)

// PriceQuery selects the close series a PriceLoader returns.
type PriceQuery struct {
	Symbol    string
	Timeframe models.Timeframe
	Range     models.PriceRange
}

// Key identifies the query for caching.
func (q PriceQuery) Key() string {
	return fmt.Sprintf("%s:%s:%s", q.Symbol, q.Timeframe, q.Range.String())
}

// PriceLoader supplies a time-ordered close series. Any failure, including an
// empty response, is reported as an error wrapping models.ErrLoadFailure.
type PriceLoader interface {
	Name() string
	Load(ctx context.Context, q PriceQuery) (models.PriceSeries, error)
}

// SnapshotPublisher ships point-in-time summaries of finished runs.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, s models.Snapshot) error
	Close() error
}

// Metrics records pipeline activity. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordRun(symbol string, state models.State)
	RecordCache(result string)
	RecordError(kind string)
	RecordSummary(symbol string, s models.Summary)
	RecordLatency(op string, seconds float64)
}
