package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
	applogger "QuantPanel/pkg/logger"
)

// CHPriceStore loads and stores close series in a ClickHouse table keyed by
// (symbol, tf, bucket).
type CHPriceStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

func NewCHPriceStore(db *sql.DB, table string) *CHPriceStore {
	return &CHPriceStore{db: db, table: table, now: time.Now}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) Name() string { return "clickhouse" }

// Load reads closes in [from, to) ordered by bucket. Rows sharing a bucket
// collapse to the last one read.
func (s *CHPriceStore) Load(ctx context.Context, q domrepo.PriceQuery) (models.PriceSeries, error) {
	from, to := q.Range.Bounds(s.now().UTC())
	query := fmt.Sprintf(`
        SELECT bucket, close
        FROM %s
        WHERE symbol = ? AND tf = ? AND bucket >= ? AND bucket < ?
        ORDER BY bucket ASC
    `, s.table)

	rows, err := s.db.QueryContext(ctx, query, q.Symbol, string(q.Timeframe), from, to)
	if err != nil {
		s.logErr("clickhouse load query error", q, err)
		return models.PriceSeries{}, fmt.Errorf("%w: query: %v", models.ErrLoadFailure, err)
	}
	defer rows.Close()

	points := make([]models.PricePoint, 0, 1024)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Time, &p.Close); err != nil {
			s.logErr("clickhouse load scan error", q, err)
			return models.PriceSeries{}, fmt.Errorf("%w: scan: %v", models.ErrLoadFailure, err)
		}
		p.Time = p.Time.UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		s.logErr("clickhouse load rows error", q, err)
		return models.PriceSeries{}, fmt.Errorf("%w: rows: %v", models.ErrLoadFailure, err)
	}

	points, err = models.CollapseDuplicates(points)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: %v", models.ErrLoadFailure, err)
	}
	if len(points) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: no rows for %s %s in %s", models.ErrLoadFailure, q.Symbol, q.Timeframe, q.Range)
	}
	series, err := models.NewPriceSeries(q.Symbol, q.Timeframe, points)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: %v", models.ErrLoadFailure, err)
	}
	return series, nil
}

// SaveSeries inserts a loaded series in multi-row batches.
func (s *CHPriceStore) SaveSeries(ctx context.Context, series models.PriceSeries) error {
	const chunkSize = 2000
	points := series.Points()
	for start := 0; start < len(points); start += chunkSize {
		end := min(start+chunkSize, len(points))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, p := range points[start:end] {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, series.Symbol(), string(series.Timeframe()), p.Time.UTC(), p.Close)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, tf, bucket, close) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert closes: %w", err)
		}
	}
	return nil
}

func (s *CHPriceStore) logErr(msg string, q domrepo.PriceQuery, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg,
		applogger.String("table", s.table),
		applogger.String("symbol", q.Symbol),
		applogger.String("tf", string(q.Timeframe)),
		applogger.Error(err),
	)
}

var _ domrepo.PriceLoader = (*CHPriceStore)(nil)
