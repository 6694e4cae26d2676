package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
	xhttp "QuantPanel/pkg/http"
	applogger "QuantPanel/pkg/logger"
)

// DefaultBaseURL is the public Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client is a PriceLoader backed by the Yahoo chart API.
type Client struct {
	baseURL string
	http    *xhttp.Client
	l       *applogger.Logger
}

func New(baseURL string, httpClient *xhttp.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

func (c *Client) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// Load fetches one series. Any transport, provider or shape problem is
// reported as models.ErrLoadFailure.
func (c *Client) Load(ctx context.Context, q domrepo.PriceQuery) (models.PriceSeries, error) {
	params := url.Values{}
	params.Set("interval", string(q.Timeframe))
	params.Set("includeAdjustedClose", "true")
	params.Set("events", "div,split")
	if q.Range.IsCustom() {
		params.Set("period1", strconv.FormatInt(q.Range.Start.Unix(), 10))
		params.Set("period2", strconv.FormatInt(q.Range.End.Unix(), 10))
	} else {
		params.Set("range", string(q.Range.Period))
	}

	start := time.Now()
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL:         c.baseURL + "/v8/finance/chart/" + url.PathEscape(q.Symbol),
		QueryParams: params,
		Headers:     map[string]string{"Accept": "application/json"},
	}, &resp)
	if err != nil {
		if ctx.Err() != nil {
			return models.PriceSeries{}, ctx.Err()
		}
		err = describe(err)
		if c.l != nil {
			c.l.Warn("yahoo chart request failed",
				applogger.String("symbol", q.Symbol),
				applogger.String("tf", string(q.Timeframe)),
				applogger.Duration("duration_ms", time.Since(start)),
				applogger.Error(err),
			)
		}
		return models.PriceSeries{}, fmt.Errorf("%w: %s: %v", models.ErrLoadFailure, q.Symbol, err)
	}

	points, err := extract(resp)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: %s: %v", models.ErrLoadFailure, q.Symbol, err)
	}
	series, err := models.NewPriceSeries(q.Symbol, q.Timeframe, points)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: %s: %v", models.ErrLoadFailure, q.Symbol, err)
	}
	if c.l != nil {
		c.l.Debug("yahoo chart loaded",
			applogger.String("symbol", q.Symbol),
			applogger.String("tf", string(q.Timeframe)),
			applogger.String("range", q.Range.String()),
			applogger.Int("bars", series.Len()),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return series, nil
}

// extract prefers adjusted closes when they line up with the timestamps.
func extract(resp chartResponse) ([]models.PricePoint, error) {
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("provider error %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, errors.New("empty chart result")
	}
	r := resp.Chart.Result[0]

	var closes []*float64
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) == len(r.Timestamp) {
		closes = r.Indicators.AdjClose[0].AdjClose
	} else if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}
	if len(closes) != len(r.Timestamp) {
		return nil, fmt.Errorf("got %d closes for %d timestamps", len(closes), len(r.Timestamp))
	}

	raw := make([]models.PricePoint, 0, len(closes))
	for i, ts := range r.Timestamp {
		if closes[i] == nil {
			continue
		}
		raw = append(raw, models.PricePoint{Time: time.Unix(ts, 0).UTC(), Close: *closes[i]})
	}
	points, err := models.CollapseDuplicates(raw)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, errors.New("no prices in response")
	}
	return points, nil
}

// describe pulls the provider's description out of a non-2xx body.
func describe(err error) error {
	var se *xhttp.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body chartResponse
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Chart.Error != nil {
		return fmt.Errorf("status %d: %s", se.StatusCode, body.Chart.Error.Description)
	}
	return err
}

var _ domrepo.PriceLoader = (*Client)(nil)
