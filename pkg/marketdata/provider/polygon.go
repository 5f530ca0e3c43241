package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/quantmill/reversal/internal/types"
	"github.com/quantmill/reversal/pkg/errors"
)

// PolygonClient fetches aggregate bars from the Polygon REST API.
type PolygonClient struct {
	client *polygon.Client
}

// NewPolygonClient constructs a Polygon candle provider. An API key is
// required.
func NewPolygonClient(apiKey string) (CandleProvider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires an API key")
	}

	return &PolygonClient{
		client: polygon.New(apiKey),
	}, nil
}

// GetCandles lists Polygon aggregates from now-lookbackDays to now.
func (c *PolygonClient) GetCandles(ctx context.Context, symbol string, interval types.Interval, lookbackDays int) (types.CandleSeries, error) {
	multiplier, timespan, err := polygonTimespan(interval)
	if err != nil {
		return nil, err
	}

	endTime := time.Now().UTC()
	startTime := endTime.AddDate(0, 0, -lookbackDays)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startTime),
		To:         models.Millis(endTime),
	}.WithOrder(models.Asc).WithLimit(50000)

	iter := c.client.ListAggs(ctx, params)

	series := make(types.CandleSeries, 0)

	for iter.Next() {
		agg := iter.Item()
		series = append(series, types.MarketData{
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if iter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, iter.Err(), "failed to list %s aggregates from Polygon", symbol)
	}

	return series, nil
}

// polygonTimespan maps a candle interval onto Polygon's multiplier/timespan
// pair.
func polygonTimespan(interval types.Interval) (int, models.Timespan, error) {
	switch interval {
	case types.Interval1m:
		return 1, models.Minute, nil
	case types.Interval5m:
		return 5, models.Minute, nil
	case types.Interval15m:
		return 15, models.Minute, nil
	case types.Interval30m:
		return 30, models.Minute, nil
	case types.Interval1h:
		return 1, models.Hour, nil
	case types.Interval4h:
		return 4, models.Hour, nil
	case types.Interval1d:
		return 1, models.Day, nil
	default:
		return 0, "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval for Polygon: %s", interval)
	}
}
