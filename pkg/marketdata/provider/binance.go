package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/quantmill/reversal/internal/types"
	"github.com/quantmill/reversal/pkg/errors"
)

// binancePageSize is the kline page size used for pagination.
const binancePageSize = 1000

// BinanceClient fetches candles from the Binance public klines endpoint.
// No API key is required for historical klines.
type BinanceClient struct {
	client *binance.Client
}

// NewBinanceClient constructs a keyless Binance candle provider.
func NewBinanceClient() (CandleProvider, error) {
	return &BinanceClient{
		client: binance.NewClient("", ""),
	}, nil
}

// GetCandles pages through Binance klines from now-lookbackDays to now.
func (c *BinanceClient) GetCandles(ctx context.Context, symbol string, interval types.Interval, lookbackDays int) (types.CandleSeries, error) {
	endTime := time.Now().UTC()
	startTime := endTime.AddDate(0, 0, -lookbackDays)

	// Binance API uses milliseconds for timestamps.
	currentStart := startTime.UnixMilli()
	endMillis := endTime.UnixMilli()

	series := make(types.CandleSeries, 0)

	for {
		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(string(interval)).
			StartTime(currentStart).
			EndTime(endMillis).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s klines from Binance", symbol)
		}

		converted, err := convertKlines(symbol, klines)
		if err != nil {
			return nil, err
		}

		series = append(series, converted...)

		if len(klines) < binancePageSize {
			break
		}

		// Resume one millisecond past the last close time to avoid duplicates.
		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart >= endMillis {
			break
		}
	}

	return series, nil
}

func convertKlines(symbol string, klines []*binance.Kline) (types.CandleSeries, error) {
	series := make(types.CandleSeries, 0, len(klines))

	for _, k := range klines {
		open, err := strconv.ParseFloat(k.Open, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s kline open %q", symbol, k.Open)
		}

		high, err := strconv.ParseFloat(k.High, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s kline high %q", symbol, k.High)
		}

		low, err := strconv.ParseFloat(k.Low, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s kline low %q", symbol, k.Low)
		}

		closePrice, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s kline close %q", symbol, k.Close)
		}

		volume, err := strconv.ParseFloat(k.Volume, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s kline volume %q", symbol, k.Volume)
		}

		series = append(series, types.MarketData{
			// OpenTime is the bar timestamp.
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	return series, nil
}
