package provider

import (
	"context"

	"github.com/quantmill/reversal/internal/types"
)

// ProviderType identifies a candle data source.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// CandleProvider fetches historical OHLCV candles for a symbol.
//
// Implementations return candles in ascending time order with the most
// recent (possibly still-forming) candle last. The quality gate decides
// whether that last candle is usable.
type CandleProvider interface {
	// GetCandles fetches up to lookbackDays of history at the given interval,
	// ending at the current time. Cancel the context to abort the fetch.
	GetCandles(ctx context.Context, symbol string, interval types.Interval, lookbackDays int) (types.CandleSeries, error)
}
