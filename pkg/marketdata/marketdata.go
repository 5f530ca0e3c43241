// Package marketdata selects and constructs candle providers.
package marketdata

import (
	"github.com/go-playground/validator/v10"
	"github.com/quantmill/reversal/pkg/errors"
	"github.com/quantmill/reversal/pkg/marketdata/provider"
)

// Config selects the candle provider and its credentials.
type Config struct {
	ProviderType  provider.ProviderType `validate:"required,oneof=polygon binance" yaml:"provider"`
	PolygonAPIKey string                `validate:"required_if=ProviderType polygon" yaml:"polygon_api_key"`
}

// Validate checks the provider configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid market data configuration", err)
	}

	return nil
}

// NewProvider constructs the configured candle provider.
func NewProvider(cfg Config) (provider.CandleProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.ProviderType {
	case provider.ProviderBinance:
		return provider.NewBinanceClient()
	case provider.ProviderPolygon:
		return provider.NewPolygonClient(cfg.PolygonAPIKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", cfg.ProviderType)
	}
}
