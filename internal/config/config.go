// Package config loads and validates the YAML configuration for the scan
// and outcome tools.
package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/quantmill/reversal/internal/engine"
	"github.com/quantmill/reversal/internal/indicator"
	"github.com/quantmill/reversal/internal/outcome"
	"github.com/quantmill/reversal/internal/quality"
	"github.com/quantmill/reversal/internal/regime"
	"github.com/quantmill/reversal/internal/setup"
	"github.com/quantmill/reversal/internal/types"
	"github.com/quantmill/reversal/pkg/errors"
	"github.com/quantmill/reversal/pkg/marketdata"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration file. Every section has defaults, so an
// empty file is valid for the binance provider.
type Config struct {
	Scan       ScanConfig        `yaml:"scan"`
	Data       marketdata.Config `yaml:"data"`
	Store      StoreConfig       `yaml:"store"`
	Indicators IndicatorConfig   `yaml:"indicators"`
	Quality    QualityConfig     `yaml:"quality"`
	Setup      SetupConfig       `yaml:"setup"`
	Outcome    OutcomeConfig     `yaml:"outcome"`
}

// ScanConfig drives the scan engine.
type ScanConfig struct {
	Symbols      []string `validate:"min=1"        yaml:"symbols"`
	Timeframe    string   `validate:"required"     yaml:"timeframe"`
	LookbackDays int      `validate:"min=1"        yaml:"lookback_days"`
	Workers      int      `validate:"min=1,max=256" yaml:"workers"`
}

// StoreConfig locates the DuckDB alert store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// IndicatorConfig holds indicator periods.
type IndicatorConfig struct {
	RSIPeriod       int     `validate:"min=2"  yaml:"rsi_period"`
	ATRPeriod       int     `validate:"min=2"  yaml:"atr_period"`
	EMAShort        int     `validate:"min=2"  yaml:"ema_short"`
	EMAMedium       int     `validate:"min=2"  yaml:"ema_medium"`
	EMALong         int     `validate:"min=2"  yaml:"ema_long"`
	BollingerPeriod int     `validate:"min=2"  yaml:"bollinger_period"`
	BollingerStdDev float64 `validate:"gt=0"   yaml:"bollinger_std_dev"`
	VolumeSMAPeriod int     `validate:"min=2"  yaml:"volume_sma_period"`
	ATRSMAPeriod    int     `validate:"min=2"  yaml:"atr_sma_period"`
}

// QualityConfig holds the data quality gate thresholds.
type QualityConfig struct {
	MinBars          map[string]int `yaml:"min_bars"`
	MaxGapMultiplier float64        `validate:"gt=1" yaml:"max_gap_multiplier"`
	GapLookbackBars  int            `validate:"min=1" yaml:"gap_lookback_bars"`
	DropPartial      bool           `yaml:"drop_partial"`
}

// SetupConfig holds setup trigger thresholds and scoring weights.
type SetupConfig struct {
	RSIThreshold      float64 `validate:"gt=0,lt=100" yaml:"rsi_threshold"`
	LookbackOvershoot int     `validate:"min=1"       yaml:"lookback_overshoot"`
	EntryZonePct      float64 `validate:"gt=0"        yaml:"entry_zone_pct"`

	BaseScore        int `validate:"min=0,max=100" yaml:"base_score"`
	StrongRSIBonus   int `validate:"min=0"         yaml:"strong_rsi_bonus"`
	LowVolBonus      int `validate:"min=0"         yaml:"low_vol_bonus"`
	GoodTrendBonus   int `validate:"min=0"         yaml:"good_trend_bonus"`
	LowVolumePenalty int `validate:"min=0"         yaml:"low_volume_penalty"`

	InvalidationLookback  int     `validate:"min=1" yaml:"invalidation_lookback"`
	InvalidationATRBuffer float64 `validate:"gte=0" yaml:"invalidation_atr_buffer"`

	PanicPercentile float64 `validate:"gt=0,lte=100" yaml:"panic_percentile"`
	DeadPercentile  float64 `validate:"gte=0,lt=100" yaml:"dead_percentile"`
	VolLookbackBars int     `validate:"min=10"       yaml:"vol_lookback_bars"`

	SlopeLookback           int     `validate:"min=1" yaml:"slope_lookback"`
	StrongTrendATRThreshold float64 `validate:"gt=0"  yaml:"strong_trend_atr_threshold"`
}

// OutcomeConfig holds the outcome evaluation parameters.
type OutcomeConfig struct {
	Horizons1h []int `validate:"min=1,dive,min=1" yaml:"horizons_1h"`
	Horizons4h []int `validate:"min=1,dive,min=1" yaml:"horizons_4h"`
	Horizons1d []int `validate:"min=1,dive,min=1" yaml:"horizons_1d"`

	MFEMAEUseHighLow bool `yaml:"mfe_mae_use_high_low"`

	HitTargetATR float64 `validate:"gt=0" yaml:"hit_target_atr"`
	HitStopATR   float64 `validate:"gt=0" yaml:"hit_stop_atr"`

	HorizonToleranceBars int `validate:"min=0" yaml:"horizon_tolerance_bars"`

	LookbackHours int `validate:"min=1" yaml:"lookback_hours"`
	MaxAlerts     int `validate:"min=1" yaml:"max_alerts"`
}

// Default returns the full default configuration.
func Default() Config {
	indicators := indicator.DefaultSetConfig()
	qualityCfg := quality.DefaultConfig()
	setupCfg := setup.DefaultConfig()
	outcomeCfg := outcome.DefaultConfig()

	minBars := make(map[string]int, len(qualityCfg.MinBars))
	for interval, bars := range qualityCfg.MinBars {
		minBars[string(interval)] = bars
	}

	return Config{
		Scan: ScanConfig{
			Symbols:      []string{"BTCUSDT"},
			Timeframe:    string(types.Interval1h),
			LookbackDays: 30,
			Workers:      32,
		},
		Data: marketdata.Config{
			ProviderType: "binance",
		},
		Store: StoreConfig{
			Path: "reversal.duckdb",
		},
		Indicators: IndicatorConfig{
			RSIPeriod:       indicators.RSIPeriod,
			ATRPeriod:       indicators.ATRPeriod,
			EMAShort:        indicators.EMAShort,
			EMAMedium:       indicators.EMAMedium,
			EMALong:         indicators.EMALong,
			BollingerPeriod: indicators.BollingerPeriod,
			BollingerStdDev: indicators.BollingerStdDev,
			VolumeSMAPeriod: indicators.VolumeSMAPeriod,
			ATRSMAPeriod:    indicators.ATRSMAPeriod,
		},
		Quality: QualityConfig{
			MinBars:          minBars,
			MaxGapMultiplier: qualityCfg.MaxGapMultiplier,
			GapLookbackBars:  qualityCfg.GapLookbackBars,
			DropPartial:      qualityCfg.DropPartial,
		},
		Setup: SetupConfig{
			RSIThreshold:      setupCfg.RSIThreshold,
			LookbackOvershoot: setupCfg.LookbackOvershoot,
			EntryZonePct:      setupCfg.EntryZonePct,

			BaseScore:        setupCfg.BaseScore,
			StrongRSIBonus:   setupCfg.StrongRSIBonus,
			LowVolBonus:      setupCfg.LowVolBonus,
			GoodTrendBonus:   setupCfg.GoodTrendBonus,
			LowVolumePenalty: setupCfg.LowVolumePenalty,

			InvalidationLookback:  setupCfg.InvalidationLookback,
			InvalidationATRBuffer: setupCfg.InvalidationATRBuffer,

			PanicPercentile: setupCfg.Volatility.PanicPercentile,
			DeadPercentile:  setupCfg.Volatility.DeadPercentile,
			VolLookbackBars: setupCfg.Volatility.LookbackBars,

			SlopeLookback:           setupCfg.Trend.SlopeLookback,
			StrongTrendATRThreshold: setupCfg.Trend.StrongTrendATRThreshold,
		},
		Outcome: OutcomeConfig{
			Horizons1h: outcomeCfg.Horizons1h,
			Horizons4h: outcomeCfg.Horizons4h,
			Horizons1d: outcomeCfg.Horizons1d,

			MFEMAEUseHighLow: outcomeCfg.MFEMAEUseHighLow,

			HitTargetATR: outcomeCfg.HitTargetATR,
			HitStopATR:   outcomeCfg.HitStopATR,

			HorizonToleranceBars: outcomeCfg.HorizonToleranceBars,

			LookbackHours: 14 * 24,
			MaxAlerts:     500,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults and validates
// the result. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read configuration file", err)
		}

		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse configuration file", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if _, err := types.Interval(c.Scan.Timeframe).Minutes(); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidInterval, err, "invalid scan timeframe %q", c.Scan.Timeframe)
	}

	return nil
}

// Timeframe returns the validated scan timeframe.
func (c Config) Timeframe() types.Interval {
	return types.Interval(c.Scan.Timeframe)
}

// IndicatorSetConfig converts the indicators section.
func (c Config) IndicatorSetConfig() indicator.SetConfig {
	return indicator.SetConfig{
		RSIPeriod:       c.Indicators.RSIPeriod,
		ATRPeriod:       c.Indicators.ATRPeriod,
		EMAShort:        c.Indicators.EMAShort,
		EMAMedium:       c.Indicators.EMAMedium,
		EMALong:         c.Indicators.EMALong,
		BollingerPeriod: c.Indicators.BollingerPeriod,
		BollingerStdDev: c.Indicators.BollingerStdDev,
		VolumeSMAPeriod: c.Indicators.VolumeSMAPeriod,
		ATRSMAPeriod:    c.Indicators.ATRSMAPeriod,
	}
}

// QualityGateConfig converts the quality section.
func (c Config) QualityGateConfig() quality.Config {
	minBars := make(map[types.Interval]int, len(c.Quality.MinBars))
	for interval, bars := range c.Quality.MinBars {
		minBars[types.Interval(interval)] = bars
	}

	return quality.Config{
		MinBars:          minBars,
		MaxGapMultiplier: c.Quality.MaxGapMultiplier,
		GapLookbackBars:  c.Quality.GapLookbackBars,
		DropPartial:      c.Quality.DropPartial,
	}
}

// SetupEvalConfig converts the setup section.
func (c Config) SetupEvalConfig() setup.Config {
	cfg := setup.DefaultConfig()

	cfg.RSIThreshold = c.Setup.RSIThreshold
	cfg.LookbackOvershoot = c.Setup.LookbackOvershoot
	cfg.EntryZonePct = c.Setup.EntryZonePct

	cfg.BaseScore = c.Setup.BaseScore
	cfg.StrongRSIBonus = c.Setup.StrongRSIBonus
	cfg.LowVolBonus = c.Setup.LowVolBonus
	cfg.GoodTrendBonus = c.Setup.GoodTrendBonus
	cfg.LowVolumePenalty = c.Setup.LowVolumePenalty

	cfg.InvalidationLookback = c.Setup.InvalidationLookback
	cfg.InvalidationATRBuffer = c.Setup.InvalidationATRBuffer

	cfg.Volatility = regime.VolatilityConfig{
		PanicPercentile: c.Setup.PanicPercentile,
		DeadPercentile:  c.Setup.DeadPercentile,
		LookbackBars:    c.Setup.VolLookbackBars,
	}
	cfg.Trend = regime.TrendConfig{
		SlopeLookback:           c.Setup.SlopeLookback,
		StrongTrendATRThreshold: c.Setup.StrongTrendATRThreshold,
	}

	return cfg
}

// OutcomeEvalConfig converts the outcome section.
func (c Config) OutcomeEvalConfig() outcome.Config {
	return outcome.Config{
		Horizons1h:           c.Outcome.Horizons1h,
		Horizons4h:           c.Outcome.Horizons4h,
		Horizons1d:           c.Outcome.Horizons1d,
		MFEMAEUseHighLow:     c.Outcome.MFEMAEUseHighLow,
		HitTargetATR:         c.Outcome.HitTargetATR,
		HitStopATR:           c.Outcome.HitStopATR,
		HorizonToleranceBars: c.Outcome.HorizonToleranceBars,
	}
}

// EngineConfig converts the scan, indicators, quality and setup sections.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		Workers:      c.Scan.Workers,
		LookbackDays: c.Scan.LookbackDays,

		Indicators: c.IndicatorSetConfig(),
		Quality:    c.QualityGateConfig(),
		Setup:      c.SetupEvalConfig(),
	}
}
