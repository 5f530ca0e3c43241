package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quantmill/reversal/internal/types"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.T().TempDir(), "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (suite *ConfigTestSuite) TestDefaultIsValid() {
	cfg := Default()

	suite.Require().NoError(cfg.Validate())
	suite.Equal(types.Interval1h, cfg.Timeframe())
	suite.Equal(32, cfg.Scan.Workers)
}

func (suite *ConfigTestSuite) TestLoadEmptyPathReturnsDefaults() {
	cfg, err := Load("")
	suite.Require().NoError(err)

	suite.Equal(Default(), cfg)
}

func (suite *ConfigTestSuite) TestLoadOverridesDefaults() {
	path := suite.writeConfig(`
scan:
  symbols: [BTCUSDT, ETHUSDT]
  timeframe: 4h
  workers: 8
setup:
  rsi_threshold: 40
outcome:
  hit_stop_atr: 0.5
`)

	cfg, err := Load(path)
	suite.Require().NoError(err)

	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, cfg.Scan.Symbols)
	suite.Equal(types.Interval4h, cfg.Timeframe())
	suite.Equal(8, cfg.Scan.Workers)
	suite.InDelta(40.0, cfg.Setup.RSIThreshold, 1e-9)
	suite.InDelta(0.5, cfg.Outcome.HitStopATR, 1e-9)

	// Untouched sections keep their defaults.
	suite.Equal(14, cfg.Indicators.RSIPeriod)
	suite.InDelta(1.0, cfg.Outcome.HitTargetATR, 1e-9)
}

func (suite *ConfigTestSuite) TestLoadRejectsUnknownTimeframe() {
	path := suite.writeConfig(`
scan:
  timeframe: 7h
`)

	_, err := Load(path)
	suite.Require().Error(err)
}

func (suite *ConfigTestSuite) TestLoadRejectsMalformedYAML() {
	path := suite.writeConfig("scan: [unclosed")

	_, err := Load(path)
	suite.Require().Error(err)
}

func (suite *ConfigTestSuite) TestLoadMissingFile() {
	_, err := Load(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.Require().Error(err)
}

func (suite *ConfigTestSuite) TestPolygonRequiresAPIKey() {
	path := suite.writeConfig(`
data:
  provider: polygon
`)

	_, err := Load(path)
	suite.Require().Error(err)
}

func (suite *ConfigTestSuite) TestConverters() {
	cfg := Default()

	indicators := cfg.IndicatorSetConfig()
	suite.Equal(14, indicators.RSIPeriod)
	suite.Equal(200, indicators.EMALong)

	gate := cfg.QualityGateConfig()
	suite.InDelta(3.0, gate.MaxGapMultiplier, 1e-9)
	suite.Equal(350, gate.MinBarsFor(types.Interval1h))

	setupCfg := cfg.SetupEvalConfig()
	suite.InDelta(35.0, setupCfg.RSIThreshold, 1e-9)
	suite.Equal(200, setupCfg.Volatility.LookbackBars)
	suite.Equal("1-3d", setupCfg.HoldWindows[types.Interval4h])

	outcomeCfg := cfg.OutcomeEvalConfig()
	suite.Equal([]int{4, 12, 24, 48}, outcomeCfg.Horizons1h)
	suite.InDelta(0.7, outcomeCfg.HitStopATR, 1e-9)

	engineCfg := cfg.EngineConfig()
	suite.Equal(32, engineCfg.Workers)
	suite.Equal(30, engineCfg.LookbackDays)
}
