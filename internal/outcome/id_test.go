package outcome

import (
	"testing"
	"time"

	"github.com/quantmill/reversal/internal/types"
	"github.com/stretchr/testify/suite"
)

type AlertIDTestSuite struct {
	suite.Suite
	ts time.Time
}

func TestAlertIDSuite(t *testing.T) {
	suite.Run(t, new(AlertIDTestSuite))
}

func (suite *AlertIDTestSuite) SetupTest() {
	suite.ts = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *AlertIDTestSuite) TestDeterministic() {
	a := AlertID(suite.ts, "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.5678)
	b := AlertID(suite.ts, "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.5678)

	suite.Equal(a, b)
	suite.Len(a, 32)
}

func (suite *AlertIDTestSuite) TestPriceRoundedBeforeHashing() {
	// Both prices round to 185.5678, so sub-1e-4 float noise maps to the
	// same id.
	a := AlertID(suite.ts, "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.56781234)
	b := AlertID(suite.ts, "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.56780001)

	suite.Equal(a, b)
}

func (suite *AlertIDTestSuite) TestDistinctInputsDistinctIDs() {
	base := AlertID(suite.ts, "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.5678)

	suite.NotEqual(base, AlertID(suite.ts.Add(time.Hour), "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.5678))
	suite.NotEqual(base, AlertID(suite.ts, "ETHUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.5678))
	suite.NotEqual(base, AlertID(suite.ts, "BTCUSDT", types.Interval4h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.5678))
	suite.NotEqual(base, AlertID(suite.ts, "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionShort, 185.5678))
	suite.NotEqual(base, AlertID(suite.ts, "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.5679))
}

func (suite *AlertIDTestSuite) TestTimezoneNormalized() {
	est := time.FixedZone("EST", -5*3600)
	local := suite.ts.In(est)

	a := AlertID(suite.ts, "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.5678)
	b := AlertID(local, "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.5678)

	suite.Equal(a, b)
}

func (suite *AlertIDTestSuite) TestNewStoredAlertDerivesID() {
	alert := types.Alert{
		Setup:        types.SetupMeanReversionBBReclaim,
		Symbol:       "BTCUSDT",
		Timeframe:    types.Interval1h,
		Time:         suite.ts,
		Direction:    types.DirectionLong,
		TriggerClose: 185.5678,
		EntryZone:    types.EntryZone{Low: 184.6, High: 186.5},
		Score:        80,
		ATR:          2.5,
	}

	stored := NewStoredAlert(alert)

	suite.Equal(AlertID(suite.ts, "BTCUSDT", types.Interval1h, types.SetupMeanReversionBBReclaim, types.DirectionLong, 185.5678), stored.AlertID)
	suite.InDelta(185.55, stored.EntryPrice(), 1e-9)
	suite.Equal(80, stored.Score.Unwrap())
}
