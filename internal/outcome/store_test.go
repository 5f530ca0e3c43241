package outcome

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantmill/reversal/internal/logger"
	"github.com/quantmill/reversal/internal/types"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	store, err := NewStore("", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(store.Initialize())

	suite.store = store
}

func (suite *StoreTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *StoreTestSuite) makeAlert(id string, ts time.Time) StoredAlert {
	return StoredAlert{
		AlertID:       id,
		Time:          ts,
		Symbol:        "BTCUSDT",
		Timeframe:     types.Interval1h,
		Setup:         types.SetupMeanReversionBBReclaim,
		Direction:     types.DirectionLong,
		Score:         optional.Some(80),
		TriggerClose:  100,
		EntryZoneLow:  optional.Some(99.5),
		EntryZoneHigh: optional.Some(100.5),
		ATR:           2,
		TrendRegime:   "NEUTRAL",
		VolRegime:     "NORMAL",
	}
}

func (suite *StoreTestSuite) TestSaveAlertIdempotent() {
	alert := suite.makeAlert("alert-1", time.Now().UTC().Add(-2*time.Hour))

	suite.Require().NoError(suite.store.SaveAlert(alert))
	suite.Require().NoError(suite.store.SaveAlert(alert))

	alerts, err := suite.store.LoadAlertsNeedingEvaluation(24, 10, false)
	suite.Require().NoError(err)
	suite.Len(alerts, 1)
}

func (suite *StoreTestSuite) TestLoadAlertRoundTrip() {
	ts := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	alert := suite.makeAlert("alert-rt", ts)
	suite.Require().NoError(suite.store.SaveAlert(alert))

	alerts, err := suite.store.LoadAlertsNeedingEvaluation(24, 10, false)
	suite.Require().NoError(err)
	suite.Require().Len(alerts, 1)

	loaded := alerts[0]
	suite.Equal(alert.AlertID, loaded.AlertID)
	suite.Equal(alert.Symbol, loaded.Symbol)
	suite.Equal(alert.Timeframe, loaded.Timeframe)
	suite.Equal(alert.Direction, loaded.Direction)
	suite.Equal(80, loaded.Score.Unwrap())
	suite.InDelta(100.0, loaded.TriggerClose, 1e-9)
	suite.InDelta(99.5, loaded.EntryZoneLow.Unwrap(), 1e-9)
	suite.InDelta(2.0, loaded.ATR, 1e-9)
	suite.Equal("NEUTRAL", loaded.TrendRegime)
}

func (suite *StoreTestSuite) TestLookbackExcludesOldAlerts() {
	old := suite.makeAlert("alert-old", time.Now().UTC().Add(-72*time.Hour))
	recent := suite.makeAlert("alert-new", time.Now().UTC().Add(-time.Hour))

	suite.Require().NoError(suite.store.SaveAlert(old))
	suite.Require().NoError(suite.store.SaveAlert(recent))

	alerts, err := suite.store.LoadAlertsNeedingEvaluation(24, 10, false)
	suite.Require().NoError(err)
	suite.Require().Len(alerts, 1)
	suite.Equal("alert-new", alerts[0].AlertID)
}

func (suite *StoreTestSuite) TestSettledOutcomeExcludedUnlessForced() {
	alert := suite.makeAlert("alert-done", time.Now().UTC().Add(-2*time.Hour))
	suite.Require().NoError(suite.store.SaveAlert(alert))

	record := types.OutcomeRecord{
		AlertID:            alert.AlertID,
		Time:               alert.Time,
		Symbol:             alert.Symbol,
		Timeframe:          alert.Timeframe,
		Setup:              alert.Setup,
		Direction:          alert.Direction,
		Score:              alert.Score,
		EntryPrice:         100,
		ATRAtAlert:         2,
		BarIntervalMinutes: 60,
		Horizons: map[int]types.HorizonMetrics{
			4: {
				ForwardReturn: optional.Some(1.5),
				MFE:           optional.Some(2.0),
				MAE:           optional.Some(-0.5),
				Hit:           optional.Some(true),
				Complete:      true,
			},
		},
		EvaluationStatus: types.EvaluationStatusComplete,
		EvaluatedAt:      time.Now().UTC(),
	}
	suite.Require().NoError(suite.store.UpsertOutcome(record))

	alerts, err := suite.store.LoadAlertsNeedingEvaluation(24, 10, false)
	suite.Require().NoError(err)
	suite.Empty(alerts)

	forced, err := suite.store.LoadAlertsNeedingEvaluation(24, 10, true)
	suite.Require().NoError(err)
	suite.Len(forced, 1)
}

func (suite *StoreTestSuite) TestPendingOutcomeStaysEligible() {
	alert := suite.makeAlert("alert-pending", time.Now().UTC().Add(-2*time.Hour))
	suite.Require().NoError(suite.store.SaveAlert(alert))

	record := types.OutcomeRecord{
		AlertID:            alert.AlertID,
		Time:               alert.Time,
		Symbol:             alert.Symbol,
		Timeframe:          alert.Timeframe,
		Setup:              alert.Setup,
		Direction:          alert.Direction,
		EntryPrice:         100,
		ATRAtAlert:         2,
		BarIntervalMinutes: 60,
		Horizons:           map[int]types.HorizonMetrics{},
		EvaluationStatus:   types.EvaluationStatusPending,
		EvaluatedAt:        time.Now().UTC(),
		Notes:              "some horizons incomplete - will retry",
	}
	suite.Require().NoError(suite.store.UpsertOutcome(record))

	alerts, err := suite.store.LoadAlertsNeedingEvaluation(24, 10, false)
	suite.Require().NoError(err)
	suite.Len(alerts, 1)

	// Re-upserting with a settled status is allowed and removes eligibility.
	record.EvaluationStatus = types.EvaluationStatusComplete
	suite.Require().NoError(suite.store.UpsertOutcome(record))

	alerts, err = suite.store.LoadAlertsNeedingEvaluation(24, 10, false)
	suite.Require().NoError(err)
	suite.Empty(alerts)
}

func (suite *StoreTestSuite) TestLatestAlert() {
	older := suite.makeAlert("alert-a", time.Now().UTC().Add(-5*time.Hour).Truncate(time.Second))
	newer := suite.makeAlert("alert-b", time.Now().UTC().Add(-time.Hour).Truncate(time.Second))

	suite.Require().NoError(suite.store.SaveAlert(older))
	suite.Require().NoError(suite.store.SaveAlert(newer))

	latest, err := suite.store.LatestAlert("BTCUSDT", types.Interval1h)
	suite.Require().NoError(err)
	suite.Require().True(latest.IsSome())
	suite.Equal("alert-b", latest.Unwrap().AlertID)

	missing, err := suite.store.LatestAlert("ETHUSDT", types.Interval1h)
	suite.Require().NoError(err)
	suite.True(missing.IsNone())
}

func (suite *StoreTestSuite) TestMaxCountLimitsBatch() {
	for i, id := range []string{"a", "b", "c"} {
		alert := suite.makeAlert("alert-"+id, time.Now().UTC().Add(-time.Duration(i+1)*time.Hour))
		suite.Require().NoError(suite.store.SaveAlert(alert))
	}

	alerts, err := suite.store.LoadAlertsNeedingEvaluation(24, 2, false)
	suite.Require().NoError(err)
	suite.Len(alerts, 2)
}
