package outcome

import (
	"context"
	"testing"
	"time"

	"github.com/quantmill/reversal/internal/logger"
	"github.com/quantmill/reversal/internal/types"
	"github.com/quantmill/reversal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// fakeFetcher serves canned candle series per symbol and counts calls.
type fakeFetcher struct {
	series map[string]types.CandleSeries
	err    error
	calls  int
}

func (f *fakeFetcher) GetCandles(_ context.Context, symbol string, _ types.Interval, _ int) (types.CandleSeries, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return f.series[symbol], nil
}

type RunnerTestSuite struct {
	suite.Suite
	store *Store
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupTest() {
	store, err := NewStore("", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(store.Initialize())

	suite.store = store
}

func (suite *RunnerTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *RunnerTestSuite) saveAlert(id, symbol string, ts time.Time) StoredAlert {
	alert := StoredAlert{
		AlertID:      id,
		Time:         ts,
		Symbol:       symbol,
		Timeframe:    types.Interval1h,
		Setup:        types.SetupMeanReversionBBReclaim,
		Direction:    types.DirectionLong,
		TriggerClose: 100,
		ATR:          2,
	}
	suite.Require().NoError(suite.store.SaveAlert(alert))

	return alert
}

// flatSeries builds hourly candles around the alert time.
func flatSeries(start time.Time, hours int) types.CandleSeries {
	series := make(types.CandleSeries, hours+1)
	for i := range series {
		series[i] = types.MarketData{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   100,
			High:   100,
			Low:    100,
			Close:  100,
			Volume: 1000,
		}
	}

	return series
}

func (suite *RunnerTestSuite) TestRunEvaluatesAndSettles() {
	alertTime := time.Now().UTC().Add(-72 * time.Hour).Truncate(time.Hour)
	suite.saveAlert("alert-1", "BTCUSDT", alertTime)

	fetcher := &fakeFetcher{
		series: map[string]types.CandleSeries{
			"BTCUSDT": flatSeries(alertTime, 48),
		},
	}

	runner := NewRunner(suite.store, fetcher, DefaultConfig(), logger.NewNopLogger())

	stats, err := runner.Run(context.Background(), 24*7, 100, false)
	suite.Require().NoError(err)

	suite.Equal(1, stats.Total)
	suite.Equal(1, stats.Complete)
	suite.Equal(0, stats.Errors)

	// The settled outcome drops the alert from the next batch.
	remaining, err := suite.store.LoadAlertsNeedingEvaluation(24*7, 100, false)
	suite.Require().NoError(err)
	suite.Empty(remaining)
}

func (suite *RunnerTestSuite) TestRunGroupsFetchesBySymbol() {
	alertTime := time.Now().UTC().Add(-72 * time.Hour).Truncate(time.Hour)
	suite.saveAlert("alert-1", "BTCUSDT", alertTime)
	suite.saveAlert("alert-2", "BTCUSDT", alertTime.Add(time.Hour))
	suite.saveAlert("alert-3", "ETHUSDT", alertTime)

	fetcher := &fakeFetcher{
		series: map[string]types.CandleSeries{
			"BTCUSDT": flatSeries(alertTime, 60),
			"ETHUSDT": flatSeries(alertTime, 60),
		},
	}

	runner := NewRunner(suite.store, fetcher, DefaultConfig(), logger.NewNopLogger())

	stats, err := runner.Run(context.Background(), 24*7, 100, false)
	suite.Require().NoError(err)

	suite.Equal(3, stats.Total)
	// One fetch per (symbol, timeframe) group, not per alert.
	suite.Equal(2, fetcher.calls)
}

func (suite *RunnerTestSuite) TestFetchErrorRecordsInsufficientData() {
	alertTime := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Hour)
	suite.saveAlert("alert-1", "BTCUSDT", alertTime)

	fetcher := &fakeFetcher{
		err: errors.New(errors.ErrCodeMarketDataFetchFailed, "upstream unavailable"),
	}

	runner := NewRunner(suite.store, fetcher, DefaultConfig(), logger.NewNopLogger())

	stats, err := runner.Run(context.Background(), 24*7, 100, false)
	suite.Require().NoError(err)

	suite.Equal(1, stats.Total)
	suite.Equal(1, stats.InsufficientData)
	suite.Equal(0, stats.Errors)
}

func (suite *RunnerTestSuite) TestRunWithNoAlerts() {
	fetcher := &fakeFetcher{}
	runner := NewRunner(suite.store, fetcher, DefaultConfig(), logger.NewNopLogger())

	stats, err := runner.Run(context.Background(), 24, 100, false)
	suite.Require().NoError(err)

	suite.Equal(0, stats.Total)
	suite.Equal(0, fetcher.calls)
}
