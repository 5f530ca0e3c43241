package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// EvaluationStatus is the lifecycle status of an outcome record.
type EvaluationStatus string

const (
	// EvaluationStatusPending means at least one horizon is still waiting for
	// future bars; the record will be re-evaluated on a later run.
	EvaluationStatusPending EvaluationStatus = "PENDING"
	// EvaluationStatusComplete means every configured horizon is fully covered.
	EvaluationStatusComplete EvaluationStatus = "COMPLETE"
	// EvaluationStatusInsufficientData means no horizon produced any metric.
	EvaluationStatusInsufficientData EvaluationStatus = "INSUFFICIENT_DATA"
)

// HorizonMetrics holds the calibration metrics of one horizon.
// ForwardReturn, MFE and MAE are percentages rounded to four decimals.
// Hit distinguishes a definite "no" (Some(false)) from "no data" (None).
type HorizonMetrics struct {
	ForwardReturn optional.Option[float64]
	MFE           optional.Option[float64]
	MAE           optional.Option[float64]
	Hit           optional.Option[bool]

	// Complete reports whether the horizon window was fully covered by bars
	// (within the configured bar tolerance).
	Complete bool
}

// OutcomeRecord is the persisted calibration result for one alert, keyed by
// the deterministic AlertID. Records are upserted in place while PENDING and
// never deleted.
type OutcomeRecord struct {
	AlertID   string
	Time      time.Time
	Symbol    string
	Timeframe Interval
	Setup     string
	Direction Direction
	Score     optional.Option[int]

	EntryPrice         float64
	ATRAtAlert         float64
	BarIntervalMinutes int

	// Horizons maps horizon hours to the metrics computed for that horizon.
	Horizons map[int]HorizonMetrics

	EvaluationStatus EvaluationStatus
	EvaluatedAt      time.Time
	Notes            string

	// Regime tags carried over from the alert for reporting.
	TrendRegime string
	VolRegime   string
}
