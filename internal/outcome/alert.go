package outcome

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantmill/reversal/internal/types"
)

// StoredAlert is the calibration-side view of a triggered alert, as loaded
// from the alert log.
type StoredAlert struct {
	AlertID   string
	Time      time.Time
	Symbol    string
	Timeframe types.Interval
	Setup     string
	Direction types.Direction
	Score     optional.Option[int]

	TriggerClose  float64
	EntryZoneLow  optional.Option[float64]
	EntryZoneHigh optional.Option[float64]
	ATR           float64

	TrendRegime string
	VolRegime   string
}

// NewStoredAlert converts a freshly triggered alert into its stored form,
// deriving the deterministic alert id.
func NewStoredAlert(alert types.Alert) StoredAlert {
	return StoredAlert{
		AlertID:       AlertID(alert.Time, alert.Symbol, alert.Timeframe, alert.Setup, alert.Direction, alert.TriggerClose),
		Time:          alert.Time,
		Symbol:        alert.Symbol,
		Timeframe:     alert.Timeframe,
		Setup:         alert.Setup,
		Direction:     alert.Direction,
		Score:         optional.Some(alert.Score),
		TriggerClose:  alert.TriggerClose,
		EntryZoneLow:  optional.Some(alert.EntryZone.Low),
		EntryZoneHigh: optional.Some(alert.EntryZone.High),
		ATR:           alert.ATR,
		TrendRegime:   alert.TrendRegime,
		VolRegime:     alert.VolRegime,
	}
}

// EntryPrice returns the price the calibration measures from: the midpoint
// of the entry zone when one was recorded, otherwise the trigger close.
func (a StoredAlert) EntryPrice() float64 {
	if a.EntryZoneLow.IsSome() && a.EntryZoneHigh.IsSome() {
		return (a.EntryZoneLow.Unwrap() + a.EntryZoneHigh.Unwrap()) / 2
	}

	return a.TriggerClose
}
