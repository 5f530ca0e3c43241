package types

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
)

// SetupMeanReversionBBReclaim is the setup name attached to every alert
// produced by the mean-reversion evaluator.
const SetupMeanReversionBBReclaim = "MEAN_REVERSION_BB_RECLAIM"

// Direction is the trade direction of an alert.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// SetupStatus is the status of a single setup evaluation.
type SetupStatus string

const (
	// SetupStatusNotEvaluated means missing data or incomplete warmup.
	SetupStatusNotEvaluated SetupStatus = "NOT_EVALUATED"
	// SetupStatusEvaluatedNoSetup means the data was fine but no setup triggered.
	SetupStatusEvaluatedNoSetup SetupStatus = "EVALUATED_NO_SETUP"
	// SetupStatusTriggered means an alert fired.
	SetupStatusTriggered SetupStatus = "SETUP_TRIGGERED"
)

// EntryZone is the suggested entry price band of an alert.
type EntryZone struct {
	Low  float64
	High float64
}

// Alert is the immutable payload produced when a setup triggers.
// Downstream collaborators must not alter any of these fields; post-hoc
// annotations (news risk, cooldown) live on AlertAnnotations instead.
type Alert struct {
	Setup     string
	Symbol    string
	Timeframe Interval
	Time      time.Time
	Direction Direction

	// Price levels
	TriggerClose float64
	EntryZone    EntryZone
	Invalidation float64
	HoldWindow   string

	// Score in [0, 100]
	Score int

	// Evidence holds at most three human-readable trigger notes, ordered:
	// primary trigger, RSI note, regime note.
	Evidence []string

	// Indicator snapshot at trigger time
	RSI         float64
	RSIPrev     float64
	ATR         float64
	ATRPercent  float64
	EMA200      float64
	EMA200Slope float64
	BBLower     float64
	BBMiddle    float64
	BBUpper     float64

	// Regime snapshot
	VolRegime   string
	TrendRegime string
}

// AlertAnnotations overlays mutable collaborator-owned fields on top of an
// immutable Alert. The news-risk labeler and cooldown store write here; the
// core never reads these fields.
type AlertAnnotations struct {
	Alert Alert

	NewsRisk       string
	NewsReasons    []string
	CooldownActive bool
	LastAlertAgo   optional.Option[string]
}

// NewAlertAnnotations wraps an alert with default (low-risk, no-cooldown)
// annotations.
func NewAlertAnnotations(alert Alert) AlertAnnotations {
	return AlertAnnotations{
		Alert:        alert,
		NewsRisk:     "LOW",
		NewsReasons:  nil,
		LastAlertAgo: optional.None[string](),
	}
}

// SetupResult is the outcome of a single setup evaluation. Exactly one of
// the three statuses applies; Alert is present only for SetupStatusTriggered
// and Reason only for the other two.
type SetupResult struct {
	Status SetupStatus
	Reason string
	Alert  optional.Option[Alert]
}

// NotEvaluated builds a NOT_EVALUATED result with the given reason.
func NotEvaluated(reason string) SetupResult {
	return SetupResult{
		Status: SetupStatusNotEvaluated,
		Reason: reason,
		Alert:  optional.None[Alert](),
	}
}

// NoSetup builds an EVALUATED_NO_SETUP result with the given reason.
func NoSetup(reason string) SetupResult {
	return SetupResult{
		Status: SetupStatusEvaluatedNoSetup,
		Reason: reason,
		Alert:  optional.None[Alert](),
	}
}

// Triggered builds a SETUP_TRIGGERED result carrying the alert.
func Triggered(alert Alert) SetupResult {
	return SetupResult{
		Status: SetupStatusTriggered,
		Alert:  optional.Some(alert),
	}
}

// String implements fmt.Stringer.
func (r SetupResult) String() string {
	if r.Status == SetupStatusTriggered && r.Alert.IsSome() {
		alert := r.Alert.Unwrap()

		return fmt.Sprintf("SETUP_TRIGGERED: %s score=%d", alert.Setup, alert.Score)
	}

	return fmt.Sprintf("%s: %s", r.Status, r.Reason)
}
