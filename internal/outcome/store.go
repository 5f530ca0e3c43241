package outcome

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/quantmill/reversal/internal/logger"
	"github.com/quantmill/reversal/internal/types"
	"github.com/quantmill/reversal/pkg/errors"
	"go.uber.org/zap"
)

// Store persists triggered alerts and their outcome records in DuckDB.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewStore opens (or creates) the DuckDB database at path. An empty path
// opens an in-memory database, which tests rely on.
func NewStore(path string, logger *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreOpenFailed, "failed to open alert store", err)
	}

	return &Store{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the alert log and outcome tables.
func (s *Store) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS alerts (
			alert_id TEXT PRIMARY KEY,
			ts TIMESTAMP,
			symbol TEXT,
			timeframe TEXT,
			setup TEXT,
			direction TEXT,
			score INTEGER,
			trigger_close DOUBLE,
			entry_zone_low DOUBLE,
			entry_zone_high DOUBLE,
			atr DOUBLE,
			trend_regime TEXT,
			vol_regime TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create alerts table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS alert_outcomes (
			alert_id TEXT PRIMARY KEY,
			ts TIMESTAMP,
			symbol TEXT,
			timeframe TEXT,
			setup TEXT,
			direction TEXT,
			score INTEGER,
			entry_price DOUBLE,
			atr_at_alert DOUBLE,
			bar_interval_minutes INTEGER,
			forward_returns_json TEXT,
			mfe_json TEXT,
			mae_json TEXT,
			hit_json TEXT,
			evaluation_status TEXT,
			evaluated_at TIMESTAMP,
			notes TEXT,
			trend_regime TEXT,
			vol_regime TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create alert_outcomes table", err)
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol_ts ON alerts (symbol, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_status ON alert_outcomes (evaluation_status)`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create index", err)
		}
	}

	return nil
}

// SaveAlert appends a triggered alert to the alert log. Re-saving the same
// alert id is a no-op, which makes repeated scans over the same history
// idempotent.
func (s *Store) SaveAlert(alert StoredAlert) error {
	query := s.sq.
		Insert("alerts").
		Columns(
			"alert_id", "ts", "symbol", "timeframe", "setup", "direction", "score",
			"trigger_close", "entry_zone_low", "entry_zone_high", "atr",
			"trend_regime", "vol_regime",
		).
		Values(
			alert.AlertID, alert.Time.UTC(), alert.Symbol, string(alert.Timeframe),
			alert.Setup, string(alert.Direction), optionalIntValue(alert.Score),
			alert.TriggerClose, optionalFloatValue(alert.EntryZoneLow), optionalFloatValue(alert.EntryZoneHigh),
			alert.ATR, alert.TrendRegime, alert.VolRegime,
		).
		Suffix("ON CONFLICT (alert_id) DO NOTHING").
		RunWith(s.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeUpsertFailed, "failed to save alert", err)
	}

	s.logger.Debug("saved alert",
		zap.String("alert_id", alert.AlertID),
		zap.String("symbol", alert.Symbol),
	)

	return nil
}

// UpsertOutcome writes an outcome record, replacing any previous evaluation
// of the same alert. PENDING records are overwritten on every re-run until
// they settle as COMPLETE.
func (s *Store) UpsertOutcome(record types.OutcomeRecord) error {
	fwdJSON, mfeJSON, maeJSON, hitJSON, err := marshalHorizons(record.Horizons)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpsertFailed, "failed to encode horizon metrics", err)
	}

	query := s.sq.
		Insert("alert_outcomes").
		Options("OR REPLACE").
		Columns(
			"alert_id", "ts", "symbol", "timeframe", "setup", "direction", "score",
			"entry_price", "atr_at_alert", "bar_interval_minutes",
			"forward_returns_json", "mfe_json", "mae_json", "hit_json",
			"evaluation_status", "evaluated_at", "notes", "trend_regime", "vol_regime",
		).
		Values(
			record.AlertID, record.Time.UTC(), record.Symbol, string(record.Timeframe),
			record.Setup, string(record.Direction), optionalIntValue(record.Score),
			record.EntryPrice, record.ATRAtAlert, record.BarIntervalMinutes,
			fwdJSON, mfeJSON, maeJSON, hitJSON,
			string(record.EvaluationStatus), record.EvaluatedAt.UTC(), record.Notes,
			record.TrendRegime, record.VolRegime,
		).
		RunWith(s.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeUpsertFailed, "failed to upsert outcome", err)
	}

	return nil
}

// LoadAlertsNeedingEvaluation returns alerts from the trailing lookback that
// have no outcome yet or whose outcome is still PENDING. With force set,
// COMPLETE and INSUFFICIENT_DATA outcomes are re-evaluated too.
func (s *Store) LoadAlertsNeedingEvaluation(lookbackHours, maxCount int, force bool) ([]StoredAlert, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	query := s.sq.
		Select(
			"a.alert_id", "a.ts", "a.symbol", "a.timeframe", "a.setup", "a.direction",
			"a.score", "a.trigger_close", "a.entry_zone_low", "a.entry_zone_high",
			"a.atr", "a.trend_regime", "a.vol_regime",
		).
		From("alerts a").
		LeftJoin("alert_outcomes o ON a.alert_id = o.alert_id").
		Where(squirrel.GtOrEq{"a.ts": cutoff}).
		OrderBy("a.ts ASC").
		Limit(uint64(maxCount)).
		RunWith(s.db)

	if !force {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"o.alert_id": nil},
			squirrel.Eq{"o.evaluation_status": string(types.EvaluationStatusPending)},
		})
	}

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to load alerts", err)
	}
	defer rows.Close()

	alerts := make([]StoredAlert, 0)

	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}

		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeScanFailed, "failed reading alert rows", err)
	}

	return alerts, nil
}

// LatestAlert returns the most recent stored alert for a symbol and
// timeframe, used to annotate new alerts with cooldown context.
func (s *Store) LatestAlert(symbol string, timeframe types.Interval) (optional.Option[StoredAlert], error) {
	none := optional.None[StoredAlert]()

	rows, err := s.sq.
		Select(
			"alert_id", "ts", "symbol", "timeframe", "setup", "direction",
			"score", "trigger_close", "entry_zone_low", "entry_zone_high",
			"atr", "trend_regime", "vol_regime",
		).
		From("alerts").
		Where(squirrel.Eq{"symbol": symbol, "timeframe": string(timeframe)}).
		OrderBy("ts DESC").
		Limit(1).
		RunWith(s.db).
		Query()
	if err != nil {
		return none, errors.Wrap(errors.ErrCodeQueryFailed, "failed to load latest alert", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return none, rows.Err()
	}

	alert, err := scanAlert(rows)
	if err != nil {
		return none, err
	}

	return optional.Some(alert), nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanAlert(rows *sql.Rows) (StoredAlert, error) {
	var (
		alert                StoredAlert
		ts                   time.Time
		timeframe, direction string
		score                sql.NullInt64
		entryLow, entryHigh  sql.NullFloat64
	)

	err := rows.Scan(
		&alert.AlertID, &ts, &alert.Symbol, &timeframe, &alert.Setup, &direction,
		&score, &alert.TriggerClose, &entryLow, &entryHigh,
		&alert.ATR, &alert.TrendRegime, &alert.VolRegime,
	)
	if err != nil {
		return StoredAlert{}, errors.Wrap(errors.ErrCodeScanFailed, "failed to scan alert row", err)
	}

	alert.Time = ts.UTC()
	alert.Timeframe = types.Interval(timeframe)
	alert.Direction = types.Direction(direction)

	if score.Valid {
		alert.Score = optional.Some(int(score.Int64))
	}

	if entryLow.Valid {
		alert.EntryZoneLow = optional.Some(entryLow.Float64)
	}

	if entryHigh.Valid {
		alert.EntryZoneHigh = optional.Some(entryHigh.Float64)
	}

	return alert, nil
}

// marshalHorizons flattens per-horizon metrics into four JSON objects keyed
// by horizon hours, with null for metrics that could not be computed.
func marshalHorizons(horizons map[int]types.HorizonMetrics) (fwd, mfe, mae, hit string, err error) {
	fwdMap := make(map[string]*float64, len(horizons))
	mfeMap := make(map[string]*float64, len(horizons))
	maeMap := make(map[string]*float64, len(horizons))
	hitMap := make(map[string]*bool, len(horizons))

	for hours, metrics := range horizons {
		key := strconv.Itoa(hours)
		fwdMap[key] = floatPtr(metrics.ForwardReturn)
		mfeMap[key] = floatPtr(metrics.MFE)
		maeMap[key] = floatPtr(metrics.MAE)
		hitMap[key] = boolPtr(metrics.Hit)
	}

	encoded := make([]string, 0, 4)

	for _, m := range []any{fwdMap, mfeMap, maeMap, hitMap} {
		raw, marshalErr := json.Marshal(m)
		if marshalErr != nil {
			return "", "", "", "", marshalErr
		}

		encoded = append(encoded, string(raw))
	}

	return encoded[0], encoded[1], encoded[2], encoded[3], nil
}

func floatPtr(v optional.Option[float64]) *float64 {
	if v.IsNone() {
		return nil
	}

	value := v.Unwrap()

	return &value
}

func boolPtr(v optional.Option[bool]) *bool {
	if v.IsNone() {
		return nil
	}

	value := v.Unwrap()

	return &value
}

func optionalIntValue(v optional.Option[int]) any {
	if v.IsNone() {
		return nil
	}

	return v.Unwrap()
}

func optionalFloatValue(v optional.Option[float64]) any {
	if v.IsNone() {
		return nil
	}

	return v.Unwrap()
}
