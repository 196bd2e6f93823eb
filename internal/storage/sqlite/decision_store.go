package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/strikeplanner/internal/timeutil"
)

// ErrNotFound is returned by Get when no decision has the requested ID.
var ErrNotFound = errors.New("decision not found")

// DecisionRecord is one persisted planning decision. The intercept columns
// are only meaningful when Feasible is set.
type DecisionRecord struct {
	DecisionID    string          `json:"decision_id"`
	PlayerIndex   int             `json:"player_index"`
	Team          string          `json:"team"`
	FrameTime     float64         `json:"frame_time"`
	Feasible      bool            `json:"feasible"`
	InterceptTime float64         `json:"intercept_time"`
	InterceptX    float64         `json:"intercept_x"`
	InterceptY    float64         `json:"intercept_y"`
	InterceptZ    float64         `json:"intercept_z"`
	StrikeStyle   string          `json:"strike_style"`
	AirBoost      float64         `json:"air_boost"`
	FailurePeriod float64         `json:"failure_period"`
	ReadyToLaunch bool            `json:"ready_to_launch"`
	Checklist     string          `json:"checklist,omitempty"`
	Route         string          `json:"route,omitempty"`
	PlanJSON      json.RawMessage `json:"plan_json,omitempty"`
	CreatedAt     int64           `json:"created_at"`
}

// DecisionStore provides persistence for planning decisions.
type DecisionStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewDecisionStore creates a new DecisionStore.
func NewDecisionStore(db *sql.DB) *DecisionStore {
	return NewDecisionStoreWithClock(db, timeutil.RealClock{})
}

// NewDecisionStoreWithClock creates a DecisionStore that stamps records and
// paces busy retries with clock.
func NewDecisionStoreWithClock(db *sql.DB, clock timeutil.Clock) *DecisionStore {
	return &DecisionStore{db: db, clock: clock}
}

const decisionColumns = `
	decision_id, player_index, team, frame_time, feasible,
	intercept_time, intercept_x, intercept_y, intercept_z,
	strike_style, air_boost, failure_period, ready_to_launch,
	checklist, route, plan_json, created_at`

// Insert persists a decision. If DecisionID is empty, a UUID is generated.
func (s *DecisionStore) Insert(d *DecisionRecord) error {
	if d.DecisionID == "" {
		d.DecisionID = uuid.New().String()
	}
	if d.CreatedAt == 0 {
		d.CreatedAt = s.clock.Now().UnixNano()
	}

	var plan interface{}
	if len(d.PlanJSON) > 0 {
		plan = string(d.PlanJSON)
	}

	return retryOnBusy(s.clock, func() error {
		_, err := s.db.Exec(`INSERT INTO strike_decisions (`+decisionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.DecisionID, d.PlayerIndex, d.Team, d.FrameTime, d.Feasible,
			d.InterceptTime, d.InterceptX, d.InterceptY, d.InterceptZ,
			d.StrikeStyle, d.AirBoost, d.FailurePeriod, d.ReadyToLaunch,
			d.Checklist, d.Route, plan, d.CreatedAt,
		)
		return err
	})
}

// Get returns a single decision by ID.
func (s *DecisionStore) Get(decisionID string) (*DecisionRecord, error) {
	row := s.db.QueryRow(`SELECT `+decisionColumns+`
		FROM strike_decisions
		WHERE decision_id = ?`, decisionID)

	d, err := scanDecision(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, decisionID)
		}
		return nil, err
	}
	return d, nil
}

// ListByPlayer returns the decisions for a player ordered by frame time,
// most recent first. A non-positive limit returns them all.
func (s *DecisionStore) ListByPlayer(playerIndex, limit int) ([]*DecisionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+decisionColumns+`
		FROM strike_decisions
		WHERE player_index = ?
		ORDER BY frame_time DESC
		LIMIT ?`, playerIndex, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []*DecisionRecord
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountFeasible returns how many of a player's decisions found an intercept,
// and how many were recorded in total.
func (s *DecisionStore) CountFeasible(playerIndex int) (feasible, total int, err error) {
	err = s.db.QueryRow(`
		SELECT COALESCE(SUM(feasible), 0), COUNT(*)
		FROM strike_decisions
		WHERE player_index = ?`, playerIndex).Scan(&feasible, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("count decisions: %w", err)
	}
	return feasible, total, nil
}

// Delete removes a decision by ID.
func (s *DecisionStore) Delete(decisionID string) error {
	return retryOnBusy(s.clock, func() error {
		result, err := s.db.Exec(`DELETE FROM strike_decisions WHERE decision_id = ?`, decisionID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, decisionID)
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(row scanner) (*DecisionRecord, error) {
	var (
		d                      DecisionRecord
		checklist, route, plan sql.NullString
		style                  sql.NullString
		tm, x, y, z, air, fail sql.NullFloat64
	)
	err := row.Scan(
		&d.DecisionID, &d.PlayerIndex, &d.Team, &d.FrameTime, &d.Feasible,
		&tm, &x, &y, &z,
		&style, &air, &fail, &d.ReadyToLaunch,
		&checklist, &route, &plan, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan decision: %w", err)
	}
	d.InterceptTime, d.InterceptX, d.InterceptY, d.InterceptZ = tm.Float64, x.Float64, y.Float64, z.Float64
	d.AirBoost, d.FailurePeriod = air.Float64, fail.Float64
	d.StrikeStyle = style.String
	d.Checklist = checklist.String
	d.Route = route.String
	if plan.Valid {
		d.PlanJSON = json.RawMessage(plan.String)
	}
	return &d, nil
}
