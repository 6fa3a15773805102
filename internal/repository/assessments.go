package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/sitecheck/internal/models"
)

const assessmentColumns = `id, property_id, scenario, overall_rating, overall_score, risk_level,
    summary, scenario_context, systems, recommended_actions, recorded_at`

// SaveConditionAssessment records draft as a new assessment for propertyID.
// The stored copy gets a fresh id and recorded time; earlier assessments are
// never modified.
func (s *Store) SaveConditionAssessment(ctx context.Context, propertyID string, draft models.ConditionAssessment) (*models.ConditionAssessment, error) {
	if propertyID == "" {
		return nil, errors.New("property id is required")
	}
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assessment: %w", err)
	}

	record := draft.Clone()
	record.ID = uuid.New().String()
	record.PropertyID = propertyID
	if record.Scenario == "" {
		record.Scenario = models.ScenarioAll
	}
	if record.Systems == nil {
		record.Systems = []models.SystemAssessment{}
	}
	if record.RecommendedActions == nil {
		record.RecommendedActions = []string{}
	}
	recordedAt := s.now()
	record.RecordedAt = &recordedAt

	systems, err := json.Marshal(record.Systems)
	if err != nil {
		return nil, fmt.Errorf("marshal systems: %w", err)
	}
	actions, err := json.Marshal(record.RecommendedActions)
	if err != nil {
		return nil, fmt.Errorf("marshal recommended actions: %w", err)
	}

	query := `INSERT INTO condition_assessments (` + assessmentColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.PropertyID, string(record.Scenario), string(record.OverallRating),
		record.OverallScore, string(record.RiskLevel), record.Summary, record.ScenarioContext,
		string(systems), string(actions), recordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}

	return record, nil
}

// FetchConditionAssessment returns the current assessment for a scenario.
// A concrete scenario falls back to the most recent general ("all")
// assessment when it has none of its own. Returns nil when nothing exists.
func (s *Store) FetchConditionAssessment(ctx context.Context, propertyID string, scenario models.Scenario) (*models.ConditionAssessment, error) {
	if scenario.IsAll() {
		scenario = models.ScenarioAll
	}

	query := `SELECT ` + assessmentColumns + `
FROM condition_assessments
WHERE property_id = ? AND scenario IN (?, 'all')
ORDER BY (scenario = ?) DESC, recorded_at DESC, rowid DESC
LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, propertyID, string(scenario), string(scenario))
	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query assessment: %w", err)
	}
	return a, nil
}

// FetchConditionAssessmentHistory returns up to limit assessments, newest
// first. The "all" scenario returns every assessment for the property.
func (s *Store) FetchConditionAssessmentHistory(ctx context.Context, propertyID string, scenario models.Scenario, limit int) ([]models.ConditionAssessment, error) {
	if limit <= 0 {
		limit = 10
	}

	var (
		rows *sql.Rows
		err  error
	)
	if scenario.IsAll() {
		rows, err = s.db.QueryContext(ctx, `SELECT `+assessmentColumns+`
FROM condition_assessments
WHERE property_id = ?
ORDER BY recorded_at DESC, rowid DESC
LIMIT ?`, propertyID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+assessmentColumns+`
FROM condition_assessments
WHERE property_id = ? AND scenario = ?
ORDER BY recorded_at DESC, rowid DESC
LIMIT ?`, propertyID, string(scenario), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	return collectAssessments(rows)
}

// FetchScenarioAssessments returns the most recent assessment of every
// concrete scenario, newest first. General ("all") assessments are excluded.
func (s *Store) FetchScenarioAssessments(ctx context.Context, propertyID string) ([]models.ConditionAssessment, error) {
	query := `SELECT ` + assessmentColumns + `
FROM condition_assessments a
WHERE property_id = ? AND scenario != 'all'
  AND rowid = (
    SELECT b.rowid FROM condition_assessments b
    WHERE b.property_id = a.property_id AND b.scenario = a.scenario
    ORDER BY b.recorded_at DESC, b.rowid DESC
    LIMIT 1
  )
ORDER BY recorded_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("query scenario assessments: %w", err)
	}
	defer rows.Close()

	return collectAssessments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*models.ConditionAssessment, error) {
	var (
		a                      models.ConditionAssessment
		scenario, rating, risk sql.NullString
		summary, scenarioCtx   sql.NullString
		systems, actions       sql.NullString
		recordedAt             time.Time
	)
	if err := row.Scan(&a.ID, &a.PropertyID, &scenario, &rating, &a.OverallScore, &risk,
		&summary, &scenarioCtx, &systems, &actions, &recordedAt); err != nil {
		return nil, err
	}

	a.Scenario = models.Scenario(scenario.String)
	a.OverallRating = models.Rating(rating.String)
	a.RiskLevel = models.RiskLevel(risk.String)
	a.Summary = summary.String
	a.ScenarioContext = scenarioCtx.String
	a.Systems = []models.SystemAssessment{}
	a.RecommendedActions = []string{}

	if systems.Valid && systems.String != "" {
		if err := json.Unmarshal([]byte(systems.String), &a.Systems); err != nil {
			return nil, fmt.Errorf("unmarshal systems for %s: %w", a.ID, err)
		}
	}
	if actions.Valid && actions.String != "" {
		if err := json.Unmarshal([]byte(actions.String), &a.RecommendedActions); err != nil {
			return nil, fmt.Errorf("unmarshal recommended actions for %s: %w", a.ID, err)
		}
	}

	recordedAt = recordedAt.UTC()
	a.RecordedAt = &recordedAt
	return &a, nil
}

func collectAssessments(rows *sql.Rows) ([]models.ConditionAssessment, error) {
	out := []models.ConditionAssessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}
