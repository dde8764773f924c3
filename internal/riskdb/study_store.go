package riskdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oceanic-safety/cdp.report/internal/risk"
	"github.com/oceanic-safety/cdp.report/internal/sweep"
	"github.com/oceanic-safety/cdp.report/internal/timeutil"
)

// StudyRecord represents one persisted sweep study: the fixed scenario,
// the swept field, and when the study was run. Points are stored
// separately.
type StudyRecord struct {
	StudyID    string          `json:"study_id"`
	SweptField string          `json:"swept_field"`
	Scenario   json.RawMessage `json:"scenario"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// StudyStore provides persistence for sweep studies and their points.
type StudyStore struct {
	db    *DB
	clock timeutil.Clock
}

// NewStudyStore creates a StudyStore on the given database.
func NewStudyStore(db *DB) *StudyStore {
	return &StudyStore{db: db, clock: timeutil.RealClock{}}
}

// InsertStudy persists a study and its points in one transaction and
// returns the generated study ID.
func (s *StudyStore) InsertStudy(scenario risk.Scenario, field risk.Field, points []sweep.Point, notes string) (string, error) {
	studyID := uuid.New().String()

	scenarioJSON, err := json.Marshal(scenario)
	if err != nil {
		return "", fmt.Errorf("marshalling scenario: %w", err)
	}

	err = retryOnBusy(s.clock, func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(
			`INSERT INTO studies (study_id, swept_field, scenario_json, notes, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			studyID, field.String(), string(scenarioJSON), nullStr(notes),
			s.clock.Now().UTC().Format(time.RFC3339),
		)
		if err != nil {
			return err
		}

		for i, p := range points {
			if _, err := tx.Exec(
				`INSERT INTO study_points (study_id, idx, value, probability) VALUES (?, ?, ?, ?)`,
				studyID, i, p.Value, p.Probability,
			); err != nil {
				return err
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return "", fmt.Errorf("inserting study %s: %w", studyID, err)
	}
	return studyID, nil
}

// GetStudy returns a study record by ID.
func (s *StudyStore) GetStudy(studyID string) (*StudyRecord, error) {
	row := s.db.QueryRow(
		`SELECT study_id, swept_field, scenario_json, notes, created_at FROM studies WHERE study_id = ?`,
		studyID,
	)

	var rec StudyRecord
	var scenarioStr string
	var notes sql.NullString
	var createdAt string
	if err := row.Scan(&rec.StudyID, &rec.SweptField, &scenarioStr, &notes, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("study %s not found", studyID)
		}
		return nil, fmt.Errorf("loading study %s: %w", studyID, err)
	}

	rec.Scenario = json.RawMessage(scenarioStr)
	if notes.Valid {
		rec.Notes = notes.String
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

// GetPoints returns a study's probability series in sweep order.
func (s *StudyStore) GetPoints(studyID string) ([]sweep.Point, error) {
	rows, err := s.db.Query(
		`SELECT value, probability FROM study_points WHERE study_id = ? ORDER BY idx`,
		studyID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading points for study %s: %w", studyID, err)
	}
	defer rows.Close()

	var points []sweep.Point
	for rows.Next() {
		var p sweep.Point
		if err := rows.Scan(&p.Value, &p.Probability); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ListStudies returns all studies, newest first.
func (s *StudyStore) ListStudies() ([]*StudyRecord, error) {
	rows, err := s.db.Query(
		`SELECT study_id, swept_field, scenario_json, notes, created_at FROM studies ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing studies: %w", err)
	}
	defer rows.Close()

	var out []*StudyRecord
	for rows.Next() {
		var rec StudyRecord
		var scenarioStr string
		var notes sql.NullString
		var createdAt string
		if err := rows.Scan(&rec.StudyID, &rec.SweptField, &scenarioStr, &notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning study: %w", err)
		}
		rec.Scenario = json.RawMessage(scenarioStr)
		if notes.Valid {
			rec.Notes = notes.String
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.CreatedAt = t
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// nullStr converts empty strings to NULL for optional columns.
func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
