package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/seocheck/internal/model"
)

// EvaluationRecord is one stored evaluation.
type EvaluationRecord struct {
	ID      int64
	Entity  model.EntityKey
	URL     string
	Keyword string
	Summary model.Summary
	// Report is the full evaluation as JSON.
	Report    json.RawMessage
	Timestamp time.Time
}

// SaveEvaluation stores rec and returns its id. rec.ID and rec.Timestamp
// are ignored.
func (cdb *CheckDB) SaveEvaluation(ctx context.Context, rec *EvaluationRecord) (int64, error) {
	summaryJSON, err := json.Marshal(rec.Summary)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize summary: %w", err)
	}
	report := rec.Report
	if len(report) == 0 {
		report = json.RawMessage("{}")
	}

	query := `
	INSERT INTO evaluations (entity_type, entity_id, url, keyword, status, summary_json, report_json, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := cdb.db.ExecContext(ctx, query,
		string(rec.Entity.Type),
		rec.Entity.ID,
		rec.URL,
		rec.Keyword,
		string(rec.Summary.StatusOrEmpty()),
		string(summaryJSON),
		string(report),
		cdb.timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save evaluation: %w", err)
	}
	return result.LastInsertId()
}

// ListHistory returns up to limit evaluations of key, newest first.
// A limit of zero or less returns all of them.
func (cdb *CheckDB) ListHistory(ctx context.Context, key model.EntityKey, limit int) ([]EvaluationRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
	SELECT id, entity_type, entity_id, url, keyword, summary_json, report_json, timestamp
	FROM evaluations
	WHERE entity_type = ? AND entity_id = ?
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, string(key.Type), key.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var results []EvaluationRecord
	for rows.Next() {
		rec, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// GetEvaluation returns the evaluation with the given id.
func (cdb *CheckDB) GetEvaluation(ctx context.Context, id int64) (*EvaluationRecord, error) {
	query := `
	SELECT id, entity_type, entity_id, url, keyword, summary_json, report_json, timestamp
	FROM evaluations WHERE id = ?
	`
	rec, err := scanEvaluation(cdb.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("evaluation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (EvaluationRecord, error) {
	var (
		rec         EvaluationRecord
		entityType  string
		url         sql.NullString
		keyword     sql.NullString
		summaryJSON string
		reportJSON  string
		timestamp   string
	)
	if err := row.Scan(&rec.ID, &entityType, &rec.Entity.ID, &url, &keyword, &summaryJSON, &reportJSON, &timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan evaluation: %w", err)
	}
	rec.Entity.Type = model.EntityType(entityType)
	rec.URL = url.String
	rec.Keyword = keyword.String
	rec.Report = json.RawMessage(reportJSON)
	rec.Timestamp = parseTimestamp(timestamp)
	if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
		return rec, fmt.Errorf("failed to parse summary of evaluation %d: %w", rec.ID, err)
	}
	return rec, nil
}
