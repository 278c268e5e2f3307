package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/nao1215/seocheck/internal/model"
)

// SaveLinkRecords upserts the settled records of recs. Pending records are
// skipped.
func (cdb *CheckDB) SaveLinkRecords(ctx context.Context, recs []model.LinkRecord) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO link_checks (url, status, http_status, details, checked_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		status = excluded.status,
		http_status = excluded.http_status,
		details = excluded.details,
		checked_at = excluded.checked_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if !rec.Settled() {
			continue
		}
		checkedAt := rec.CheckedAt
		if checkedAt.IsZero() {
			checkedAt = cdb.now()
		}
		if _, err := stmt.ExecContext(ctx,
			rec.URL,
			string(rec.Status),
			formatHTTPStatus(rec.HTTPStatus),
			rec.Details,
			checkedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to save link record %s: %w", rec.URL, err)
		}
	}
	return tx.Commit()
}

// LinkRecords returns stored records checked within maxAge. A maxAge of
// zero or less returns every record.
func (cdb *CheckDB) LinkRecords(ctx context.Context, maxAge time.Duration) ([]model.LinkRecord, error) {
	query := `SELECT url, status, http_status, details, checked_at FROM link_checks ORDER BY url`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query link records: %w", err)
	}
	defer rows.Close()

	cutoff := time.Time{}
	if maxAge > 0 {
		cutoff = cdb.now().Add(-maxAge)
	}

	var recs []model.LinkRecord
	for rows.Next() {
		var (
			rec        model.LinkRecord
			status     string
			httpStatus sql.NullString
			details    sql.NullString
			checkedAt  string
		)
		if err := rows.Scan(&rec.URL, &status, &httpStatus, &details, &checkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan link record: %w", err)
		}
		rec.Status = model.LinkStatus(status)
		rec.HTTPStatus = parseHTTPStatus(httpStatus)
		rec.Details = details.String
		rec.CheckedAt = parseTimestamp(checkedAt)
		if rec.CheckedAt.Before(cutoff) {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// formatHTTPStatus stores numeric codes as decimal text and anything else
// verbatim.
func formatHTTPStatus(v any) sql.NullString {
	switch s := v.(type) {
	case nil:
		return sql.NullString{}
	case int:
		return sql.NullString{String: strconv.Itoa(s), Valid: true}
	case string:
		return sql.NullString{String: s, Valid: true}
	default:
		return sql.NullString{String: fmt.Sprint(s), Valid: true}
	}
}

func parseHTTPStatus(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	if code, err := strconv.Atoi(s.String); err == nil {
		return code
	}
	return s.String
}
