package database

import (
	"context"
	"fmt"

	"github.com/nao1215/seocheck/internal/model"
)

// IgnoredChecks returns the ignored check ids of key in id order.
func (cdb *CheckDB) IgnoredChecks(ctx context.Context, key model.EntityKey) ([]string, error) {
	query := `
	SELECT check_id FROM ignored_checks
	WHERE entity_type = ? AND entity_id = ?
	ORDER BY check_id
	`

	rows, err := cdb.db.QueryContext(ctx, query, string(key.Type), key.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ignored checks: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ignored check: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IgnoreCheck adds checkID to the ignore list of key and returns the
// stored list. Ignoring an already ignored check is a no-op.
func (cdb *CheckDB) IgnoreCheck(ctx context.Context, key model.EntityKey, checkID string) ([]string, error) {
	if checkID == "" {
		return nil, model.ErrEmptyCheckID
	}

	query := `
	INSERT OR IGNORE INTO ignored_checks (entity_type, entity_id, check_id, created_at)
	VALUES (?, ?, ?, ?)
	`
	if _, err := cdb.db.ExecContext(ctx, query, string(key.Type), key.ID, checkID, cdb.timestamp()); err != nil {
		return nil, fmt.Errorf("failed to ignore check: %w", err)
	}
	return cdb.IgnoredChecks(ctx, key)
}

// RestoreCheck removes checkID from the ignore list of key and returns
// the stored list.
func (cdb *CheckDB) RestoreCheck(ctx context.Context, key model.EntityKey, checkID string) ([]string, error) {
	query := `
	DELETE FROM ignored_checks
	WHERE entity_type = ? AND entity_id = ? AND check_id = ?
	`
	if _, err := cdb.db.ExecContext(ctx, query, string(key.Type), key.ID, checkID); err != nil {
		return nil, fmt.Errorf("failed to restore check: %w", err)
	}
	return cdb.IgnoredChecks(ctx, key)
}
