package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hrsuite/faceauth/internal/database"
)

// AuditRepository provides PostgreSQL-backed storage for the
// append-only verification attempt log.
type AuditRepository struct {
	pool *Pool
}

// NewAuditRepository creates a new PostgreSQL audit repository.
func NewAuditRepository(pool *Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append inserts one attempt record. There is no update or delete path.
func (r *AuditRepository) Append(ctx context.Context, rec database.AuditRecord) error {
	query := `
		INSERT INTO verification_attempts
			(id, identity_id, action, confidence, success, origin, client, error_detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.IdentityID, string(rec.Action), rec.Confidence,
		rec.Success, rec.Origin, rec.Client, rec.ErrorDetail, rec.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

const attemptColumns = `id, identity_id, action, confidence, success, origin, client, error_detail, occurred_at`

func scanAttempts(rows *sql.Rows) ([]database.AuditRecord, error) {
	var records []database.AuditRecord
	for rows.Next() {
		var rec database.AuditRecord
		var action string
		if err := rows.Scan(
			&rec.ID, &rec.IdentityID, &action, &rec.Confidence,
			&rec.Success, &rec.Origin, &rec.Client, &rec.ErrorDetail, &rec.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		rec.Action = database.AuditAction(action)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return records, nil
}

// ListByIdentity returns the most recent attempts for an identity, newest first.
func (r *AuditRepository) ListByIdentity(ctx context.Context, identityID string, limit int) ([]database.AuditRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM verification_attempts
		WHERE identity_id = $1
		ORDER BY occurred_at DESC, id
		LIMIT $2
	`, attemptColumns)

	rows, err := r.pool.Query(ctx, query, identityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// ListRecent returns the most recent attempts across all identities, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]database.AuditRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM verification_attempts
		ORDER BY occurred_at DESC, id
		LIMIT $1
	`, attemptColumns)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}
