package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/hrsuite/faceauth/internal/database"
)

// EnrollmentRepository provides PostgreSQL-backed enrollment storage.
type EnrollmentRepository struct {
	pool *Pool
}

// NewEnrollmentRepository creates a new PostgreSQL enrollment repository.
func NewEnrollmentRepository(pool *Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// toVector converts a signature to the pgvector wire type. pgvector
// stores float32, so the stored signature loses float64 precision.
func toVector(signature []float64) pgvector.Vector {
	v := make([]float32, len(signature))
	for i, f := range signature {
		v[i] = float32(f)
	}
	return pgvector.NewVector(v)
}

func fromVector(v pgvector.Vector) []float64 {
	s := v.Slice()
	out := make([]float64, len(s))
	for i, f := range s {
		out[i] = float64(f)
	}
	return out
}

// Get retrieves the record for an identity, or nil when absent.
func (r *EnrollmentRepository) Get(ctx context.Context, identityID string) (*database.EnrollmentRecord, error) {
	query := `
		SELECT identity_id, signature, enabled, enrolled_at, last_used_at
		FROM enrollments
		WHERE identity_id = $1
	`

	var rec database.EnrollmentRecord
	var vec pgvector.Vector
	var lastUsed sql.NullTime
	err := r.pool.QueryRow(ctx, query, identityID).Scan(
		&rec.IdentityID, &vec, &rec.Enabled, &rec.EnrolledAt, &lastUsed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	rec.Signature = fromVector(vec)
	if lastUsed.Valid {
		rec.LastUsedAt = &lastUsed.Time
	}
	return &rec, nil
}

// ListEnabledCandidates returns all enabled records, oldest enrollment
// first. The ordering is total (enrolled_at, then identity_id) so the
// matcher's tie-break is reproducible across scans.
func (r *EnrollmentRepository) ListEnabledCandidates(ctx context.Context) ([]database.Candidate, error) {
	query := `
		SELECT identity_id, signature
		FROM enrollments
		WHERE enabled
		ORDER BY enrolled_at, identity_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []database.Candidate
	for rows.Next() {
		var c database.Candidate
		var vec pgvector.Vector
		if err := rows.Scan(&c.IdentityID, &vec); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.Signature = fromVector(vec)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

// Dimension returns the stored signature dimension, or 0 when the
// population is empty.
func (r *EnrollmentRepository) Dimension(ctx context.Context) (int, error) {
	var dim int
	err := r.pool.QueryRow(ctx, "SELECT dim FROM enrollments LIMIT 1").Scan(&dim)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get dimension: %w", err)
	}
	return dim, nil
}

// Count returns the number of enrolled identities.
func (r *EnrollmentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM enrollments").Scan(&count); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// Upsert creates or replaces the record for rec.IdentityID. The single
// INSERT ... ON CONFLICT statement gives the whole-record atomic
// replace the matcher relies on.
func (r *EnrollmentRepository) Upsert(ctx context.Context, rec database.EnrollmentRecord) (bool, error) {
	query := `
		INSERT INTO enrollments (identity_id, signature, dim, enabled, enrolled_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, NULL)
		ON CONFLICT (identity_id) DO UPDATE SET
			signature = EXCLUDED.signature,
			dim = EXCLUDED.dim,
			enabled = EXCLUDED.enabled,
			enrolled_at = EXCLUDED.enrolled_at
		RETURNING (xmax = 0)
	`

	var created bool
	err := r.pool.QueryRow(ctx, query,
		rec.IdentityID, toVector(rec.Signature), len(rec.Signature), rec.Enabled, rec.EnrolledAt,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert enrollment: %w", err)
	}
	return created, nil
}

// SetEnabled flips the enabled flag. Returns false when no record exists.
func (r *EnrollmentRepository) SetEnabled(ctx context.Context, identityID string, enabled bool) (bool, error) {
	result, err := r.pool.Exec(ctx,
		"UPDATE enrollments SET enabled = $2 WHERE identity_id = $1", identityID, enabled)
	if err != nil {
		return false, fmt.Errorf("set enabled: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set enabled rows affected: %w", err)
	}
	return n > 0, nil
}

// Delete permanently removes the record. Returns false when no record exists.
func (r *EnrollmentRepository) Delete(ctx context.Context, identityID string) (bool, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM enrollments WHERE identity_id = $1", identityID)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rows affected: %w", err)
	}
	return n > 0, nil
}

// TouchLastUsed records the timestamp of a successful match. A missing
// record is not an error: deletion may race a successful verify.
func (r *EnrollmentRepository) TouchLastUsed(ctx context.Context, identityID string, usedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE enrollments SET last_used_at = $2 WHERE identity_id = $1", identityID, usedAt)
	if err != nil {
		return fmt.Errorf("touch last used: %w", err)
	}
	return nil
}
