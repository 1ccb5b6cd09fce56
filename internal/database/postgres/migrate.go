package postgres

import (
	"context"
	"fmt"
)

// Migrate creates the schema. The signature column dimension is fixed
// at migration time; pgvector requires a typed vector column, so this
// backend pins the population dimension by deployment.
func (p *Pool) Migrate(ctx context.Context, signatureDim int) error {
	if signatureDim <= 0 {
		return fmt.Errorf("invalid signature dimension: %d", signatureDim)
	}

	_, err := p.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createEnrollments := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS enrollments (
			identity_id  VARCHAR(64) PRIMARY KEY,
			signature    vector(%d) NOT NULL,
			dim          INTEGER NOT NULL DEFAULT %d,
			enabled      BOOLEAN NOT NULL DEFAULT TRUE,
			enrolled_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			last_used_at TIMESTAMP WITH TIME ZONE
		)
	`, signatureDim, signatureDim)

	if _, err := p.db.ExecContext(ctx, createEnrollments); err != nil {
		return fmt.Errorf("failed to create enrollments table: %w", err)
	}

	createAttempts := `
		CREATE TABLE IF NOT EXISTS verification_attempts (
			id           UUID PRIMARY KEY,
			identity_id  VARCHAR(64),
			action       VARCHAR(16) NOT NULL,
			confidence   DOUBLE PRECISION,
			success      BOOLEAN NOT NULL,
			origin       VARCHAR(255) NOT NULL DEFAULT '',
			client       VARCHAR(512) NOT NULL DEFAULT '',
			error_detail TEXT,
			occurred_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`

	if _, err := p.db.ExecContext(ctx, createAttempts); err != nil {
		return fmt.Errorf("failed to create verification_attempts table: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS verification_attempts_identity_idx
		ON verification_attempts (identity_id, occurred_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("failed to create attempts identity index: %w", err)
	}

	return nil
}
