package faceauth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hrsuite/faceauth/internal/database"
)

// auditTimeout bounds an audit append issued after the caller's own
// context is detached.
const auditTimeout = 5 * time.Second

// Recorder appends verification attempt records. Appends are
// best-effort: a failed write must never abort the enrollment or
// verification that triggered it, so failures go to the log and a
// metric instead of the caller.
type Recorder struct {
	repo   database.AuditRepository
	logger *zap.Logger
}

// NewRecorder creates a Recorder over the given audit repository.
func NewRecorder(repo database.AuditRepository, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record appends one attempt record, filling in the ID and timestamp.
// The append runs on a context detached from the caller's cancellation
// so an abandoned request cannot leave a half-logged attempt behind.
func (r *Recorder) Record(ctx context.Context, rec database.AuditRecord) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := r.repo.Append(appendCtx, rec); err != nil {
		auditAppendFailures.Inc()
		r.logger.Error("failed to persist audit record",
			zap.String("action", string(rec.Action)),
			zap.Bool("success", rec.Success),
			zap.Error(err),
		)
	}
}

// Query returns the most recent attempts, newest first. An empty
// identity returns the global log.
func (r *Recorder) Query(ctx context.Context, identityID string, limit int) ([]database.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if identityID == "" {
		return r.repo.ListRecent(ctx, limit)
	}
	return r.repo.ListByIdentity(ctx, identityID, limit)
}
