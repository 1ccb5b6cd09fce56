package faceauth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hrsuite/faceauth/internal/database"
	"github.com/hrsuite/faceauth/internal/directory"
)

// Enroller owns the enrollment lifecycle: create/replace, toggle,
// removal, and status. It is safe for concurrent use; per-record
// atomicity comes from the repository.
type Enroller struct {
	store  database.EnrollmentRepository
	audit  *Recorder
	dir    directory.Directory // nil skips the known-subject check
	logger *zap.Logger
}

// NewEnroller creates an Enroller. A nil directory disables the
// known-subject check (logged once at construction).
func NewEnroller(store database.EnrollmentRepository, audit *Recorder, dir directory.Directory, logger *zap.Logger) *Enroller {
	if dir == nil {
		logger.Warn("no identity directory configured, enrollment will not validate subjects")
	}
	return &Enroller{store: store, audit: audit, dir: dir, logger: logger}
}

// Enroll creates or replaces the signature for an identity. A repeat
// enrollment replaces the signature, resets the enrollment time, and
// re-activates the record. Safe to retry.
func (e *Enroller) Enroll(ctx context.Context, meta RequestMeta, identityID string, signature []float64) (*database.EnrollmentRecord, error) {
	if identityID == "" {
		return nil, fmt.Errorf("%w: empty identity", ErrUnknownIdentity)
	}
	if len(signature) == 0 {
		return nil, fmt.Errorf("%w: empty signature", ErrInvalidSignature)
	}

	if e.dir != nil {
		known, err := e.dir.Exists(ctx, identityID)
		if err != nil {
			return nil, fmt.Errorf("directory lookup for %q: %w", identityID, err)
		}
		if !known {
			return nil, fmt.Errorf("%w: %q", ErrUnknownIdentity, identityID)
		}
	}

	// The first enrollment establishes the population dimension; every
	// later one must match it.
	dim, err := e.store.Dimension(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading population dimension: %w", err)
	}
	if dim > 0 && len(signature) != dim {
		return nil, fmt.Errorf("%w: got dimension %d, population uses %d", ErrInvalidSignature, len(signature), dim)
	}

	rec := database.EnrollmentRecord{
		IdentityID: identityID,
		Signature:  append([]float64(nil), signature...),
		Enabled:    true,
		EnrolledAt: time.Now().UTC(),
	}

	created, err := e.store.Upsert(ctx, rec)
	if err != nil {
		e.audit.Record(ctx, database.AuditRecord{
			IdentityID:  &identityID,
			Action:      database.ActionEnrollment,
			Success:     false,
			Origin:      meta.Origin,
			Client:      meta.Client,
			ErrorDetail: errDetail(err),
		})
		return nil, fmt.Errorf("persisting enrollment for %q: %w", identityID, err)
	}

	action := database.ActionUpdate
	if created {
		action = database.ActionEnrollment
	}
	e.audit.Record(ctx, database.AuditRecord{
		IdentityID: &identityID,
		Action:     action,
		Success:    true,
		Origin:     meta.Origin,
		Client:     meta.Client,
	})
	e.logger.Info("identity enrolled",
		zap.String("identity_id", identityID),
		zap.Bool("created", created),
		zap.Int("dimension", len(signature)),
	)
	return &rec, nil
}

// SetEnabled suspends or re-activates an enrollment without forgetting
// the signature. Safe to retry.
func (e *Enroller) SetEnabled(ctx context.Context, meta RequestMeta, identityID string, enabled bool) (*database.EnrollmentRecord, error) {
	found, err := e.store.SetEnabled(ctx, identityID, enabled)
	if err != nil {
		return nil, fmt.Errorf("toggling %q: %w", identityID, err)
	}

	rec := database.AuditRecord{
		IdentityID: &identityID,
		Action:     database.ActionToggle,
		Success:    found,
		Origin:     meta.Origin,
		Client:     meta.Client,
	}
	if !found {
		rec.ErrorDetail = strPtr("not enrolled")
		e.audit.Record(ctx, rec)
		return nil, fmt.Errorf("%w: %q", ErrNotEnrolled, identityID)
	}
	e.audit.Record(ctx, rec)

	updated, err := e.store.Get(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("reading %q after toggle: %w", identityID, err)
	}
	return updated, nil
}

// Remove permanently forgets an identity's enrollment. Deliberately not
// idempotent: a second call fails with ErrNotEnrolled, so callers can
// detect double deletion.
func (e *Enroller) Remove(ctx context.Context, meta RequestMeta, identityID string) error {
	found, err := e.store.Delete(ctx, identityID)
	if err != nil {
		return fmt.Errorf("removing %q: %w", identityID, err)
	}

	rec := database.AuditRecord{
		IdentityID: &identityID,
		Action:     database.ActionDeletion,
		Success:    found,
		Origin:     meta.Origin,
		Client:     meta.Client,
	}
	if !found {
		rec.ErrorDetail = strPtr("not enrolled")
		e.audit.Record(ctx, rec)
		return fmt.Errorf("%w: %q", ErrNotEnrolled, identityID)
	}
	e.audit.Record(ctx, rec)
	e.logger.Info("enrollment removed", zap.String("identity_id", identityID))
	return nil
}

// Status returns the enrollment snapshot for an identity. Never fails
// on absence; a missing record yields Enrolled=false.
func (e *Enroller) Status(ctx context.Context, identityID string) (Status, error) {
	rec, err := e.store.Get(ctx, identityID)
	if err != nil {
		return Status{}, fmt.Errorf("reading status of %q: %w", identityID, err)
	}
	if rec == nil {
		return Status{}, nil
	}
	enrolledAt := rec.EnrolledAt
	return Status{
		Enrolled:   true,
		Enabled:    rec.Enabled,
		EnrolledAt: &enrolledAt,
		LastUsedAt: rec.LastUsedAt,
	}, nil
}

// Population reports the enrolled count and established signature
// dimension, for operational review.
func (e *Enroller) Population(ctx context.Context) (count, dimension int, err error) {
	count, err = e.store.Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("counting enrollments: %w", err)
	}
	dimension, err = e.store.Dimension(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reading population dimension: %w", err)
	}
	return count, dimension, nil
}

func strPtr(s string) *string { return &s }

func errDetail(err error) *string {
	s := err.Error()
	return &s
}
