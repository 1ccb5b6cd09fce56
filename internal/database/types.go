// Package database defines the storage records and repository interfaces
// for the face authentication core. Backends live in subpackages
// (postgres, memory) and are selected at startup.
package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EnrollmentRecord is the durable record mapping an identity to its
// current face signature. At most one record exists per identity.
type EnrollmentRecord struct {
	IdentityID string
	Signature  []float64
	Enabled    bool
	EnrolledAt time.Time
	LastUsedAt *time.Time // nil until the first successful match
}

// Candidate is the slice of an enrollment record the matcher scans.
type Candidate struct {
	IdentityID string
	Signature  []float64
}

// AuditAction classifies an audit record.
type AuditAction string

const (
	ActionEnrollment   AuditAction = "enrollment"
	ActionUpdate       AuditAction = "update"
	ActionVerification AuditAction = "verification"
	ActionToggle       AuditAction = "toggle"
	ActionDeletion     AuditAction = "deletion"
)

// AuditRecord is one immutable entry in the verification attempt log.
// IdentityID may carry the best (rejected) candidate of a failed
// verification, so it is recorded even when Success is false.
type AuditRecord struct {
	ID          uuid.UUID
	IdentityID  *string
	Action      AuditAction
	Confidence  *float64 // present only when a distance was computed
	Success     bool
	Origin      string // caller address, for forensics
	Client      string // caller client string (user agent)
	ErrorDetail *string
	OccurredAt  time.Time
}

// EnrollmentReader provides read access to the enrolled population.
type EnrollmentReader interface {
	// Get returns the record for an identity, or nil when absent.
	Get(ctx context.Context, identityID string) (*EnrollmentRecord, error)
	// ListEnabledCandidates returns a snapshot of all enabled records
	// in the store's natural order (enrollment time, then identity).
	// The order is stable within a single snapshot.
	ListEnabledCandidates(ctx context.Context) ([]Candidate, error)
	// Dimension returns the signature dimension established by the
	// population, or 0 when nothing is enrolled yet.
	Dimension(ctx context.Context) (int, error)
	// Count returns the number of enrolled identities.
	Count(ctx context.Context) (int, error)
}

// EnrollmentWriter mutates enrollment records. Implementations must
// replace records atomically: a concurrent reader sees either the old
// or the new record, never a partial write.
type EnrollmentWriter interface {
	// Upsert creates the record or replaces an existing one wholesale.
	// Returns true when a new record was created.
	Upsert(ctx context.Context, rec EnrollmentRecord) (created bool, err error)
	// SetEnabled flips the enabled flag. Returns false when no record
	// exists for the identity.
	SetEnabled(ctx context.Context, identityID string, enabled bool) (found bool, err error)
	// Delete permanently removes the record. Returns false when no
	// record exists for the identity.
	Delete(ctx context.Context, identityID string) (found bool, err error)
	// TouchLastUsed updates the last successful match timestamp.
	TouchLastUsed(ctx context.Context, identityID string, usedAt time.Time) error
}

// EnrollmentRepository combines read and write access to enrollments.
type EnrollmentRepository interface {
	EnrollmentReader
	EnrollmentWriter
}

// AuditWriter appends to the attempt log. The log is append-only;
// records are never updated or deleted.
type AuditWriter interface {
	Append(ctx context.Context, rec AuditRecord) error
}

// AuditReader supports operational review of the attempt log.
type AuditReader interface {
	// ListByIdentity returns the most recent records for an identity,
	// newest first.
	ListByIdentity(ctx context.Context, identityID string, limit int) ([]AuditRecord, error)
	// ListRecent returns the most recent records across all identities,
	// newest first.
	ListRecent(ctx context.Context, limit int) ([]AuditRecord, error)
}

// AuditRepository combines both sides of the attempt log.
type AuditRepository interface {
	AuditWriter
	AuditReader
}
