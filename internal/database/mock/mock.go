// Package mock provides error-injecting wrappers around the in-memory
// repositories for testing failure paths.
package mock

import (
	"context"
	"time"

	"github.com/hrsuite/faceauth/internal/database"
	"github.com/hrsuite/faceauth/internal/database/memory"
)

// EnrollmentStore wraps the in-memory enrollment store and fails with
// the injected error when one is set.
type EnrollmentStore struct {
	*memory.EnrollmentStore

	GetError    error
	ListError   error
	UpsertError error
	ToggleError error
	DeleteError error
	TouchError  error
}

// NewEnrollmentStore creates an empty mock enrollment store.
func NewEnrollmentStore() *EnrollmentStore {
	return &EnrollmentStore{EnrollmentStore: memory.NewEnrollmentStore()}
}

func (m *EnrollmentStore) Get(ctx context.Context, identityID string) (*database.EnrollmentRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.EnrollmentStore.Get(ctx, identityID)
}

func (m *EnrollmentStore) ListEnabledCandidates(ctx context.Context) ([]database.Candidate, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.EnrollmentStore.ListEnabledCandidates(ctx)
}

func (m *EnrollmentStore) Upsert(ctx context.Context, rec database.EnrollmentRecord) (bool, error) {
	if m.UpsertError != nil {
		return false, m.UpsertError
	}
	return m.EnrollmentStore.Upsert(ctx, rec)
}

func (m *EnrollmentStore) SetEnabled(ctx context.Context, identityID string, enabled bool) (bool, error) {
	if m.ToggleError != nil {
		return false, m.ToggleError
	}
	return m.EnrollmentStore.SetEnabled(ctx, identityID, enabled)
}

func (m *EnrollmentStore) Delete(ctx context.Context, identityID string) (bool, error) {
	if m.DeleteError != nil {
		return false, m.DeleteError
	}
	return m.EnrollmentStore.Delete(ctx, identityID)
}

func (m *EnrollmentStore) TouchLastUsed(ctx context.Context, identityID string, usedAt time.Time) error {
	if m.TouchError != nil {
		return m.TouchError
	}
	return m.EnrollmentStore.TouchLastUsed(ctx, identityID, usedAt)
}

// AuditLog wraps the in-memory audit log and fails with the injected
// error when one is set.
type AuditLog struct {
	*memory.AuditLog

	AppendError error
	ListError   error
}

// NewAuditLog creates an empty mock audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{AuditLog: memory.NewAuditLog()}
}

func (m *AuditLog) Append(ctx context.Context, rec database.AuditRecord) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	return m.AuditLog.Append(ctx, rec)
}

func (m *AuditLog) ListByIdentity(ctx context.Context, identityID string, limit int) ([]database.AuditRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.AuditLog.ListByIdentity(ctx, identityID, limit)
}

func (m *AuditLog) ListRecent(ctx context.Context, limit int) ([]database.AuditRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.AuditLog.ListRecent(ctx, limit)
}
