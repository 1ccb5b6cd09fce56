// Package memory provides in-memory implementations of the enrollment
// and audit repositories. Used as the storage backend when no database
// is configured, and by tests. Not durable.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hrsuite/faceauth/internal/database"
)

// EnrollmentStore is an in-memory database.EnrollmentRepository.
// Records are replaced wholesale under the lock, so readers never
// observe a record mid-update.
type EnrollmentStore struct {
	mu      sync.RWMutex
	records map[string]*database.EnrollmentRecord
	order   []string // identity IDs in enrollment order
}

// NewEnrollmentStore creates an empty in-memory enrollment store.
func NewEnrollmentStore() *EnrollmentStore {
	return &EnrollmentStore{
		records: make(map[string]*database.EnrollmentRecord),
	}
}

func cloneRecord(rec *database.EnrollmentRecord) *database.EnrollmentRecord {
	c := *rec
	c.Signature = append([]float64(nil), rec.Signature...)
	if rec.LastUsedAt != nil {
		t := *rec.LastUsedAt
		c.LastUsedAt = &t
	}
	return &c
}

// Get returns a copy of the record for an identity, or nil when absent.
func (s *EnrollmentStore) Get(ctx context.Context, identityID string) (*database.EnrollmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[identityID]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// ListEnabledCandidates returns enabled records in enrollment order.
func (s *EnrollmentStore) ListEnabledCandidates(ctx context.Context) ([]database.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidates := make([]database.Candidate, 0, len(s.order))
	for _, id := range s.order {
		rec := s.records[id]
		if rec == nil || !rec.Enabled {
			continue
		}
		candidates = append(candidates, database.Candidate{
			IdentityID: rec.IdentityID,
			Signature:  append([]float64(nil), rec.Signature...),
		})
	}
	return candidates, nil
}

// Dimension returns the signature length of the oldest record, or 0
// when the store is empty.
func (s *EnrollmentStore) Dimension(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return 0, nil
	}
	return len(s.records[s.order[0]].Signature), nil
}

// Count returns the number of enrolled identities.
func (s *EnrollmentStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Upsert creates or replaces the record for rec.IdentityID.
func (s *EnrollmentStore) Upsert(ctx context.Context, rec database.EnrollmentRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.records[rec.IdentityID]
	s.records[rec.IdentityID] = cloneRecord(&rec)
	if !exists {
		s.order = append(s.order, rec.IdentityID)
	}
	return !exists, nil
}

// SetEnabled flips the enabled flag for an identity.
func (s *EnrollmentStore) SetEnabled(ctx context.Context, identityID string, enabled bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[identityID]
	if !ok {
		return false, nil
	}
	updated := cloneRecord(rec)
	updated.Enabled = enabled
	s.records[identityID] = updated
	return true, nil
}

// Delete removes the record for an identity.
func (s *EnrollmentStore) Delete(ctx context.Context, identityID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[identityID]; !ok {
		return false, nil
	}
	delete(s.records, identityID)
	for i, id := range s.order {
		if id == identityID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// TouchLastUsed records the timestamp of a successful match. Touching
// a removed identity is a no-op: the record was deleted between the
// match and the touch, which is a legal race.
func (s *EnrollmentStore) TouchLastUsed(ctx context.Context, identityID string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[identityID]
	if !ok {
		return nil
	}
	updated := cloneRecord(rec)
	updated.LastUsedAt = &usedAt
	s.records[identityID] = updated
	return nil
}

// AuditLog is an in-memory database.AuditRepository.
type AuditLog struct {
	mu      sync.RWMutex
	records []database.AuditRecord
}

// NewAuditLog creates an empty in-memory audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// Append adds a record to the log.
func (l *AuditLog) Append(ctx context.Context, rec database.AuditRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

// ListByIdentity returns the most recent records for an identity, newest first.
func (l *AuditLog) ListByIdentity(ctx context.Context, identityID string, limit int) ([]database.AuditRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []database.AuditRecord
	for i := len(l.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := l.records[i]
		if rec.IdentityID != nil && *rec.IdentityID == identityID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ListRecent returns the most recent records, newest first.
func (l *AuditLog) ListRecent(ctx context.Context, limit int) ([]database.AuditRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []database.AuditRecord
	for i := len(l.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.records[i])
	}
	return out, nil
}

// Len returns the total number of records in the log.
func (l *AuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
