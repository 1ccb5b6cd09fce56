package faceauth

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/hrsuite/faceauth/internal/database"
	"github.com/hrsuite/faceauth/internal/database/memory"
	"github.com/hrsuite/faceauth/internal/directory"
)

const testThreshold = 0.6

var testMeta = RequestMeta{Origin: "127.0.0.1:4242", Client: "test"}

// testCore bundles a wired core over in-memory backends.
type testCore struct {
	store    *memory.EnrollmentStore
	audit    *memory.AuditLog
	enroller *Enroller
	matcher  *Matcher
}

// newTestCore wires the core over in-memory backends. A nil directory
// disables the known-subject check.
func newTestCore(t *testing.T, dir directory.Directory) *testCore {
	t.Helper()
	store := memory.NewEnrollmentStore()
	audit := memory.NewAuditLog()
	logger := zap.NewNop()
	recorder := NewRecorder(audit, logger)
	return &testCore{
		store:    store,
		audit:    audit,
		enroller: NewEnroller(store, recorder, dir, logger),
		matcher:  NewMatcher(store, recorder, testThreshold, logger),
	}
}

// mustEnroll enrolls an identity or fails the test.
func (tc *testCore) mustEnroll(t *testing.T, identityID string, signature []float64) {
	t.Helper()
	if _, err := tc.enroller.Enroll(context.Background(), testMeta, identityID, signature); err != nil {
		t.Fatalf("enroll %s: %v", identityID, err)
	}
}

// lastAudit returns the newest audit record or fails the test.
func (tc *testCore) lastAudit(t *testing.T) database.AuditRecord {
	t.Helper()
	records, err := tc.audit.ListRecent(context.Background(), 1)
	if err != nil {
		t.Fatalf("listing audit records: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("audit log is empty")
	}
	return records[0]
}

// assertAuditGrew asserts the audit log length and returns the newest record.
func (tc *testCore) assertAuditGrew(t *testing.T, before int) database.AuditRecord {
	t.Helper()
	if got := tc.audit.Len(); got != before+1 {
		t.Fatalf("audit log has %d records, want %d", got, before+1)
	}
	return tc.lastAudit(t)
}
