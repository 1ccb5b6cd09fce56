package faceauth

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hrsuite/faceauth/internal/database"
	"github.com/hrsuite/faceauth/internal/database/mock"
)

func TestVerify_InvalidProbe(t *testing.T) {
	tc := newTestCore(t, nil)
	before := tc.audit.Len()

	_, err := tc.matcher.Verify(context.Background(), testMeta, nil)
	if !errors.Is(err, ErrInvalidProbe) {
		t.Fatalf("expected ErrInvalidProbe, got %v", err)
	}

	rec := tc.assertAuditGrew(t, before)
	if rec.Action != database.ActionVerification || rec.Success {
		t.Errorf("invalid probe audited as action=%q success=%v", rec.Action, rec.Success)
	}
	if rec.IdentityID != nil {
		t.Errorf("invalid probe audit record names identity %q, want none", *rec.IdentityID)
	}
	if rec.ErrorDetail == nil || *rec.ErrorDetail != "invalid probe" {
		t.Errorf("error detail = %v, want 'invalid probe'", rec.ErrorDetail)
	}
}

func TestVerify_NoCandidates(t *testing.T) {
	tc := newTestCore(t, nil)
	before := tc.audit.Len()

	_, err := tc.matcher.Verify(context.Background(), testMeta, []float64{1, 2, 3})
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}

	rec := tc.assertAuditGrew(t, before)
	if rec.Success {
		t.Error("no-candidate verification audited as success")
	}
	if rec.ErrorDetail == nil || *rec.ErrorDetail != "no enrolled candidates" {
		t.Errorf("error detail = %v, want 'no enrolled candidates'", rec.ErrorDetail)
	}
}

func TestVerify_AcceptsExactThresholdDistance(t *testing.T) {
	tc := newTestCore(t, nil)
	tc.mustEnroll(t, "emp-1", []float64{0.6, 0, 0})

	// Distance to the probe is exactly the threshold; the comparison is
	// strict, so this must be accepted.
	match, err := tc.matcher.Verify(context.Background(), testMeta, []float64{0, 0, 0})
	if err != nil {
		t.Fatalf("candidate at exact threshold distance rejected: %v", err)
	}
	if match.IdentityID != "emp-1" {
		t.Errorf("matched %q, want emp-1", match.IdentityID)
	}
	if math.Abs(match.Confidence-0.4) > 1e-9 {
		t.Errorf("confidence = %v, want ~0.4", match.Confidence)
	}
}

func TestVerify_RejectsJustAboveThreshold(t *testing.T) {
	tc := newTestCore(t, nil)
	tc.mustEnroll(t, "emp-1", []float64{math.Nextafter(0.6, 1), 0, 0})

	_, err := tc.matcher.Verify(context.Background(), testMeta, []float64{0, 0, 0})
	var notRecognized *NotRecognizedError
	if !errors.As(err, &notRecognized) {
		t.Fatalf("expected NotRecognizedError just above threshold, got %v", err)
	}
	if notRecognized.BestIdentity != "emp-1" {
		t.Errorf("best candidate = %q, want emp-1", notRecognized.BestIdentity)
	}
	if notRecognized.Confidence == nil {
		t.Fatal("rejection above threshold must carry the computed confidence")
	}
}

func TestVerify_RejectionAuditsBestCandidate(t *testing.T) {
	tc := newTestCore(t, nil)
	tc.mustEnroll(t, "emp-1", []float64{5, 0, 0})
	before := tc.audit.Len()

	_, err := tc.matcher.Verify(context.Background(), testMeta, []float64{0, 0, 0})
	var notRecognized *NotRecognizedError
	if !errors.As(err, &notRecognized) {
		t.Fatalf("expected NotRecognizedError, got %v", err)
	}

	// "Who almost matched" is preserved for threshold tuning.
	rec := tc.assertAuditGrew(t, before)
	if rec.IdentityID == nil || *rec.IdentityID != "emp-1" {
		t.Errorf("rejected attempt audit identity = %v, want emp-1", rec.IdentityID)
	}
	if rec.Confidence == nil {
		t.Error("rejected attempt audit record missing confidence")
	}
	if rec.Success {
		t.Error("rejected attempt audited as success")
	}
}

func TestVerify_DisabledExcludedEvenOnExactMatch(t *testing.T) {
	tc := newTestCore(t, nil)
	ctx := context.Background()

	sig := []float64{1, 2, 3}
	tc.mustEnroll(t, "emp-1", sig)
	if _, err := tc.enroller.SetEnabled(ctx, testMeta, "emp-1", false); err != nil {
		t.Fatalf("disable: %v", err)
	}

	// Distance would be zero; the disabled record must still not match.
	_, err := tc.matcher.Verify(ctx, testMeta, sig)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates with only a disabled record, got %v", err)
	}
}

func TestVerify_TieBreakIsDeterministic(t *testing.T) {
	tc := newTestCore(t, nil)

	// Both candidates sit at distance 0.1 from the probe; the earlier
	// enrollment must win, every time.
	tc.mustEnroll(t, "emp-1", []float64{0.1, 0, 0})
	tc.mustEnroll(t, "emp-2", []float64{-0.1, 0, 0})

	for i := 0; i < 10; i++ {
		match, err := tc.matcher.Verify(context.Background(), testMeta, []float64{0, 0, 0})
		if err != nil {
			t.Fatalf("verify %d: %v", i, err)
		}
		if match.IdentityID != "emp-1" {
			t.Fatalf("verify %d matched %q, want emp-1", i, match.IdentityID)
		}
	}
}

func TestVerify_MismatchedDimensionCandidatesSitOut(t *testing.T) {
	tc := newTestCore(t, nil)
	ctx := context.Background()

	// A legacy record with a different dimension, planted behind the
	// enroller's validation.
	if _, err := tc.store.Upsert(ctx, database.EnrollmentRecord{
		IdentityID: "legacy",
		Signature:  []float64{0, 0},
		Enabled:    true,
		EnrolledAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("planting legacy record: %v", err)
	}
	tc.mustEnroll(t, "emp-1", []float64{0, 0, 0.5})

	match, err := tc.matcher.Verify(ctx, testMeta, []float64{0, 0, 0})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if match.IdentityID != "emp-1" {
		t.Errorf("matched %q, want emp-1", match.IdentityID)
	}
	// Confidence comes from the comparable candidate only.
	if math.Abs(match.Confidence-0.5) > 1e-9 {
		t.Errorf("confidence = %v, want ~0.5", match.Confidence)
	}
}

func TestVerify_NoComparableCandidates(t *testing.T) {
	tc := newTestCore(t, nil)
	tc.mustEnroll(t, "emp-1", []float64{1, 2, 3})
	before := tc.audit.Len()

	_, err := tc.matcher.Verify(context.Background(), testMeta, []float64{1, 2})
	var notRecognized *NotRecognizedError
	if !errors.As(err, &notRecognized) {
		t.Fatalf("expected NotRecognizedError, got %v", err)
	}
	if notRecognized.Confidence != nil {
		t.Errorf("no distance was computed, confidence = %v, want nil", *notRecognized.Confidence)
	}

	rec := tc.assertAuditGrew(t, before)
	if rec.Confidence != nil {
		t.Error("audit record carries confidence although no distance was computed")
	}
}

func TestVerify_SuccessUpdatesLastUsed(t *testing.T) {
	tc := newTestCore(t, nil)
	ctx := context.Background()

	tc.mustEnroll(t, "emp-1", []float64{0, 0, 0})

	before, err := tc.store.Get(ctx, "emp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if before.LastUsedAt != nil {
		t.Fatal("last_used_at set before any successful match")
	}

	if _, err := tc.matcher.Verify(ctx, testMeta, []float64{0, 0, 0.1}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	after, err := tc.store.Get(ctx, "emp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.LastUsedAt == nil {
		t.Error("last_used_at not updated after successful match")
	}
}

func TestVerify_AuditCompleteness(t *testing.T) {
	tc := newTestCore(t, nil)
	ctx := context.Background()
	tc.mustEnroll(t, "emp-1", []float64{0, 0, 0})
	tc.mustEnroll(t, "far", []float64{100, 100, 100})

	calls := []struct {
		name        string
		probe       []float64
		wantSuccess bool
	}{
		{"accepted", []float64{0, 0, 0.1}, true},
		{"rejected", []float64{50, 50, 50}, false},
		{"invalid probe", nil, false},
		{"wrong dimension", []float64{1}, false},
	}

	for _, call := range calls {
		t.Run(call.name, func(t *testing.T) {
			before := tc.audit.Len()
			_, err := tc.matcher.Verify(ctx, testMeta, call.probe)
			rec := tc.assertAuditGrew(t, before)
			if rec.Success != call.wantSuccess {
				t.Errorf("audit success = %v, want %v (err %v)", rec.Success, call.wantSuccess, err)
			}
			if rec.Action != database.ActionVerification {
				t.Errorf("audit action = %q, want verification", rec.Action)
			}
		})
	}
}

func TestVerify_CancelledScanProducesNoOutcome(t *testing.T) {
	tc := newTestCore(t, nil)
	tc.mustEnroll(t, "emp-1", []float64{0, 0, 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	before := tc.audit.Len()

	_, err := tc.matcher.Verify(ctx, testMeta, []float64{0, 0, 0})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// No decision was reached, so no audit record is owed.
	if tc.audit.Len() != before {
		t.Errorf("abandoned scan grew the audit log by %d", tc.audit.Len()-before)
	}
}

func TestVerify_AuditAppendFailureDoesNotAbort(t *testing.T) {
	store := mock.NewEnrollmentStore()
	audit := mock.NewAuditLog()
	audit.AppendError = errors.New("audit store down")
	logger := zap.NewNop()
	matcher := NewMatcher(store, NewRecorder(audit, logger), testThreshold, logger)

	if _, err := store.Upsert(context.Background(), database.EnrollmentRecord{
		IdentityID: "emp-1",
		Signature:  []float64{0, 0, 0},
		Enabled:    true,
		EnrolledAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	match, err := matcher.Verify(context.Background(), testMeta, []float64{0, 0, 0})
	if err != nil {
		t.Fatalf("verification must survive an audit append failure, got %v", err)
	}
	if match.IdentityID != "emp-1" {
		t.Errorf("matched %q, want emp-1", match.IdentityID)
	}
}

func TestVerify_TouchFailureDoesNotAbort(t *testing.T) {
	store := mock.NewEnrollmentStore()
	store.TouchError = errors.New("transient write failure")
	audit := mock.NewAuditLog()
	logger := zap.NewNop()
	matcher := NewMatcher(store, NewRecorder(audit, logger), testThreshold, logger)

	if _, err := store.Upsert(context.Background(), database.EnrollmentRecord{
		IdentityID: "emp-1",
		Signature:  []float64{0, 0, 0},
		Enabled:    true,
		EnrolledAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	match, err := matcher.Verify(context.Background(), testMeta, []float64{0, 0, 0})
	if err != nil {
		t.Fatalf("match must stand when last_used_at update fails, got %v", err)
	}
	if match.IdentityID != "emp-1" {
		t.Errorf("matched %q, want emp-1", match.IdentityID)
	}
}

func TestVerify_EndToEndScenario(t *testing.T) {
	tc := newTestCore(t, nil)
	ctx := context.Background()
	probe := []float64{0, 0, 0.1}

	// Enroll A and verify with a nearby probe.
	tc.mustEnroll(t, "A", []float64{0, 0, 0})
	match, err := tc.matcher.Verify(ctx, testMeta, probe)
	if err != nil {
		t.Fatalf("verify after enrollment: %v", err)
	}
	if match.IdentityID != "A" {
		t.Fatalf("matched %q, want A", match.IdentityID)
	}
	if math.Abs(match.Confidence-0.9) > 1e-9 {
		t.Errorf("confidence = %v, want ~0.9", match.Confidence)
	}

	// Disable A; the same probe now has no candidates.
	if _, err := tc.enroller.SetEnabled(ctx, testMeta, "A", false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, err := tc.matcher.Verify(ctx, testMeta, probe); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates after disabling, got %v", err)
	}

	// Re-enroll A far away; the original probe is now rejected.
	tc.mustEnroll(t, "A", []float64{10, 10, 10})
	_, err = tc.matcher.Verify(ctx, testMeta, probe)
	var notRecognized *NotRecognizedError
	if !errors.As(err, &notRecognized) {
		t.Fatalf("expected NotRecognizedError after re-enrollment, got %v", err)
	}
	if notRecognized.BestIdentity != "A" {
		t.Errorf("best candidate = %q, want A", notRecognized.BestIdentity)
	}
}
