package faceauth

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/hrsuite/faceauth/internal/database"
)

// CandidateSource is the slice of the enrollment store the matcher
// needs: a stable snapshot of enabled candidates, plus the last-used
// timestamp update on a successful match. The snapshot contract keeps
// the door open for an indexed candidate source later without touching
// the matcher.
type CandidateSource interface {
	ListEnabledCandidates(ctx context.Context) ([]database.Candidate, error)
	TouchLastUsed(ctx context.Context, identityID string, usedAt time.Time) error
}

// Matcher performs 1:N identification: a probe signature against every
// enabled enrollment, by linear scan. Every call that reaches a
// decision produces exactly one audit record, success or failure.
type Matcher struct {
	source    CandidateSource
	audit     *Recorder
	threshold float64
	logger    *zap.Logger
}

// NewMatcher creates a Matcher with the given acceptance threshold
// (maximum Euclidean distance for a positive match).
func NewMatcher(source CandidateSource, audit *Recorder, threshold float64, logger *zap.Logger) *Matcher {
	return &Matcher{source: source, audit: audit, threshold: threshold, logger: logger}
}

// Threshold returns the acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Verify matches a probe signature against the enabled population.
//
// Outcomes map to errors: ErrInvalidProbe for a malformed probe,
// ErrNoCandidates for an empty enabled population, *NotRecognizedError
// when the best candidate misses the threshold, nil with a Match on
// acceptance. A candidate at exactly the threshold distance is
// accepted; rejection requires strictly greater distance.
func (m *Matcher) Verify(ctx context.Context, meta RequestMeta, probe []float64) (Match, error) {
	if len(probe) == 0 {
		verifyTotal.WithLabelValues(outcomeInvalidProbe).Inc()
		m.audit.Record(ctx, database.AuditRecord{
			Action:      database.ActionVerification,
			Success:     false,
			Origin:      meta.Origin,
			Client:      meta.Client,
			ErrorDetail: strPtr("invalid probe"),
		})
		return Match{}, ErrInvalidProbe
	}

	candidates, err := m.source.ListEnabledCandidates(ctx)
	if err != nil {
		verifyTotal.WithLabelValues(outcomeError).Inc()
		m.audit.Record(ctx, database.AuditRecord{
			Action:      database.ActionVerification,
			Success:     false,
			Origin:      meta.Origin,
			Client:      meta.Client,
			ErrorDetail: errDetail(err),
		})
		return Match{}, fmt.Errorf("listing candidates: %w", err)
	}

	if len(candidates) == 0 {
		verifyTotal.WithLabelValues(outcomeNoCandidates).Inc()
		m.audit.Record(ctx, database.AuditRecord{
			Action:      database.ActionVerification,
			Success:     false,
			Origin:      meta.Origin,
			Client:      meta.Client,
			ErrorDetail: strPtr("no enrolled candidates"),
		})
		return Match{}, ErrNoCandidates
	}

	// Linear scan. Candidates whose signature length differs from the
	// probe are not comparable and sit out the contest entirely. Ties
	// go to the earliest candidate in snapshot order (strict <).
	bestIdx := -1
	var bestSquared float64
	for i := range candidates {
		// Abandoned callers stop the scan between comparisons. No
		// outcome was reached, so no audit record is owed yet.
		if err := ctx.Err(); err != nil {
			return Match{}, err
		}
		c := &candidates[i]
		if len(c.Signature) != len(probe) {
			continue
		}
		d2 := SquaredDistance(probe, c.Signature)
		if bestIdx == -1 || d2 < bestSquared {
			bestIdx = i
			bestSquared = d2
		}
	}

	if bestIdx == -1 {
		verifyTotal.WithLabelValues(outcomeRejected).Inc()
		m.audit.Record(ctx, database.AuditRecord{
			Action:      database.ActionVerification,
			Success:     false,
			Origin:      meta.Origin,
			Client:      meta.Client,
			ErrorDetail: strPtr("no comparable candidates"),
		})
		return Match{}, &NotRecognizedError{}
	}

	best := candidates[bestIdx]
	distance := math.Sqrt(bestSquared)
	confidence := 1 - distance
	verifyDistance.Observe(distance)

	// Squared comparison keeps the boundary exact: distance equal to
	// the threshold is accepted.
	if bestSquared > m.threshold*m.threshold {
		verifyTotal.WithLabelValues(outcomeRejected).Inc()
		// The rejected best candidate is still recorded: "who almost
		// matched" is what threshold tuning works from.
		m.audit.Record(ctx, database.AuditRecord{
			IdentityID:  &best.IdentityID,
			Action:      database.ActionVerification,
			Confidence:  &confidence,
			Success:     false,
			Origin:      meta.Origin,
			Client:      meta.Client,
			ErrorDetail: strPtr("distance above threshold"),
		})
		return Match{}, &NotRecognizedError{BestIdentity: best.IdentityID, Confidence: &confidence}
	}

	if err := m.source.TouchLastUsed(ctx, best.IdentityID, time.Now().UTC()); err != nil {
		// The match itself stands; a stale last_used_at is harmless.
		m.logger.Warn("failed to update last_used_at",
			zap.String("identity_id", best.IdentityID),
			zap.Error(err),
		)
	}

	verifyTotal.WithLabelValues(outcomeAccepted).Inc()
	m.audit.Record(ctx, database.AuditRecord{
		IdentityID: &best.IdentityID,
		Action:     database.ActionVerification,
		Confidence: &confidence,
		Success:    true,
		Origin:     meta.Origin,
		Client:     meta.Client,
	})
	m.logger.Info("probe recognized",
		zap.String("identity_id", best.IdentityID),
		zap.Float64("confidence", confidence),
	)
	return Match{IdentityID: best.IdentityID, Confidence: confidence}, nil
}
