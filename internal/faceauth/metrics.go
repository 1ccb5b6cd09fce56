package faceauth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faceauth_verify_total",
			Help: "Verification calls by outcome",
		},
		[]string{"outcome"},
	)

	verifyDistance = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "faceauth_verify_distance",
			Help:    "Best-candidate Euclidean distance per verification",
			Buckets: prometheus.LinearBuckets(0, 0.1, 15),
		},
	)

	auditAppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faceauth_audit_append_failures_total",
			Help: "Audit records that could not be persisted",
		},
	)
)

const (
	outcomeAccepted     = "accepted"
	outcomeRejected     = "rejected"
	outcomeNoCandidates = "no_candidates"
	outcomeInvalidProbe = "invalid_probe"
	outcomeError        = "error"
)
