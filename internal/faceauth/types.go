// Package faceauth implements the biometric face authentication core:
// enrollment of face signatures per identity, 1:N verification by
// linear scan over the enabled population, and an append-only audit
// trail of every attempt.
package faceauth

import "time"

// RequestMeta carries opaque caller metadata into the audit trail.
type RequestMeta struct {
	Origin string // remote address or "cli"
	Client string // user agent or tool name
}

// Match is a successful verification outcome.
type Match struct {
	IdentityID string
	Confidence float64
}

// Status is the enrollment status snapshot for one identity. The zero
// value describes a never-enrolled identity.
type Status struct {
	Enrolled   bool
	Enabled    bool
	EnrolledAt *time.Time
	LastUsedAt *time.Time
}
