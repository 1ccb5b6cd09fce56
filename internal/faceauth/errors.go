package faceauth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature rejects an empty signature or one whose length
	// disagrees with the enrolled population's dimension.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrUnknownIdentity rejects enrollment of an identity the HR
	// directory does not know.
	ErrUnknownIdentity = errors.New("unknown identity")

	// ErrNotEnrolled is returned by toggle and delete when no record
	// exists for the identity.
	ErrNotEnrolled = errors.New("identity not enrolled")

	// ErrInvalidProbe rejects an empty probe signature.
	ErrInvalidProbe = errors.New("invalid probe")

	// ErrNoCandidates means verification ran against an empty enabled
	// population. An expected outcome, not a system defect.
	ErrNoCandidates = errors.New("no enrolled candidates")
)

// NotRecognizedError is the below-threshold verification outcome. It
// carries the best candidate's confidence for threshold tuning; the
// confidence is nil when no candidate was comparable to the probe.
type NotRecognizedError struct {
	BestIdentity string
	Confidence   *float64
}

func (e *NotRecognizedError) Error() string {
	if e.Confidence != nil {
		return fmt.Sprintf("not recognized (confidence %.4f)", *e.Confidence)
	}
	return "not recognized"
}
