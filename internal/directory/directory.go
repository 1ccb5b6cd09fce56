// Package directory resolves identity IDs against the HR application's
// employee records. Enrollment consults it to reject identities that do
// not refer to a real subject; everything else about the subject is
// owned by the surrounding application.
package directory

import "context"

// Directory answers whether an identity refers to a known subject.
type Directory interface {
	Exists(ctx context.Context, identityID string) (bool, error)
}

// Static is a fixed in-memory directory, used in tests and development.
type Static struct {
	ids map[string]struct{}
}

// NewStatic creates a directory containing exactly the given identities.
func NewStatic(identityIDs ...string) *Static {
	ids := make(map[string]struct{}, len(identityIDs))
	for _, id := range identityIDs {
		ids[id] = struct{}{}
	}
	return &Static{ids: ids}
}

// Exists reports whether the identity is in the static set.
func (s *Static) Exists(ctx context.Context, identityID string) (bool, error) {
	_, ok := s.ids[identityID]
	return ok, nil
}
