package types

import "github.com/google/uuid"

// OrgID identifies an organization. It is issued by the membership system,
// which verifies identity and admin role before any sync request reaches
// this core.
type OrgID string

// String returns the string representation of the organization ID
func (id OrgID) String() string {
	return string(id)
}

// ReleaseID is a UUID-based identifier for a native changelog release
type ReleaseID string

// NewReleaseID generates a new UUID v4 ReleaseID
func NewReleaseID() ReleaseID {
	return ReleaseID(uuid.New().String())
}

// String returns the string representation of the release ID
func (id ReleaseID) String() string {
	return string(id)
}
