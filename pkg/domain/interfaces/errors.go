package interfaces

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by all repository backends so callers can match
// them with errors.Is regardless of the configured backend.
var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = goerr.New("record not found")

	// ErrStatusConflict is returned by TransitionStatus when the stored sync
	// status does not match any of the expected prior states
	ErrStatusConflict = goerr.New("sync status conflict")

	// ErrAlreadyLinked is returned by LinkGitHub when the release is already
	// linked to a different GitHub release
	ErrAlreadyLinked = goerr.New("release already linked to another GitHub release")
)
