package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for the use case layer
var (
	// ErrGitHubNotConfigured is returned when the GitHub App credentials are
	// not configured for this deployment
	ErrGitHubNotConfigured = goerr.New("GitHub App is not configured")

	// ErrConnectionNotConfigured is returned when the organization has no
	// completed installation or no selected repository. The sync status is
	// left untouched.
	ErrConnectionNotConfigured = goerr.New("GitHub connection is not configured")

	// ErrSyncInProgress is returned when another sync holds the syncing
	// status. The caller should retry after the running sync finishes.
	ErrSyncInProgress = goerr.New("a sync is already in progress")

	// ErrReleaseAlreadyPublished is returned when publishing a release that
	// is already linked to a GitHub release
	ErrReleaseAlreadyPublished = goerr.New("release is already published to GitHub")
)
