package github

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for the GitHub service. The sync orchestrator matches them
// with errors.Is to decide what is user-actionable and what is transient.
var (
	// ErrNoCredentials means the app ID or private key is missing or broken.
	// Fatal; retrying without operator intervention cannot succeed.
	ErrNoCredentials = goerr.New("GitHub App credentials are not configured")

	// ErrUpstreamAuth means the installation token exchange was rejected,
	// typically a revoked or suspended installation. Reconnecting the app is
	// the user-side remedy.
	ErrUpstreamAuth = goerr.New("GitHub installation token exchange rejected")

	// ErrNotFound maps upstream 404 responses
	ErrNotFound = goerr.New("GitHub resource not found")

	// ErrRateLimited maps rate-limit responses. Safe to retry after the
	// upstream reset time.
	ErrRateLimited = goerr.New("GitHub API rate limit exceeded")

	// ErrUpstream maps any other non-2xx upstream response
	ErrUpstream = goerr.New("GitHub API error")

	// ErrTransport means the request never produced an upstream response
	ErrTransport = goerr.New("GitHub API transport failure")
)
