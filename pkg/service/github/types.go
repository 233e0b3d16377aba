package github

import (
	"context"
	"time"
)

// Service provides interface to the GitHub REST API for the release sync
// core. Every data operation takes the installation token explicitly; the
// service holds no delegated credential state between calls.
type Service interface {
	// MintInstallationToken exchanges a freshly minted app assertion for a
	// short-lived installation-scoped token. The token must not be cached
	// beyond the sync attempt that requested it.
	MintInstallationToken(ctx context.Context, installationID int64) (*InstallationToken, error)

	// ListRepositories returns the repositories accessible to the installation
	ListRepositories(ctx context.Context, token string) ([]*Repository, error)

	// ListLabels returns the labels of the repository
	ListLabels(ctx context.Context, token, owner, repo string) ([]*Label, error)

	// ListReleases returns all releases of the repository, drafts and
	// prereleases included, following pagination.
	ListReleases(ctx context.Context, token, owner, repo string) ([]*Release, error)

	// CreateRelease creates a release on GitHub (reverse sync path)
	CreateRelease(ctx context.Context, token, owner, repo string, params *NewRelease) (*Release, error)
}

// InstallationToken is the delegated credential for one installation. It is
// ephemeral: held only in the calling stack frame of one sync attempt.
type InstallationToken struct {
	Token     string
	ExpiresAt time.Time
}

// Release is a normalized GitHub release
type Release struct {
	ID           string // GitHub's numeric id, as a string
	TagName      string
	Name         string
	Body         string
	HTMLURL      string
	IsDraft      bool
	IsPrerelease bool
	PublishedAt  *time.Time
	CreatedAt    time.Time
}

// NewRelease holds the fields for creating a GitHub release
type NewRelease struct {
	TagName    string
	Name       string
	Body       string
	Draft      bool
	Prerelease bool
}

// Repository is a normalized GitHub repository
type Repository struct {
	FullName    string
	Owner       string
	Name        string
	Description string
	Private     bool
}

// Label is a normalized GitHub issue label
type Label struct {
	Name        string
	Color       string
	Description string
}
