package model

import (
	"time"

	"github.com/shiplog-dev/shiplog/pkg/domain/types"
)

// Release is the product-native changelog entry. The sync core consumes it
// only for linking: once GitHubReleaseID is set the link is authoritative and
// one-to-one, and the release must never be pushed to GitHub a second time.
type Release struct {
	ID              types.ReleaseID
	OrgID           types.OrgID
	Title           string
	Version         string
	Body            string
	PublishedAt     *time.Time
	GitHubReleaseID string // back-reference to the GitHub release, empty when unlinked
	GitHubHTMLURL   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Linked returns true if the release is already represented on GitHub
func (r *Release) Linked() bool {
	return r.GitHubReleaseID != ""
}

// SyncedGitHubRelease is the local shadow of one GitHub release. Rows are
// keyed by (OrgID, GitHubReleaseID); re-sync overwrites all mutable fields in
// place so repeated runs with identical upstream data are idempotent.
type SyncedGitHubRelease struct {
	OrgID           types.OrgID
	GitHubReleaseID string // GitHub's numeric release id, stored as a string
	TagName         string
	Name            string
	Body            string
	HTMLURL         string
	IsDraft         bool
	IsPrerelease    bool
	PublishedAt     *time.Time
	CreatedAt       time.Time
	SyncedAt        time.Time
}
