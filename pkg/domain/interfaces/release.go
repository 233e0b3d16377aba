package interfaces

import (
	"context"

	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
)

// ReleaseRepository persists native changelog releases. The sync core only
// reads them and patches GitHub link fields; authoring lives elsewhere.
type ReleaseRepository interface {
	Create(ctx context.Context, release *model.Release) (*model.Release, error)
	Get(ctx context.Context, orgID types.OrgID, id types.ReleaseID) (*model.Release, error)
	List(ctx context.Context, orgID types.OrgID) ([]*model.Release, error)

	// LinkGitHub patches the GitHub back-reference exactly once. Re-linking
	// with identical ids is a no-op; linking to a different id fails with
	// ErrAlreadyLinked.
	LinkGitHub(ctx context.Context, orgID types.OrgID, id types.ReleaseID, githubReleaseID, htmlURL string) (*model.Release, error)

	// FindByGitHubReleaseID returns the release linked to the given GitHub
	// release id, or ErrNotFound
	FindByGitHubReleaseID(ctx context.Context, orgID types.OrgID, githubReleaseID string) (*model.Release, error)
}

// SyncedReleaseRepository persists shadow copies of GitHub releases keyed by
// (orgID, githubReleaseID)
type SyncedReleaseRepository interface {
	// Upsert writes the shadow row, overwriting all mutable fields in place
	Upsert(ctx context.Context, release *model.SyncedGitHubRelease) (*model.SyncedGitHubRelease, error)
	Get(ctx context.Context, orgID types.OrgID, githubReleaseID string) (*model.SyncedGitHubRelease, error)
	List(ctx context.Context, orgID types.OrgID) ([]*model.SyncedGitHubRelease, error)
}
