package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
)

type syncedReleaseKey struct {
	orgID           types.OrgID
	githubReleaseID string
}

type syncedReleaseRepository struct {
	mu       sync.RWMutex
	releases map[syncedReleaseKey]*model.SyncedGitHubRelease
}

func newSyncedReleaseRepository() *syncedReleaseRepository {
	return &syncedReleaseRepository{
		releases: make(map[syncedReleaseKey]*model.SyncedGitHubRelease),
	}
}

// copySyncedRelease creates a deep copy of a shadow release
func copySyncedRelease(release *model.SyncedGitHubRelease) *model.SyncedGitHubRelease {
	copied := *release
	if release.PublishedAt != nil {
		t := *release.PublishedAt
		copied.PublishedAt = &t
	}
	return &copied
}

func (r *syncedReleaseRepository) Upsert(ctx context.Context, release *model.SyncedGitHubRelease) (*model.SyncedGitHubRelease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copySyncedRelease(release)
	if stored.SyncedAt.IsZero() {
		stored.SyncedAt = time.Now().UTC()
	}

	r.releases[syncedReleaseKey{orgID: stored.OrgID, githubReleaseID: stored.GitHubReleaseID}] = stored
	return copySyncedRelease(stored), nil
}

func (r *syncedReleaseRepository) Get(ctx context.Context, orgID types.OrgID, githubReleaseID string) (*model.SyncedGitHubRelease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	release, exists := r.releases[syncedReleaseKey{orgID: orgID, githubReleaseID: githubReleaseID}]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "synced release not found",
			goerr.V("org_id", orgID), goerr.V("github_release_id", githubReleaseID))
	}

	return copySyncedRelease(release), nil
}

func (r *syncedReleaseRepository) List(ctx context.Context, orgID types.OrgID) ([]*model.SyncedGitHubRelease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var releases []*model.SyncedGitHubRelease
	for key, release := range r.releases {
		if key.orgID == orgID {
			releases = append(releases, copySyncedRelease(release))
		}
	}

	return releases, nil
}
