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

type releaseKey struct {
	orgID types.OrgID
	id    types.ReleaseID
}

type releaseRepository struct {
	mu       sync.RWMutex
	releases map[releaseKey]*model.Release
}

func newReleaseRepository() *releaseRepository {
	return &releaseRepository{
		releases: make(map[releaseKey]*model.Release),
	}
}

// copyRelease creates a deep copy of a release
func copyRelease(release *model.Release) *model.Release {
	copied := *release
	if release.PublishedAt != nil {
		t := *release.PublishedAt
		copied.PublishedAt = &t
	}
	return &copied
}

func (r *releaseRepository) Create(ctx context.Context, release *model.Release) (*model.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyRelease(release)
	if created.ID == "" {
		created.ID = types.NewReleaseID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.releases[releaseKey{orgID: created.OrgID, id: created.ID}] = created
	return copyRelease(created), nil
}

func (r *releaseRepository) Get(ctx context.Context, orgID types.OrgID, id types.ReleaseID) (*model.Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	release, exists := r.releases[releaseKey{orgID: orgID, id: id}]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "release not found",
			goerr.V("org_id", orgID), goerr.V("release_id", id))
	}

	return copyRelease(release), nil
}

func (r *releaseRepository) List(ctx context.Context, orgID types.OrgID) ([]*model.Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var releases []*model.Release
	for key, release := range r.releases {
		if key.orgID == orgID {
			releases = append(releases, copyRelease(release))
		}
	}

	return releases, nil
}

func (r *releaseRepository) LinkGitHub(ctx context.Context, orgID types.OrgID, id types.ReleaseID, githubReleaseID, htmlURL string) (*model.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.releases[releaseKey{orgID: orgID, id: id}]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "release not found",
			goerr.V("org_id", orgID), goerr.V("release_id", id))
	}

	// Re-link with identical ids is a no-op
	if existing.GitHubReleaseID == githubReleaseID {
		return copyRelease(existing), nil
	}
	if existing.GitHubReleaseID != "" {
		return nil, goerr.Wrap(interfaces.ErrAlreadyLinked, "release link is authoritative",
			goerr.V("release_id", id),
			goerr.V("linked", existing.GitHubReleaseID),
			goerr.V("requested", githubReleaseID))
	}

	updated := copyRelease(existing)
	updated.GitHubReleaseID = githubReleaseID
	updated.GitHubHTMLURL = htmlURL
	updated.UpdatedAt = time.Now().UTC()

	r.releases[releaseKey{orgID: orgID, id: id}] = updated
	return copyRelease(updated), nil
}

func (r *releaseRepository) FindByGitHubReleaseID(ctx context.Context, orgID types.OrgID, githubReleaseID string) (*model.Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for key, release := range r.releases {
		if key.orgID == orgID && release.GitHubReleaseID == githubReleaseID {
			return copyRelease(release), nil
		}
	}

	return nil, goerr.Wrap(interfaces.ErrNotFound, "no release linked to GitHub release",
		goerr.V("org_id", orgID), goerr.V("github_release_id", githubReleaseID))
}
