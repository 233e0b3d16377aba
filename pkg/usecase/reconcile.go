package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
	"github.com/shiplog-dev/shiplog/pkg/service/github"
)

// reconcile upserts one shadow record per upstream release. Records are
// keyed by (orgID, githubReleaseID) so re-running with identical upstream
// data changes nothing, and edited releases update in place. Releases that
// disappeared upstream are kept; reconciliation never deletes.
func (uc *SyncUseCase) reconcile(ctx context.Context, orgID types.OrgID, releases []*github.Release) (int, error) {
	now := time.Now().UTC()

	for _, release := range releases {
		shadow := &model.SyncedGitHubRelease{
			OrgID:           orgID,
			GitHubReleaseID: release.ID,
			TagName:         release.TagName,
			Name:            release.Name,
			Body:            release.Body,
			HTMLURL:         release.HTMLURL,
			IsDraft:         release.IsDraft,
			IsPrerelease:    release.IsPrerelease,
			PublishedAt:     release.PublishedAt,
			CreatedAt:       release.CreatedAt,
			SyncedAt:        now,
		}

		if _, err := uc.repo.SyncedRelease().Upsert(ctx, shadow); err != nil {
			return 0, goerr.Wrap(err, "failed to upsert synced release",
				goerr.V("org_id", orgID), goerr.V("github_release_id", release.ID))
		}
	}

	return len(releases), nil
}

// ListSyncedReleases returns the shadow records for the organization
func (uc *SyncUseCase) ListSyncedReleases(ctx context.Context, orgID types.OrgID) ([]*model.SyncedGitHubRelease, error) {
	releases, err := uc.repo.SyncedRelease().List(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list synced releases", goerr.V("org_id", orgID))
	}
	return releases, nil
}

// LinkRelease attaches a native changelog release to a synced GitHub
// release. The link is one-to-one and idempotent: repeating the same link is
// a no-op, moving a linked release to another GitHub release fails.
func (uc *SyncUseCase) LinkRelease(ctx context.Context, orgID types.OrgID, releaseID types.ReleaseID, githubReleaseID string) (*model.Release, error) {
	shadow, err := uc.repo.SyncedRelease().Get(ctx, orgID, githubReleaseID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(err, "GitHub release has not been synced",
				goerr.V("org_id", orgID), goerr.V("github_release_id", githubReleaseID))
		}
		return nil, goerr.Wrap(err, "failed to get synced release", goerr.V("github_release_id", githubReleaseID))
	}

	linked, err := uc.repo.Release().LinkGitHub(ctx, orgID, releaseID, shadow.GitHubReleaseID, shadow.HTMLURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to link release",
			goerr.V("release_id", releaseID), goerr.V("github_release_id", githubReleaseID))
	}

	return linked, nil
}

// PublishRelease pushes a native changelog release to GitHub and links the
// result. A release that is already linked must never be pushed again.
func (uc *SyncUseCase) PublishRelease(ctx context.Context, orgID types.OrgID, releaseID types.ReleaseID) (*model.Release, error) {
	if uc.github == nil {
		return nil, ErrGitHubNotConfigured
	}

	release, err := uc.repo.Release().Get(ctx, orgID, releaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get release", goerr.V("release_id", releaseID))
	}
	if release.Linked() {
		return nil, goerr.Wrap(ErrReleaseAlreadyPublished, "release is linked",
			goerr.V("release_id", releaseID), goerr.V("github_release_id", release.GitHubReleaseID))
	}

	conn, err := uc.repo.Connection().Get(ctx, orgID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrConnectionNotConfigured, "no GitHub connection", goerr.V("org_id", orgID))
		}
		return nil, goerr.Wrap(err, "failed to get connection", goerr.V("org_id", orgID))
	}
	if !conn.Configured() {
		return nil, goerr.Wrap(ErrConnectionNotConfigured, "GitHub connection is incomplete",
			goerr.V("org_id", orgID))
	}

	owner, repo, err := model.ParseGitHubRepo(conn.RepoFullName)
	if err != nil {
		return nil, goerr.Wrap(err, "stored repository name is invalid", goerr.V("repo", conn.RepoFullName))
	}

	token, err := uc.github.MintInstallationToken(ctx, conn.InstallationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to mint installation token", goerr.V("org_id", orgID))
	}

	created, err := uc.github.CreateRelease(ctx, token.Token, owner, repo, &github.NewRelease{
		TagName: release.Version,
		Name:    release.Title,
		Body:    release.Body,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub release",
			goerr.V("release_id", releaseID), goerr.V("tag", release.Version))
	}

	// Record the shadow first so the link target exists even if linking fails
	if _, err := uc.repo.SyncedRelease().Upsert(ctx, &model.SyncedGitHubRelease{
		OrgID:           orgID,
		GitHubReleaseID: created.ID,
		TagName:         created.TagName,
		Name:            created.Name,
		Body:            created.Body,
		HTMLURL:         created.HTMLURL,
		IsDraft:         created.IsDraft,
		IsPrerelease:    created.IsPrerelease,
		PublishedAt:     created.PublishedAt,
		CreatedAt:       created.CreatedAt,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to record created release",
			goerr.V("github_release_id", created.ID))
	}

	linked, err := uc.repo.Release().LinkGitHub(ctx, orgID, releaseID, created.ID, created.HTMLURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to link created release",
			goerr.V("release_id", releaseID), goerr.V("github_release_id", created.ID))
	}

	return linked, nil
}
