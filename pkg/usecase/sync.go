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
	"github.com/shiplog-dev/shiplog/pkg/utils/logging"
)

// startableStatuses are the states a new sync may claim from. A stored
// syncing status means another attempt holds the claim.
// syncAttemptTimeout bounds the external calls of one attempt. A hung
// upstream must not hold the sync claim forever.
const syncAttemptTimeout = 60 * time.Second

var startableStatuses = []types.SyncStatus{
	types.SyncStatusIdle,
	types.SyncStatusSuccess,
	types.SyncStatusError,
}

// SyncUseCase orchestrates release synchronization from GitHub
type SyncUseCase struct {
	repo   interfaces.Repository
	github github.Service
}

func NewSyncUseCase(repo interfaces.Repository, githubService github.Service) *SyncUseCase {
	return &SyncUseCase{
		repo:   repo,
		github: githubService,
	}
}

// SyncResult summarizes one completed sync attempt
type SyncResult struct {
	OrgID        types.OrgID
	SyncedCount  int
	RepoFullName string
}

// Trigger runs one full sync for the organization. Only one sync runs per
// organization at a time: the status claim is a compare-and-swap, so a
// concurrent trigger fails fast with ErrSyncInProgress instead of queueing.
// Precondition failures (no installation, no repository) do not touch the
// sync status.
func (uc *SyncUseCase) Trigger(ctx context.Context, orgID types.OrgID) (*SyncResult, error) {
	if uc.github == nil {
		return nil, ErrGitHubNotConfigured
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
			goerr.V("org_id", orgID),
			goerr.V("installation_id", conn.InstallationID),
			goerr.V("repo", conn.RepoFullName))
	}

	// Claim the sync slot
	conn, err = uc.repo.Connection().TransitionStatus(ctx, orgID, startableStatuses, types.SyncStatusSyncing, "")
	if err != nil {
		if errors.Is(err, interfaces.ErrStatusConflict) {
			return nil, goerr.Wrap(ErrSyncInProgress, "sync slot is taken", goerr.V("org_id", orgID))
		}
		return nil, goerr.Wrap(err, "failed to claim sync slot", goerr.V("org_id", orgID))
	}

	runCtx, cancel := context.WithTimeout(ctx, syncAttemptTimeout)
	defer cancel()

	// The outcome is recorded on a detached context: if the triggering
	// request is cancelled mid-attempt, the claim must still be released or
	// the organization stays in syncing with no way out.
	recordCtx := context.WithoutCancel(ctx)

	count, syncErr := uc.run(runCtx, conn)
	if syncErr != nil {
		if _, err := uc.repo.Connection().TransitionStatus(recordCtx, orgID,
			[]types.SyncStatus{types.SyncStatusSyncing}, types.SyncStatusError, syncErr.Error()); err != nil {
			logging.From(ctx).Error("failed to record sync failure", "error", err, "org_id", orgID)
		}
		return nil, goerr.Wrap(syncErr, "sync failed", goerr.V("org_id", orgID))
	}

	if _, err := uc.repo.Connection().TransitionStatus(recordCtx, orgID,
		[]types.SyncStatus{types.SyncStatusSyncing}, types.SyncStatusSuccess, ""); err != nil {
		return nil, goerr.Wrap(err, "failed to record sync success", goerr.V("org_id", orgID))
	}

	logging.From(ctx).Info("release sync completed",
		"org_id", orgID, "repo", conn.RepoFullName, "synced", count)

	return &SyncResult{
		OrgID:        orgID,
		SyncedCount:  count,
		RepoFullName: conn.RepoFullName,
	}, nil
}

// run performs the data work of one claimed sync attempt. The installation
// token lives only in this frame and is discarded when it returns.
func (uc *SyncUseCase) run(ctx context.Context, conn *model.Connection) (int, error) {
	owner, repo, err := model.ParseGitHubRepo(conn.RepoFullName)
	if err != nil {
		return 0, goerr.Wrap(err, "stored repository name is invalid", goerr.V("repo", conn.RepoFullName))
	}

	token, err := uc.github.MintInstallationToken(ctx, conn.InstallationID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to mint installation token",
			goerr.V("installation_id", conn.InstallationID))
	}

	releases, err := uc.github.ListReleases(ctx, token.Token, owner, repo)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list GitHub releases",
			goerr.V("owner", owner), goerr.V("repo", repo))
	}

	return uc.reconcile(ctx, conn.OrgID, releases)
}
