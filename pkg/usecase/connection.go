package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
	"github.com/shiplog-dev/shiplog/pkg/service/github"
)

// ConnectionUseCase handles the GitHub connection lifecycle of an
// organization: install, repository selection, auto-sync toggle, disconnect.
type ConnectionUseCase struct {
	repo   interfaces.Repository
	github github.Service
}

func NewConnectionUseCase(repo interfaces.Repository, githubService github.Service) *ConnectionUseCase {
	return &ConnectionUseCase{
		repo:   repo,
		github: githubService,
	}
}

// GetStatus returns the connection state for the organization. An
// organization that never connected gets a zero connection with idle status
// instead of an error.
func (uc *ConnectionUseCase) GetStatus(ctx context.Context, orgID types.OrgID) (*model.Connection, error) {
	conn, err := uc.repo.Connection().Get(ctx, orgID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return &model.Connection{
				OrgID:      orgID,
				SyncStatus: types.SyncStatusIdle,
			}, nil
		}
		return nil, goerr.Wrap(err, "failed to get connection", goerr.V("org_id", orgID))
	}

	return conn, nil
}

// List returns the connections of all organizations
func (uc *ConnectionUseCase) List(ctx context.Context) ([]*model.Connection, error) {
	conns, err := uc.repo.Connection().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list connections")
	}
	return conns, nil
}

// Connect records a completed GitHub App installation for the organization.
// Repository selection is a separate step.
func (uc *ConnectionUseCase) Connect(ctx context.Context, orgID types.OrgID, installationID int64) (*model.Connection, error) {
	if installationID == 0 {
		return nil, goerr.New("installation ID is required", goerr.V("org_id", orgID))
	}

	existing, err := uc.GetStatus(ctx, orgID)
	if err != nil {
		return nil, err
	}

	existing.InstallationID = installationID
	existing.SyncStatus = existing.SyncStatus.Normalize()

	conn, err := uc.repo.Connection().Put(ctx, existing)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save connection", goerr.V("org_id", orgID))
	}

	return conn, nil
}

// SelectRepository validates and stores the repository choice. The input may
// be "owner/repo" or a github.com URL; the stored value is always the
// normalized full name.
func (uc *ConnectionUseCase) SelectRepository(ctx context.Context, orgID types.OrgID, input string) (*model.Connection, error) {
	owner, repo, err := model.ParseGitHubRepo(input)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid repository name", goerr.V("input", input))
	}

	conn, err := uc.repo.Connection().SetRepository(ctx, orgID, owner+"/"+repo)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrConnectionNotConfigured, "install the GitHub App before selecting a repository",
				goerr.V("org_id", orgID))
		}
		return nil, goerr.Wrap(err, "failed to select repository", goerr.V("org_id", orgID))
	}

	return conn, nil
}

// ToggleAutoSync enables or disables unattended sync for the organization
func (uc *ConnectionUseCase) ToggleAutoSync(ctx context.Context, orgID types.OrgID, enabled bool) (*model.Connection, error) {
	conn, err := uc.repo.Connection().SetAutoSync(ctx, orgID, enabled)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrConnectionNotConfigured, "no GitHub connection to toggle",
				goerr.V("org_id", orgID))
		}
		return nil, goerr.Wrap(err, "failed to toggle auto sync", goerr.V("org_id", orgID))
	}

	return conn, nil
}

// Disconnect removes the installation and repository selection. Synced
// release history is preserved; only the live link state is reset.
func (uc *ConnectionUseCase) Disconnect(ctx context.Context, orgID types.OrgID) error {
	if err := uc.repo.Connection().Clear(ctx, orgID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			// Disconnecting an org that never connected is a no-op
			return nil
		}
		return goerr.Wrap(err, "failed to disconnect", goerr.V("org_id", orgID))
	}

	return nil
}

// ListRepositories returns the repositories the organization's installation
// can access, for the repository picker.
func (uc *ConnectionUseCase) ListRepositories(ctx context.Context, orgID types.OrgID) ([]*github.Repository, error) {
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
	if conn.InstallationID == 0 {
		return nil, goerr.Wrap(ErrConnectionNotConfigured, "GitHub App installation is not completed",
			goerr.V("org_id", orgID))
	}

	token, err := uc.github.MintInstallationToken(ctx, conn.InstallationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to mint installation token", goerr.V("org_id", orgID))
	}

	repos, err := uc.github.ListRepositories(ctx, token.Token)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list repositories", goerr.V("org_id", orgID))
	}

	return repos, nil
}

// ListLabels returns the labels of the selected repository
func (uc *ConnectionUseCase) ListLabels(ctx context.Context, orgID types.OrgID) ([]*github.Label, error) {
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

	labels, err := uc.github.ListLabels(ctx, token.Token, owner, repo)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list labels", goerr.V("org_id", orgID))
	}

	return labels, nil
}
