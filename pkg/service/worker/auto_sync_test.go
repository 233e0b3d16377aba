package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
	"github.com/shiplog-dev/shiplog/pkg/repository/memory"
	"github.com/shiplog-dev/shiplog/pkg/service/github"
	"github.com/shiplog-dev/shiplog/pkg/service/worker"
	"github.com/shiplog-dev/shiplog/pkg/usecase"
)

// stubGitHubService implements github.Service and counts release listings
type stubGitHubService struct {
	listCalls atomic.Int64
}

func (s *stubGitHubService) MintInstallationToken(ctx context.Context, installationID int64) (*github.InstallationToken, error) {
	return &github.InstallationToken{Token: "ghs_stub", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubGitHubService) ListRepositories(ctx context.Context, token string) ([]*github.Repository, error) {
	return nil, nil
}

func (s *stubGitHubService) ListLabels(ctx context.Context, token, owner, repo string) ([]*github.Label, error) {
	return nil, nil
}

func (s *stubGitHubService) ListReleases(ctx context.Context, token, owner, repo string) ([]*github.Release, error) {
	s.listCalls.Add(1)
	return []*github.Release{
		{ID: "1", TagName: "v1.0.0", Name: "First"},
	}, nil
}

func (s *stubGitHubService) CreateRelease(ctx context.Context, token, owner, repo string, params *github.NewRelease) (*github.Release, error) {
	return nil, nil
}

func TestAutoSyncWorker(t *testing.T) {
	t.Run("syncs opted-in organizations only", func(t *testing.T) {
		repo := memory.New()
		ctx := context.Background()

		_, err := repo.Connection().Put(ctx, &model.Connection{
			OrgID:           "org-auto",
			InstallationID:  1,
			RepoFullName:    "acme/changelog",
			AutoSyncEnabled: true,
		})
		gt.NoError(t, err).Required()

		_, err = repo.Connection().Put(ctx, &model.Connection{
			OrgID:          "org-manual",
			InstallationID: 2,
			RepoFullName:   "acme/other",
		})
		gt.NoError(t, err).Required()

		svc := &stubGitHubService{}
		uc := usecase.New(repo, usecase.WithGitHub(svc))

		w := worker.NewAutoSyncWorker(repo, uc.Sync, 10*time.Millisecond)
		gt.NoError(t, w.Start(ctx)).Required()

		deadline := time.Now().Add(2 * time.Second)
		for svc.listCalls.Load() == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		w.Stop()

		gt.Bool(t, svc.listCalls.Load() > 0).True()

		autoSynced, err := repo.SyncedRelease().List(ctx, types.OrgID("org-auto"))
		gt.NoError(t, err).Required()
		gt.Array(t, autoSynced).Length(1)

		manualSynced, err := repo.SyncedRelease().List(ctx, types.OrgID("org-manual"))
		gt.NoError(t, err).Required()
		gt.Array(t, manualSynced).Length(0)
	})

	t.Run("Stop terminates the loop", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithGitHub(&stubGitHubService{}))

		w := worker.NewAutoSyncWorker(repo, uc.Sync, time.Hour)
		gt.NoError(t, w.Start(context.Background())).Required()

		done := make(chan struct{})
		go func() {
			w.Stop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop in time")
		}
	})
}
