package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
	"github.com/shiplog-dev/shiplog/pkg/repository/firestore"
	"github.com/shiplog-dev/shiplog/pkg/repository/memory"
)

func newMemoryRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})

	return repo
}

func runConnectionRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	const orgID = types.OrgID("org-conn")

	t.Run("Put creates connection with idle status by default", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Connection().Put(ctx, &model.Connection{
			OrgID:          orgID,
			InstallationID: 12345,
		})
		gt.NoError(t, err).Required()

		gt.Value(t, created.OrgID).Equal(orgID)
		gt.Value(t, created.InstallationID).Equal(int64(12345))
		gt.Value(t, created.SyncStatus).Equal(types.SyncStatusIdle)
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Bool(t, created.UpdatedAt.IsZero()).False()
	})

	t.Run("Put preserves CreatedAt on replace", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Connection().Put(ctx, &model.Connection{
			OrgID:          orgID,
			InstallationID: 1,
		})
		gt.NoError(t, err).Required()

		replaced, err := repo.Connection().Put(ctx, &model.Connection{
			OrgID:          orgID,
			InstallationID: 2,
		})
		gt.NoError(t, err).Required()

		gt.Value(t, replaced.InstallationID).Equal(int64(2))
		gt.Bool(t, replaced.CreatedAt.Equal(created.CreatedAt)).True()
	})

	t.Run("Get returns stored connection", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().Put(ctx, &model.Connection{
			OrgID:           orgID,
			InstallationID:  777,
			RepoFullName:    "acme/changelog",
			AutoSyncEnabled: true,
		})
		gt.NoError(t, err).Required()

		retrieved, err := repo.Connection().Get(ctx, orgID)
		gt.NoError(t, err).Required()

		gt.Value(t, retrieved.InstallationID).Equal(int64(777))
		gt.Value(t, retrieved.RepoFullName).Equal("acme/changelog")
		gt.Bool(t, retrieved.AutoSyncEnabled).True()
	})

	t.Run("Get returns ErrNotFound for unknown org", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().Get(ctx, "no-such-org")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})

	t.Run("List returns all connections", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, id := range []types.OrgID{"org-a", "org-b", "org-c"} {
			_, err := repo.Connection().Put(ctx, &model.Connection{OrgID: id, InstallationID: 1})
			gt.NoError(t, err).Required()
		}

		conns, err := repo.Connection().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, conns).Length(3)
	})

	t.Run("SetRepository updates selection only", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().Put(ctx, &model.Connection{
			OrgID:          orgID,
			InstallationID: 10,
			RepoFullName:   "acme/old",
		})
		gt.NoError(t, err).Required()

		updated, err := repo.Connection().SetRepository(ctx, orgID, "acme/new")
		gt.NoError(t, err).Required()

		gt.Value(t, updated.RepoFullName).Equal("acme/new")
		gt.Value(t, updated.InstallationID).Equal(int64(10))
		gt.Value(t, updated.SyncStatus).Equal(types.SyncStatusIdle)
	})

	t.Run("SetAutoSync toggles flag", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().Put(ctx, &model.Connection{OrgID: orgID, InstallationID: 10})
		gt.NoError(t, err).Required()

		updated, err := repo.Connection().SetAutoSync(ctx, orgID, true)
		gt.NoError(t, err).Required()
		gt.Bool(t, updated.AutoSyncEnabled).True()

		updated, err = repo.Connection().SetAutoSync(ctx, orgID, false)
		gt.NoError(t, err).Required()
		gt.Bool(t, updated.AutoSyncEnabled).False()
	})

	t.Run("Clear resets installation and status", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().Put(ctx, &model.Connection{
			OrgID:           orgID,
			InstallationID:  55,
			RepoFullName:    "acme/changelog",
			SyncStatus:      types.SyncStatusError,
			LastError:       "boom",
			AutoSyncEnabled: true,
		})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Connection().Clear(ctx, orgID)).Required()

		cleared, err := repo.Connection().Get(ctx, orgID)
		gt.NoError(t, err).Required()

		gt.Value(t, cleared.InstallationID).Equal(int64(0))
		gt.Value(t, cleared.RepoFullName).Equal("")
		gt.Value(t, cleared.SyncStatus).Equal(types.SyncStatusIdle)
		gt.Value(t, cleared.LastError).Equal("")
		gt.Bool(t, cleared.AutoSyncEnabled).False()
	})

	t.Run("TransitionStatus moves idle to syncing", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().Put(ctx, &model.Connection{OrgID: orgID, InstallationID: 1})
		gt.NoError(t, err).Required()

		updated, err := repo.Connection().TransitionStatus(ctx, orgID,
			[]types.SyncStatus{types.SyncStatusIdle, types.SyncStatusSuccess, types.SyncStatusError},
			types.SyncStatusSyncing, "")
		gt.NoError(t, err).Required()
		gt.Value(t, updated.SyncStatus).Equal(types.SyncStatusSyncing)
	})

	t.Run("TransitionStatus rejects concurrent claim", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().Put(ctx, &model.Connection{OrgID: orgID, InstallationID: 1})
		gt.NoError(t, err).Required()

		startable := []types.SyncStatus{types.SyncStatusIdle, types.SyncStatusSuccess, types.SyncStatusError}

		_, err = repo.Connection().TransitionStatus(ctx, orgID, startable, types.SyncStatusSyncing, "")
		gt.NoError(t, err).Required()

		// Second claim must lose: the stored status is now syncing
		_, err = repo.Connection().TransitionStatus(ctx, orgID, startable, types.SyncStatusSyncing, "")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrStatusConflict)).True()

		current, err := repo.Connection().Get(ctx, orgID)
		gt.NoError(t, err).Required()
		gt.Value(t, current.SyncStatus).Equal(types.SyncStatusSyncing)
	})

	t.Run("TransitionStatus to success clears last error and stamps LastSyncedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().Put(ctx, &model.Connection{
			OrgID:          orgID,
			InstallationID: 1,
			SyncStatus:     types.SyncStatusSyncing,
			LastError:      "previous failure",
		})
		gt.NoError(t, err).Required()

		updated, err := repo.Connection().TransitionStatus(ctx, orgID,
			[]types.SyncStatus{types.SyncStatusSyncing}, types.SyncStatusSuccess, "")
		gt.NoError(t, err).Required()

		gt.Value(t, updated.SyncStatus).Equal(types.SyncStatusSuccess)
		gt.Value(t, updated.LastError).Equal("")
		gt.Bool(t, updated.LastSyncedAt.IsZero()).False()
	})

	t.Run("TransitionStatus to error records message", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().Put(ctx, &model.Connection{
			OrgID:          orgID,
			InstallationID: 1,
			SyncStatus:     types.SyncStatusSyncing,
		})
		gt.NoError(t, err).Required()

		updated, err := repo.Connection().TransitionStatus(ctx, orgID,
			[]types.SyncStatus{types.SyncStatusSyncing}, types.SyncStatusError, "GitHub API rate limit exceeded")
		gt.NoError(t, err).Required()

		gt.Value(t, updated.SyncStatus).Equal(types.SyncStatusError)
		gt.Value(t, updated.LastError).Equal("GitHub API rate limit exceeded")
	})

	t.Run("TransitionStatus treats empty stored status as idle", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().Put(ctx, &model.Connection{OrgID: orgID, InstallationID: 1, SyncStatus: ""})
		gt.NoError(t, err).Required()

		updated, err := repo.Connection().TransitionStatus(ctx, orgID,
			[]types.SyncStatus{types.SyncStatusIdle}, types.SyncStatusSyncing, "")
		gt.NoError(t, err).Required()
		gt.Value(t, updated.SyncStatus).Equal(types.SyncStatusSyncing)
	})

	t.Run("TransitionStatus returns ErrNotFound for unknown org", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Connection().TransitionStatus(ctx, "no-such-org",
			[]types.SyncStatus{types.SyncStatusIdle}, types.SyncStatusSyncing, "")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})
}

func TestConnectionRepository_Memory(t *testing.T) {
	runConnectionRepositoryTest(t, newMemoryRepository)
}

func TestConnectionRepository_Firestore(t *testing.T) {
	runConnectionRepositoryTest(t, newFirestoreRepository)
}
