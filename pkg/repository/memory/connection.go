package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
)

type connectionRepository struct {
	mu          sync.RWMutex
	connections map[types.OrgID]*model.Connection
}

func newConnectionRepository() *connectionRepository {
	return &connectionRepository{
		connections: make(map[types.OrgID]*model.Connection),
	}
}

// copyConnection creates a deep copy of a connection
func copyConnection(conn *model.Connection) *model.Connection {
	copied := *conn
	return &copied
}

func (r *connectionRepository) Get(ctx context.Context, orgID types.OrgID) (*model.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.connections[orgID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "connection not found", goerr.V("org_id", orgID))
	}

	return copyConnection(conn), nil
}

func (r *connectionRepository) List(ctx context.Context) ([]*model.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*model.Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		conns = append(conns, copyConnection(conn))
	}

	return conns, nil
}

func (r *connectionRepository) Put(ctx context.Context, conn *model.Connection) (*model.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyConnection(conn)
	created.SyncStatus = created.SyncStatus.Normalize()
	if existing, exists := r.connections[conn.OrgID]; exists {
		created.CreatedAt = existing.CreatedAt
	} else {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	r.connections[created.OrgID] = created
	return copyConnection(created), nil
}

func (r *connectionRepository) SetRepository(ctx context.Context, orgID types.OrgID, repoFullName string) (*model.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.connections[orgID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "connection not found", goerr.V("org_id", orgID))
	}

	updated := copyConnection(existing)
	updated.RepoFullName = repoFullName
	updated.UpdatedAt = time.Now().UTC()

	r.connections[orgID] = updated
	return copyConnection(updated), nil
}

func (r *connectionRepository) SetAutoSync(ctx context.Context, orgID types.OrgID, enabled bool) (*model.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.connections[orgID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "connection not found", goerr.V("org_id", orgID))
	}

	updated := copyConnection(existing)
	updated.AutoSyncEnabled = enabled
	updated.UpdatedAt = time.Now().UTC()

	r.connections[orgID] = updated
	return copyConnection(updated), nil
}

func (r *connectionRepository) Clear(ctx context.Context, orgID types.OrgID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.connections[orgID]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "connection not found", goerr.V("org_id", orgID))
	}

	updated := copyConnection(existing)
	updated.InstallationID = 0
	updated.RepoFullName = ""
	updated.SyncStatus = types.SyncStatusIdle
	updated.LastError = ""
	updated.AutoSyncEnabled = false
	updated.UpdatedAt = time.Now().UTC()

	r.connections[orgID] = updated
	return nil
}

func (r *connectionRepository) TransitionStatus(ctx context.Context, orgID types.OrgID, from []types.SyncStatus, to types.SyncStatus, lastErr string) (*model.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.connections[orgID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "connection not found", goerr.V("org_id", orgID))
	}

	current := existing.SyncStatus.Normalize()
	if !slices.Contains(from, current) {
		return nil, goerr.Wrap(interfaces.ErrStatusConflict, "unexpected sync status",
			goerr.V("org_id", orgID), goerr.V("current", current), goerr.V("expected", from))
	}

	now := time.Now().UTC()
	updated := copyConnection(existing)
	updated.SyncStatus = to
	updated.UpdatedAt = now
	switch to {
	case types.SyncStatusSuccess:
		updated.LastError = ""
		updated.LastSyncedAt = now
	case types.SyncStatusError:
		updated.LastError = lastErr
	default:
		updated.LastError = existing.LastError
	}

	r.connections[orgID] = updated
	return copyConnection(updated), nil
}
