package interfaces

import (
	"context"

	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
)

// ConnectionRepository persists per-organization GitHub link state
type ConnectionRepository interface {
	// Get returns the connection for the organization, or ErrNotFound
	Get(ctx context.Context, orgID types.OrgID) (*model.Connection, error)

	// List returns all connections (used by the auto-sync worker)
	List(ctx context.Context) ([]*model.Connection, error)

	// Put creates or replaces the connection for conn.OrgID
	Put(ctx context.Context, conn *model.Connection) (*model.Connection, error)

	// SetRepository updates the selected repository without touching sync state
	SetRepository(ctx context.Context, orgID types.OrgID, repoFullName string) (*model.Connection, error)

	// SetAutoSync toggles unattended sync for the organization
	SetAutoSync(ctx context.Context, orgID types.OrgID, enabled bool) (*model.Connection, error)

	// Clear removes the installation and repository selection and resets the
	// status to idle. Historical synced releases are left untouched.
	Clear(ctx context.Context, orgID types.OrgID) error

	// TransitionStatus atomically moves the sync status from one of the given
	// prior states to the target state. The write succeeds only if the stored
	// status (after Normalize) is in from; otherwise ErrStatusConflict is
	// returned and nothing is mutated. Transitioning to success clears
	// LastError and stamps LastSyncedAt; transitioning to error records
	// lastErr.
	TransitionStatus(ctx context.Context, orgID types.OrgID, from []types.SyncStatus, to types.SyncStatus, lastErr string) (*model.Connection, error)
}
