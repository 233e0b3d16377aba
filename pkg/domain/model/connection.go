package model

import (
	"time"

	"github.com/shiplog-dev/shiplog/pkg/domain/types"
)

// Connection represents the GitHub App link state of one organization.
// There is at most one Connection per organization; its SyncStatus field is
// the only coordination state shared between concurrent sync triggers.
type Connection struct {
	OrgID           types.OrgID
	InstallationID  int64
	RepoFullName    string // "owner/repo", empty until a repository is selected
	SyncStatus      types.SyncStatus
	LastError       string // set only when SyncStatus is error
	AutoSyncEnabled bool
	LastSyncedAt    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Configured returns true if the connection can run a sync: the GitHub App
// installation completed and a repository has been selected.
func (c *Connection) Configured() bool {
	return c.InstallationID != 0 && c.RepoFullName != ""
}
