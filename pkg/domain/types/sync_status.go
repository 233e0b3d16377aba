package types

import "fmt"

// SyncStatus represents the state of a GitHub release sync for one organization
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusError   SyncStatus = "error"
)

// AllSyncStatuses returns all valid sync statuses
func AllSyncStatuses() []SyncStatus {
	return []SyncStatus{
		SyncStatusIdle,
		SyncStatusSyncing,
		SyncStatusSuccess,
		SyncStatusError,
	}
}

// IsValid checks if the sync status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusIdle,
		SyncStatusSyncing,
		SyncStatusSuccess,
		SyncStatusError:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as SyncStatusIdle.
func (s SyncStatus) Normalize() SyncStatus {
	if s == "" {
		return SyncStatusIdle
	}
	return s
}

// String returns the string representation of the sync status
func (s SyncStatus) String() string {
	return string(s)
}

// ParseSyncStatus parses a string into a SyncStatus
func ParseSyncStatus(s string) (SyncStatus, error) {
	status := SyncStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid sync status: %s", s)
	}
	return status, nil
}
