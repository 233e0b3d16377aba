package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
)

func TestSyncStatus_IsValid(t *testing.T) {
	t.Run("all defined statuses are valid", func(t *testing.T) {
		for _, s := range types.AllSyncStatuses() {
			gt.Bool(t, s.IsValid()).True()
		}
	})

	t.Run("unknown status is invalid", func(t *testing.T) {
		gt.Bool(t, types.SyncStatus("running").IsValid()).False()
		gt.Bool(t, types.SyncStatus("").IsValid()).False()
	})
}

func TestSyncStatus_Normalize(t *testing.T) {
	t.Run("empty becomes idle", func(t *testing.T) {
		gt.Value(t, types.SyncStatus("").Normalize()).Equal(types.SyncStatusIdle)
	})

	t.Run("non-empty is unchanged", func(t *testing.T) {
		gt.Value(t, types.SyncStatusError.Normalize()).Equal(types.SyncStatusError)
	})
}

func TestParseSyncStatus(t *testing.T) {
	t.Run("parses valid status", func(t *testing.T) {
		status, err := types.ParseSyncStatus("syncing")
		gt.NoError(t, err).Required()
		gt.Value(t, status).Equal(types.SyncStatusSyncing)
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		_, err := types.ParseSyncStatus("done")
		gt.Value(t, err).NotNil()
	})
}
