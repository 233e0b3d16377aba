package memory

import (
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	connection    *connectionRepository
	release       *releaseRepository
	syncedRelease *syncedReleaseRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		connection:    newConnectionRepository(),
		release:       newReleaseRepository(),
		syncedRelease: newSyncedReleaseRepository(),
	}
}

func (m *Memory) Connection() interfaces.ConnectionRepository {
	return m.connection
}

func (m *Memory) Release() interfaces.ReleaseRepository {
	return m.release
}

func (m *Memory) SyncedRelease() interfaces.SyncedReleaseRepository {
	return m.syncedRelease
}

func (m *Memory) Close() error {
	return nil
}
