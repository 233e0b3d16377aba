package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Connection() ConnectionRepository
	Release() ReleaseRepository
	SyncedRelease() SyncedReleaseRepository

	Close() error
}
