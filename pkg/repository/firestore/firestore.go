package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
)

type Firestore struct {
	client        *firestore.Client
	connection    *connectionRepository
	release       *releaseRepository
	syncedRelease *syncedReleaseRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.connection.collectionPrefix = prefix
		f.release.collectionPrefix = prefix
		f.syncedRelease.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}

	f := &Firestore{
		client:        client,
		connection:    newConnectionRepository(client),
		release:       newReleaseRepository(client),
		syncedRelease: newSyncedReleaseRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Connection() interfaces.ConnectionRepository {
	return f.connection
}

func (f *Firestore) Release() interfaces.ReleaseRepository {
	return f.release
}

func (f *Firestore) SyncedRelease() interfaces.SyncedReleaseRepository {
	return f.syncedRelease
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
