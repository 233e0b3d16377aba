package firestore

import (
	"context"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type connectionDocument struct {
	OrgID           string    `firestore:"org_id"`
	InstallationID  int64     `firestore:"installation_id"`
	RepoFullName    string    `firestore:"repo_full_name"`
	SyncStatus      string    `firestore:"sync_status"`
	LastError       string    `firestore:"last_error"`
	AutoSyncEnabled bool      `firestore:"auto_sync_enabled"`
	LastSyncedAt    time.Time `firestore:"last_synced_at"`
	CreatedAt       time.Time `firestore:"created_at"`
	UpdatedAt       time.Time `firestore:"updated_at"`
}

type connectionRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newConnectionRepository(client *firestore.Client) *connectionRepository {
	return &connectionRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *connectionRepository) connectionsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_connections"
	}
	return "connections"
}

func connectionToDocument(conn *model.Connection) *connectionDocument {
	return &connectionDocument{
		OrgID:           string(conn.OrgID),
		InstallationID:  conn.InstallationID,
		RepoFullName:    conn.RepoFullName,
		SyncStatus:      string(conn.SyncStatus),
		LastError:       conn.LastError,
		AutoSyncEnabled: conn.AutoSyncEnabled,
		LastSyncedAt:    conn.LastSyncedAt,
		CreatedAt:       conn.CreatedAt,
		UpdatedAt:       conn.UpdatedAt,
	}
}

func connectionToModel(doc *connectionDocument) *model.Connection {
	return &model.Connection{
		OrgID:           types.OrgID(doc.OrgID),
		InstallationID:  doc.InstallationID,
		RepoFullName:    doc.RepoFullName,
		SyncStatus:      types.SyncStatus(doc.SyncStatus).Normalize(),
		LastError:       doc.LastError,
		AutoSyncEnabled: doc.AutoSyncEnabled,
		LastSyncedAt:    doc.LastSyncedAt,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}

func (r *connectionRepository) Get(ctx context.Context, orgID types.OrgID) (*model.Connection, error) {
	docRef := r.client.Collection(r.connectionsCollection()).Doc(string(orgID))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "connection not found", goerr.V("org_id", orgID))
		}
		return nil, goerr.Wrap(err, "failed to get connection", goerr.V("org_id", orgID))
	}

	var connDoc connectionDocument
	if err := doc.DataTo(&connDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal connection", goerr.V("org_id", orgID))
	}

	return connectionToModel(&connDoc), nil
}

func (r *connectionRepository) List(ctx context.Context) ([]*model.Connection, error) {
	iter := r.client.Collection(r.connectionsCollection()).Documents(ctx)
	defer iter.Stop()

	var conns []*model.Connection
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate connections")
		}

		var connDoc connectionDocument
		if err := doc.DataTo(&connDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal connection")
		}

		conns = append(conns, connectionToModel(&connDoc))
	}

	return conns, nil
}

func (r *connectionRepository) Put(ctx context.Context, conn *model.Connection) (*model.Connection, error) {
	now := time.Now().UTC()
	stored := *conn
	stored.SyncStatus = stored.SyncStatus.Normalize()
	stored.UpdatedAt = now

	docRef := r.client.Collection(r.connectionsCollection()).Doc(string(conn.OrgID))
	if existing, err := docRef.Get(ctx); err == nil {
		var existingDoc connectionDocument
		if err := existing.DataTo(&existingDoc); err == nil {
			stored.CreatedAt = existingDoc.CreatedAt
		}
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}

	doc := connectionToDocument(&stored)
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to put connection", goerr.V("org_id", conn.OrgID))
	}

	return connectionToModel(doc), nil
}

func (r *connectionRepository) SetRepository(ctx context.Context, orgID types.OrgID, repoFullName string) (*model.Connection, error) {
	return r.patch(ctx, orgID, func(doc *connectionDocument) {
		doc.RepoFullName = repoFullName
	})
}

func (r *connectionRepository) SetAutoSync(ctx context.Context, orgID types.OrgID, enabled bool) (*model.Connection, error) {
	return r.patch(ctx, orgID, func(doc *connectionDocument) {
		doc.AutoSyncEnabled = enabled
	})
}

func (r *connectionRepository) Clear(ctx context.Context, orgID types.OrgID) error {
	_, err := r.patch(ctx, orgID, func(doc *connectionDocument) {
		doc.InstallationID = 0
		doc.RepoFullName = ""
		doc.SyncStatus = string(types.SyncStatusIdle)
		doc.LastError = ""
		doc.AutoSyncEnabled = false
	})
	return err
}

// patch applies a mutation to the stored document inside a transaction
func (r *connectionRepository) patch(ctx context.Context, orgID types.OrgID, mutate func(*connectionDocument)) (*model.Connection, error) {
	docRef := r.client.Collection(r.connectionsCollection()).Doc(string(orgID))

	var result *connectionDocument
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "connection not found", goerr.V("org_id", orgID))
			}
			return goerr.Wrap(err, "failed to get connection", goerr.V("org_id", orgID))
		}

		var connDoc connectionDocument
		if err := doc.DataTo(&connDoc); err != nil {
			return goerr.Wrap(err, "failed to unmarshal connection", goerr.V("org_id", orgID))
		}

		mutate(&connDoc)
		connDoc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(docRef, &connDoc); err != nil {
			return goerr.Wrap(err, "failed to update connection", goerr.V("org_id", orgID))
		}

		result = &connDoc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return connectionToModel(result), nil
}

// TransitionStatus performs a compare-and-swap on the sync status. The
// transaction re-reads the stored status so two workers cannot both pass the
// idle check and start concurrent syncs.
func (r *connectionRepository) TransitionStatus(ctx context.Context, orgID types.OrgID, from []types.SyncStatus, to types.SyncStatus, lastErr string) (*model.Connection, error) {
	docRef := r.client.Collection(r.connectionsCollection()).Doc(string(orgID))

	var result *connectionDocument
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "connection not found", goerr.V("org_id", orgID))
			}
			return goerr.Wrap(err, "failed to get connection", goerr.V("org_id", orgID))
		}

		var connDoc connectionDocument
		if err := doc.DataTo(&connDoc); err != nil {
			return goerr.Wrap(err, "failed to unmarshal connection", goerr.V("org_id", orgID))
		}

		current := types.SyncStatus(connDoc.SyncStatus).Normalize()
		if !slices.Contains(from, current) {
			return goerr.Wrap(interfaces.ErrStatusConflict, "unexpected sync status",
				goerr.V("org_id", orgID), goerr.V("current", current), goerr.V("expected", from))
		}

		now := time.Now().UTC()
		connDoc.SyncStatus = string(to)
		connDoc.UpdatedAt = now
		switch to {
		case types.SyncStatusSuccess:
			connDoc.LastError = ""
			connDoc.LastSyncedAt = now
		case types.SyncStatusError:
			connDoc.LastError = lastErr
		}

		if err := tx.Set(docRef, &connDoc); err != nil {
			return goerr.Wrap(err, "failed to update connection", goerr.V("org_id", orgID))
		}

		result = &connDoc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return connectionToModel(result), nil
}
