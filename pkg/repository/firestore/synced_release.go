package firestore

import (
	"context"
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

type syncedReleaseDocument struct {
	OrgID           string     `firestore:"org_id"`
	GitHubReleaseID string     `firestore:"github_release_id"`
	TagName         string     `firestore:"tag_name"`
	Name            string     `firestore:"name"`
	Body            string     `firestore:"body"`
	HTMLURL         string     `firestore:"html_url"`
	IsDraft         bool       `firestore:"is_draft"`
	IsPrerelease    bool       `firestore:"is_prerelease"`
	PublishedAt     *time.Time `firestore:"published_at"`
	CreatedAt       time.Time  `firestore:"created_at"`
	SyncedAt        time.Time  `firestore:"synced_at"`
}

type syncedReleaseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newSyncedReleaseRepository(client *firestore.Client) *syncedReleaseRepository {
	return &syncedReleaseRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *syncedReleaseRepository) syncedReleasesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_synced_github_releases"
	}
	return "synced_github_releases"
}

// docID is the composite natural key; Set on the same id makes Upsert
// overwrite in place instead of duplicating.
func (r *syncedReleaseRepository) docID(orgID types.OrgID, githubReleaseID string) string {
	return string(orgID) + ":" + githubReleaseID
}

func syncedReleaseToDocument(release *model.SyncedGitHubRelease) *syncedReleaseDocument {
	return &syncedReleaseDocument{
		OrgID:           string(release.OrgID),
		GitHubReleaseID: release.GitHubReleaseID,
		TagName:         release.TagName,
		Name:            release.Name,
		Body:            release.Body,
		HTMLURL:         release.HTMLURL,
		IsDraft:         release.IsDraft,
		IsPrerelease:    release.IsPrerelease,
		PublishedAt:     release.PublishedAt,
		CreatedAt:       release.CreatedAt,
		SyncedAt:        release.SyncedAt,
	}
}

func syncedReleaseToModel(doc *syncedReleaseDocument) *model.SyncedGitHubRelease {
	return &model.SyncedGitHubRelease{
		OrgID:           types.OrgID(doc.OrgID),
		GitHubReleaseID: doc.GitHubReleaseID,
		TagName:         doc.TagName,
		Name:            doc.Name,
		Body:            doc.Body,
		HTMLURL:         doc.HTMLURL,
		IsDraft:         doc.IsDraft,
		IsPrerelease:    doc.IsPrerelease,
		PublishedAt:     doc.PublishedAt,
		CreatedAt:       doc.CreatedAt,
		SyncedAt:        doc.SyncedAt,
	}
}

func (r *syncedReleaseRepository) Upsert(ctx context.Context, release *model.SyncedGitHubRelease) (*model.SyncedGitHubRelease, error) {
	stored := *release
	if stored.SyncedAt.IsZero() {
		stored.SyncedAt = time.Now().UTC()
	}

	doc := syncedReleaseToDocument(&stored)
	docRef := r.client.Collection(r.syncedReleasesCollection()).Doc(r.docID(stored.OrgID, stored.GitHubReleaseID))
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to upsert synced release",
			goerr.V("org_id", stored.OrgID), goerr.V("github_release_id", stored.GitHubReleaseID))
	}

	return syncedReleaseToModel(doc), nil
}

func (r *syncedReleaseRepository) Get(ctx context.Context, orgID types.OrgID, githubReleaseID string) (*model.SyncedGitHubRelease, error) {
	docRef := r.client.Collection(r.syncedReleasesCollection()).Doc(r.docID(orgID, githubReleaseID))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "synced release not found",
				goerr.V("org_id", orgID), goerr.V("github_release_id", githubReleaseID))
		}
		return nil, goerr.Wrap(err, "failed to get synced release", goerr.V("github_release_id", githubReleaseID))
	}

	var relDoc syncedReleaseDocument
	if err := doc.DataTo(&relDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal synced release")
	}

	return syncedReleaseToModel(&relDoc), nil
}

func (r *syncedReleaseRepository) List(ctx context.Context, orgID types.OrgID) ([]*model.SyncedGitHubRelease, error) {
	iter := r.client.Collection(r.syncedReleasesCollection()).
		Where("org_id", "==", string(orgID)).
		Documents(ctx)
	defer iter.Stop()

	var releases []*model.SyncedGitHubRelease
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate synced releases", goerr.V("org_id", orgID))
		}

		var relDoc syncedReleaseDocument
		if err := doc.DataTo(&relDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal synced release")
		}

		releases = append(releases, syncedReleaseToModel(&relDoc))
	}

	return releases, nil
}
