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

type releaseDocument struct {
	ID              string     `firestore:"id"`
	OrgID           string     `firestore:"org_id"`
	Title           string     `firestore:"title"`
	Version         string     `firestore:"version"`
	Body            string     `firestore:"body"`
	PublishedAt     *time.Time `firestore:"published_at"`
	GitHubReleaseID string     `firestore:"github_release_id"`
	GitHubHTMLURL   string     `firestore:"github_html_url"`
	CreatedAt       time.Time  `firestore:"created_at"`
	UpdatedAt       time.Time  `firestore:"updated_at"`
}

type releaseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newReleaseRepository(client *firestore.Client) *releaseRepository {
	return &releaseRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *releaseRepository) releasesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_releases"
	}
	return "releases"
}

func releaseToDocument(release *model.Release) *releaseDocument {
	return &releaseDocument{
		ID:              string(release.ID),
		OrgID:           string(release.OrgID),
		Title:           release.Title,
		Version:         release.Version,
		Body:            release.Body,
		PublishedAt:     release.PublishedAt,
		GitHubReleaseID: release.GitHubReleaseID,
		GitHubHTMLURL:   release.GitHubHTMLURL,
		CreatedAt:       release.CreatedAt,
		UpdatedAt:       release.UpdatedAt,
	}
}

func releaseToModel(doc *releaseDocument) *model.Release {
	return &model.Release{
		ID:              types.ReleaseID(doc.ID),
		OrgID:           types.OrgID(doc.OrgID),
		Title:           doc.Title,
		Version:         doc.Version,
		Body:            doc.Body,
		PublishedAt:     doc.PublishedAt,
		GitHubReleaseID: doc.GitHubReleaseID,
		GitHubHTMLURL:   doc.GitHubHTMLURL,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}

func (r *releaseRepository) docID(orgID types.OrgID, id types.ReleaseID) string {
	return string(orgID) + ":" + string(id)
}

func (r *releaseRepository) Create(ctx context.Context, release *model.Release) (*model.Release, error) {
	now := time.Now().UTC()
	if release.ID == "" {
		release.ID = types.NewReleaseID()
	}
	release.CreatedAt = now
	release.UpdatedAt = now

	doc := releaseToDocument(release)

	docRef := r.client.Collection(r.releasesCollection()).Doc(r.docID(release.OrgID, release.ID))
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create release", goerr.V("release_id", release.ID))
	}

	return releaseToModel(doc), nil
}

func (r *releaseRepository) Get(ctx context.Context, orgID types.OrgID, id types.ReleaseID) (*model.Release, error) {
	docRef := r.client.Collection(r.releasesCollection()).Doc(r.docID(orgID, id))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "release not found",
				goerr.V("org_id", orgID), goerr.V("release_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get release", goerr.V("release_id", id))
	}

	var relDoc releaseDocument
	if err := doc.DataTo(&relDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal release", goerr.V("release_id", id))
	}

	return releaseToModel(&relDoc), nil
}

func (r *releaseRepository) List(ctx context.Context, orgID types.OrgID) ([]*model.Release, error) {
	iter := r.client.Collection(r.releasesCollection()).
		Where("org_id", "==", string(orgID)).
		Documents(ctx)
	defer iter.Stop()

	var releases []*model.Release
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate releases", goerr.V("org_id", orgID))
		}

		var relDoc releaseDocument
		if err := doc.DataTo(&relDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal release")
		}

		releases = append(releases, releaseToModel(&relDoc))
	}

	return releases, nil
}

// LinkGitHub patches the GitHub back-reference inside a transaction so a
// duplicate webhook delivery cannot produce a second link.
func (r *releaseRepository) LinkGitHub(ctx context.Context, orgID types.OrgID, id types.ReleaseID, githubReleaseID, htmlURL string) (*model.Release, error) {
	docRef := r.client.Collection(r.releasesCollection()).Doc(r.docID(orgID, id))

	var result *releaseDocument
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "release not found",
					goerr.V("org_id", orgID), goerr.V("release_id", id))
			}
			return goerr.Wrap(err, "failed to get release", goerr.V("release_id", id))
		}

		var relDoc releaseDocument
		if err := doc.DataTo(&relDoc); err != nil {
			return goerr.Wrap(err, "failed to unmarshal release", goerr.V("release_id", id))
		}

		if relDoc.GitHubReleaseID == githubReleaseID {
			result = &relDoc
			return nil
		}
		if relDoc.GitHubReleaseID != "" {
			return goerr.Wrap(interfaces.ErrAlreadyLinked, "release link is authoritative",
				goerr.V("release_id", id),
				goerr.V("linked", relDoc.GitHubReleaseID),
				goerr.V("requested", githubReleaseID))
		}

		relDoc.GitHubReleaseID = githubReleaseID
		relDoc.GitHubHTMLURL = htmlURL
		relDoc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(docRef, &relDoc); err != nil {
			return goerr.Wrap(err, "failed to link release", goerr.V("release_id", id))
		}

		result = &relDoc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return releaseToModel(result), nil
}

func (r *releaseRepository) FindByGitHubReleaseID(ctx context.Context, orgID types.OrgID, githubReleaseID string) (*model.Release, error) {
	iter := r.client.Collection(r.releasesCollection()).
		Where("org_id", "==", string(orgID)).
		Where("github_release_id", "==", githubReleaseID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "no release linked to GitHub release",
			goerr.V("org_id", orgID), goerr.V("github_release_id", githubReleaseID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query releases", goerr.V("org_id", orgID))
	}

	var relDoc releaseDocument
	if err := doc.DataTo(&relDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal release")
	}

	return releaseToModel(&relDoc), nil
}
