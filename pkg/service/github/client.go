package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
)

type client struct {
	minter  *TokenMinter
	baseURL *url.URL
}

// Option configures the client
type Option func(*client) error

// WithBaseURL points the client at a different API endpoint (tests)
func WithBaseURL(raw string) Option {
	return func(c *client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return goerr.Wrap(err, "invalid base URL", goerr.V("url", raw))
		}
		c.baseURL = u
		return nil
	}
}

// New creates a new GitHub Service using GitHub App authentication.
// creds.PrivateKey can be a PEM string or a file path to a PEM file.
func New(creds AppCredentials, opts ...Option) (Service, error) {
	minter, err := NewTokenMinter(creds)
	if err != nil {
		return nil, err
	}

	c := &client{minter: minter}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// rest builds a go-github client carrying the given bearer credential.
// Clients are throwaway; no delegated credential outlives one call chain.
func (c *client) rest(bearer string) *github.Client {
	gh := github.NewClient(nil).WithAuthToken(bearer)
	if c.baseURL != nil {
		gh.BaseURL = c.baseURL
	}
	return gh
}

// MintInstallationToken mints a fresh app assertion and exchanges it for an
// installation-scoped token. A new assertion is minted on every call.
func (c *client) MintInstallationToken(ctx context.Context, installationID int64) (*InstallationToken, error) {
	assertion, err := c.minter.Mint()
	if err != nil {
		return nil, err
	}

	tok, resp, err := c.rest(assertion).Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		wrapped := goerr.Wrap(ErrUpstreamAuth, "failed to create installation token",
			goerr.V("installation_id", installationID))
		if resp != nil {
			wrapped = goerr.Wrap(ErrUpstreamAuth, "failed to create installation token",
				goerr.V("installation_id", installationID),
				goerr.V("status", resp.StatusCode),
				goerr.V("body", err.Error()))
		}
		return nil, wrapped
	}

	return &InstallationToken{
		Token:     tok.GetToken(),
		ExpiresAt: tok.GetExpiresAt().Time,
	}, nil
}

// ListRepositories returns the repositories accessible to the installation token
func (c *client) ListRepositories(ctx context.Context, token string) ([]*Repository, error) {
	gh := c.rest(token)

	var repos []*Repository
	opt := &github.ListOptions{PerPage: 100}
	for {
		result, resp, err := gh.Apps.ListRepos(ctx, opt)
		if err != nil {
			return nil, wrapAPIError(err, resp, "failed to list installation repositories")
		}

		for _, r := range result.Repositories {
			repos = append(repos, &Repository{
				FullName:    r.GetFullName(),
				Owner:       r.GetOwner().GetLogin(),
				Name:        r.GetName(),
				Description: r.GetDescription(),
				Private:     r.GetPrivate(),
			})
		}

		if resp.NextPage == 0 {
			return repos, nil
		}
		opt.Page = resp.NextPage
	}
}

// ListLabels returns the labels of the repository
func (c *client) ListLabels(ctx context.Context, token, owner, repo string) ([]*Label, error) {
	gh := c.rest(token)

	var labels []*Label
	opt := &github.ListOptions{PerPage: 100}
	for {
		result, resp, err := gh.Issues.ListLabels(ctx, owner, repo, opt)
		if err != nil {
			return nil, wrapAPIError(err, resp, "failed to list labels",
				goerr.V("owner", owner), goerr.V("repo", repo))
		}

		for _, l := range result {
			labels = append(labels, &Label{
				Name:        l.GetName(),
				Color:       l.GetColor(),
				Description: l.GetDescription(),
			})
		}

		if resp.NextPage == 0 {
			return labels, nil
		}
		opt.Page = resp.NextPage
	}
}

// ListReleases returns all releases of the repository, following pagination
func (c *client) ListReleases(ctx context.Context, token, owner, repo string) ([]*Release, error) {
	gh := c.rest(token)

	var releases []*Release
	opt := &github.ListOptions{PerPage: 100}
	for {
		result, resp, err := gh.Repositories.ListReleases(ctx, owner, repo, opt)
		if err != nil {
			return nil, wrapAPIError(err, resp, "failed to list releases",
				goerr.V("owner", owner), goerr.V("repo", repo))
		}

		for _, r := range result {
			releases = append(releases, convertRelease(r))
		}

		if resp.NextPage == 0 {
			return releases, nil
		}
		opt.Page = resp.NextPage
	}
}

// CreateRelease creates a release on GitHub
func (c *client) CreateRelease(ctx context.Context, token, owner, repo string, params *NewRelease) (*Release, error) {
	gh := c.rest(token)

	created, resp, err := gh.Repositories.CreateRelease(ctx, owner, repo, &github.RepositoryRelease{
		TagName:    github.Ptr(params.TagName),
		Name:       github.Ptr(params.Name),
		Body:       github.Ptr(params.Body),
		Draft:      github.Ptr(params.Draft),
		Prerelease: github.Ptr(params.Prerelease),
	})
	if err != nil {
		return nil, wrapAPIError(err, resp, "failed to create release",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("tag", params.TagName))
	}

	return convertRelease(created), nil
}

func convertRelease(r *github.RepositoryRelease) *Release {
	release := &Release{
		ID:           strconv.FormatInt(r.GetID(), 10),
		TagName:      r.GetTagName(),
		Name:         r.GetName(),
		Body:         r.GetBody(),
		HTMLURL:      r.GetHTMLURL(),
		IsDraft:      r.GetDraft(),
		IsPrerelease: r.GetPrerelease(),
		CreatedAt:    r.GetCreatedAt().Time,
	}
	if r.PublishedAt != nil {
		t := r.PublishedAt.Time
		release.PublishedAt = &t
	}
	return release
}

// wrapAPIError maps an upstream failure onto the service error taxonomy so
// the orchestrator can distinguish user-actionable from transient failures.
func wrapAPIError(err error, resp *github.Response, msg string, values ...goerr.Option) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		values = append(values, goerr.V("reset", rateErr.Rate.Reset.Time))
		return goerr.Wrap(ErrRateLimited, msg, values...)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		if abuseErr.RetryAfter != nil {
			values = append(values, goerr.V("retry_after", *abuseErr.RetryAfter))
		}
		return goerr.Wrap(ErrRateLimited, msg, values...)
	}

	if resp == nil {
		return goerr.Wrap(ErrTransport, msg, values...)
	}

	values = append(values, goerr.V("status", resp.StatusCode))
	switch resp.StatusCode {
	case http.StatusNotFound:
		return goerr.Wrap(ErrNotFound, msg, values...)
	case http.StatusTooManyRequests:
		return goerr.Wrap(ErrRateLimited, msg, values...)
	case http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return goerr.Wrap(ErrRateLimited, msg, values...)
		}
		return goerr.Wrap(ErrUpstream, msg, values...)
	default:
		return goerr.Wrap(ErrUpstream, msg, values...)
	}
}
