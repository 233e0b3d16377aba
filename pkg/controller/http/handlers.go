package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shiplog-dev/shiplog/pkg/domain/interfaces"
	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
	"github.com/shiplog-dev/shiplog/pkg/service/github"
	"github.com/shiplog-dev/shiplog/pkg/usecase"
	"github.com/shiplog-dev/shiplog/pkg/utils/errutil"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrAlreadyLinked),
		errors.Is(err, usecase.ErrReleaseAlreadyPublished):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrConnectionNotConfigured),
		errors.Is(err, usecase.ErrGitHubNotConfigured),
		errors.Is(err, model.ErrInvalidRepoName):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrNotFound), errors.Is(err, github.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, github.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, github.ErrUpstream), errors.Is(err, github.ErrTransport),
		errors.Is(err, github.ErrUpstreamAuth):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data) //nolint:errcheck // header already committed
}

func orgIDFromRequest(r *http.Request) types.OrgID {
	return types.OrgID(chi.URLParam(r, "orgID"))
}

type connectionResponse struct {
	OrgID           string `json:"org_id"`
	InstallationID  int64  `json:"installation_id,omitempty"`
	RepoFullName    string `json:"repo_full_name,omitempty"`
	SyncStatus      string `json:"sync_status"`
	LastError       string `json:"last_error,omitempty"`
	AutoSyncEnabled bool   `json:"auto_sync_enabled"`
	LastSyncedAt    string `json:"last_synced_at,omitempty"`
}

func toConnectionResponse(conn *model.Connection) *connectionResponse {
	resp := &connectionResponse{
		OrgID:           string(conn.OrgID),
		InstallationID:  conn.InstallationID,
		RepoFullName:    conn.RepoFullName,
		SyncStatus:      conn.SyncStatus.String(),
		LastError:       conn.LastError,
		AutoSyncEnabled: conn.AutoSyncEnabled,
	}
	if !conn.LastSyncedAt.IsZero() {
		resp.LastSyncedAt = conn.LastSyncedAt.Format(time.RFC3339)
	}
	return resp
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.uc.Connection.GetStatus(r.Context(), orgIDFromRequest(r))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}
	respondJSON(w, toConnectionResponse(conn))
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InstallationID int64 `json:"installation_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	conn, err := s.uc.Connection.Connect(r.Context(), orgIDFromRequest(r), req.InstallationID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}
	respondJSON(w, toConnectionResponse(conn))
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Connection.Disconnect(r.Context(), orgIDFromRequest(r)); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectRepository(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Repository string `json:"repository"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	conn, err := s.uc.Connection.SelectRepository(r.Context(), orgIDFromRequest(r), req.Repository)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}
	respondJSON(w, toConnectionResponse(conn))
}

func (s *Server) handleToggleAutoSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	conn, err := s.uc.Connection.ToggleAutoSync(r.Context(), orgIDFromRequest(r), req.Enabled)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}
	respondJSON(w, toConnectionResponse(conn))
}

func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.uc.Sync.Trigger(r.Context(), orgIDFromRequest(r))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}

	respondJSON(w, map[string]any{
		"org_id":       result.OrgID,
		"repository":   result.RepoFullName,
		"synced_count": result.SyncedCount,
	})
}

func (s *Server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := s.uc.Connection.ListRepositories(r.Context(), orgIDFromRequest(r))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}
	respondJSON(w, map[string]any{"repositories": repos})
}

func (s *Server) handleListLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.uc.Connection.ListLabels(r.Context(), orgIDFromRequest(r))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}
	respondJSON(w, map[string]any{"labels": labels})
}

type syncedReleaseResponse struct {
	GitHubReleaseID string `json:"github_release_id"`
	TagName         string `json:"tag_name"`
	Name            string `json:"name"`
	Body            string `json:"body"`
	HTMLURL         string `json:"html_url"`
	IsDraft         bool   `json:"is_draft"`
	IsPrerelease    bool   `json:"is_prerelease"`
	PublishedAt     string `json:"published_at,omitempty"`
	SyncedAt        string `json:"synced_at"`
}

func (s *Server) handleListSyncedReleases(w http.ResponseWriter, r *http.Request) {
	releases, err := s.uc.Sync.ListSyncedReleases(r.Context(), orgIDFromRequest(r))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}

	resp := make([]*syncedReleaseResponse, len(releases))
	for i, release := range releases {
		resp[i] = &syncedReleaseResponse{
			GitHubReleaseID: release.GitHubReleaseID,
			TagName:         release.TagName,
			Name:            release.Name,
			Body:            release.Body,
			HTMLURL:         release.HTMLURL,
			IsDraft:         release.IsDraft,
			IsPrerelease:    release.IsPrerelease,
			SyncedAt:        release.SyncedAt.Format(time.RFC3339),
		}
		if release.PublishedAt != nil {
			resp[i].PublishedAt = release.PublishedAt.Format(time.RFC3339)
		}
	}
	respondJSON(w, map[string]any{"releases": resp})
}

type releaseResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Version         string `json:"version"`
	GitHubReleaseID string `json:"github_release_id,omitempty"`
	GitHubHTMLURL   string `json:"github_html_url,omitempty"`
}

func toReleaseResponse(release *model.Release) *releaseResponse {
	return &releaseResponse{
		ID:              string(release.ID),
		Title:           release.Title,
		Version:         release.Version,
		GitHubReleaseID: release.GitHubReleaseID,
		GitHubHTMLURL:   release.GitHubHTMLURL,
	}
}

func (s *Server) handleLinkRelease(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GitHubReleaseID string `json:"github_release_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	releaseID := types.ReleaseID(chi.URLParam(r, "releaseID"))
	release, err := s.uc.Sync.LinkRelease(r.Context(), orgIDFromRequest(r), releaseID, req.GitHubReleaseID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}
	respondJSON(w, toReleaseResponse(release))
}

func (s *Server) handlePublishRelease(w http.ResponseWriter, r *http.Request) {
	releaseID := types.ReleaseID(chi.URLParam(r, "releaseID"))
	release, err := s.uc.Sync.PublishRelease(r.Context(), orgIDFromRequest(r), releaseID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}
	respondJSON(w, toReleaseResponse(release))
}
