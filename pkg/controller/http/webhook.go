package http

import (
	"context"
	"net/http"

	gh "github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shiplog-dev/shiplog/pkg/domain/model"
	"github.com/shiplog-dev/shiplog/pkg/usecase"
	"github.com/shiplog-dev/shiplog/pkg/utils/async"
	"github.com/shiplog-dev/shiplog/pkg/utils/errutil"
	"github.com/shiplog-dev/shiplog/pkg/utils/logging"
)

// handleGitHubWebhook receives GitHub App event deliveries. The payload
// signature is verified before any parsing. Release events schedule a sync
// for the affected organization; the delivery is acknowledged immediately so
// GitHub does not retry while the sync runs.
func (s *Server) handleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := gh.ValidatePayload(r, []byte(s.webhookSecret))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "webhook signature verification failed"), http.StatusUnauthorized)
		return
	}

	event, err := gh.ParseWebHook(gh.WebHookType(r), payload)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to parse webhook payload"), http.StatusBadRequest)
		return
	}

	switch ev := event.(type) {
	case *gh.ReleaseEvent:
		s.onReleaseEvent(r.Context(), ev)
	case *gh.InstallationEvent:
		s.onInstallationEvent(r.Context(), ev)
	case *gh.PingEvent:
		// Delivery test; nothing to do
	default:
		logging.From(r.Context()).Debug("ignoring webhook event",
			"type", gh.WebHookType(r))
	}

	w.WriteHeader(http.StatusAccepted)
}

// onReleaseEvent schedules a sync for the organization whose installation
// produced the event. The sync re-reads all releases, so the event payload
// itself is only a signal; duplicate deliveries collapse into the sync
// status claim.
func (s *Server) onReleaseEvent(ctx context.Context, ev *gh.ReleaseEvent) {
	if ev.GetInstallation() == nil {
		return
	}
	installationID := ev.GetInstallation().GetID()

	conn, err := s.connectionByInstallation(ctx, installationID)
	if err != nil {
		logging.From(ctx).Warn("release event for unknown installation",
			"installation_id", installationID, "error", err)
		return
	}
	if !conn.AutoSyncEnabled {
		return
	}

	orgID := conn.OrgID
	async.Dispatch(ctx, func(ctx context.Context) error {
		if _, err := s.uc.Sync.Trigger(ctx, orgID); err != nil {
			return goerr.Wrap(err, "webhook-triggered sync failed", goerr.V("org_id", orgID))
		}
		return nil
	})
}

// onInstallationEvent reacts to the app being uninstalled on GitHub's side
// by clearing the local connection.
func (s *Server) onInstallationEvent(ctx context.Context, ev *gh.InstallationEvent) {
	if ev.GetAction() != "deleted" || ev.GetInstallation() == nil {
		return
	}
	installationID := ev.GetInstallation().GetID()

	conn, err := s.connectionByInstallation(ctx, installationID)
	if err != nil {
		return
	}

	if err := s.uc.Connection.Disconnect(ctx, conn.OrgID); err != nil {
		logging.From(ctx).Error("failed to disconnect after app uninstall",
			"org_id", conn.OrgID, "error", err)
	}
}

func (s *Server) connectionByInstallation(ctx context.Context, installationID int64) (*model.Connection, error) {
	conns, err := s.uc.Connection.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, conn := range conns {
		if conn.InstallationID == installationID {
			return conn, nil
		}
	}
	return nil, goerr.Wrap(usecase.ErrConnectionNotConfigured, "no connection for installation",
		goerr.V("installation_id", installationID))
}
