package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shiplog-dev/shiplog/pkg/usecase"
	"github.com/shiplog-dev/shiplog/pkg/utils/logging"
	"github.com/shiplog-dev/shiplog/pkg/utils/safe"
)

type Server struct {
	router        *chi.Mux
	uc            *usecase.UseCases
	webhookSecret string
}

type Options func(*Server)

// WithWebhookSecret enables the GitHub webhook endpoint. Deliveries are
// verified against this secret before parsing.
func WithWebhookSecret(secret string) Options {
	return func(s *Server) {
		s.webhookSecret = secret
	}
}

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/orgs/{orgID}", func(r chi.Router) {
		r.Route("/github", func(r chi.Router) {
			r.Get("/", s.handleGetStatus)
			r.Post("/connect", s.handleConnect)
			r.Delete("/", s.handleDisconnect)
			r.Post("/repository", s.handleSelectRepository)
			r.Post("/auto-sync", s.handleToggleAutoSync)
			r.Post("/sync", s.handleTriggerSync)
			r.Get("/repositories", s.handleListRepositories)
			r.Get("/labels", s.handleListLabels)
			r.Get("/releases", s.handleListSyncedReleases)
		})

		r.Route("/releases/{releaseID}", func(r chi.Router) {
			r.Post("/link", s.handleLinkRelease)
			r.Post("/publish", s.handlePublishRelease)
		})
	})

	// GitHub webhook endpoint - no session auth, uses signature verification
	if s.webhookSecret != "" {
		r.Post("/hooks/github", s.handleGitHubWebhook)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		safe.Write(r.Context(), w, []byte("OK"))
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
