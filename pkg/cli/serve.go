package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/shiplog-dev/shiplog/pkg/cli/config"
	httpctrl "github.com/shiplog-dev/shiplog/pkg/controller/http"
	"github.com/shiplog-dev/shiplog/pkg/service/worker"
	"github.com/shiplog-dev/shiplog/pkg/usecase"
	"github.com/shiplog-dev/shiplog/pkg/utils/logging"
	"github.com/shiplog-dev/shiplog/pkg/utils/safe"
)

func cmdServe() *cli.Command {
	var addr string
	var autoSyncInterval time.Duration
	var githubCfg config.GitHub
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("SHIPLOG_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "auto-sync-interval",
			Usage:       "Interval between unattended release sync cycles",
			Value:       15 * time.Minute,
			Sources:     cli.EnvVars("SHIPLOG_AUTO_SYNC_INTERVAL"),
			Destination: &autoSyncInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			// Initialize GitHub service if the app credentials are provided
			githubSvc, err := githubCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize GitHub service")
			}
			ucOpts := []usecase.Option{}
			if githubSvc != nil {
				ucOpts = append(ucOpts, usecase.WithGitHub(githubSvc))
				logging.Default().LogAttrs(ctx, slog.LevelInfo,
					"GitHub App integration enabled", githubCfg.LogAttrs()...)
			} else {
				logging.Default().Info("GitHub App credentials not configured, sync features will be disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			// Start auto sync worker when sync is possible
			var autoSyncWorker *worker.AutoSyncWorker
			if githubSvc != nil {
				autoSyncWorker = worker.NewAutoSyncWorker(repo, uc.Sync, autoSyncInterval)
				if err := autoSyncWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start auto sync worker")
				}
			}

			// Create HTTP server
			httpOpts := []httpctrl.Options{}
			if githubCfg.WebhookSecret() != "" {
				httpOpts = append(httpOpts, httpctrl.WithWebhookSecret(githubCfg.WebhookSecret()))
				logging.Default().Info("GitHub webhook handler enabled")
			}

			httpHandler, err := httpctrl.New(uc, httpOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop auto sync worker first
				if autoSyncWorker != nil {
					autoSyncWorker.Stop()
				}

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
