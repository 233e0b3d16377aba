package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shiplog-dev/shiplog/pkg/service/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds configuration for the GitHub App integration
type GitHub struct {
	appID         string
	privateKey    string
	webhookSecret string
	baseURL       string
}

// Flags returns CLI flags for GitHub App configuration
func (g *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Sources:     cli.EnvVars("SHIPLOG_GITHUB_APP_ID"),
			Destination: &g.appID,
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App Private Key (PEM string or file path)",
			Sources:     cli.EnvVars("SHIPLOG_GITHUB_APP_PRIVATE_KEY"),
			Destination: &g.privateKey,
		},
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "Secret for verifying GitHub webhook deliveries",
			Sources:     cli.EnvVars("SHIPLOG_GITHUB_WEBHOOK_SECRET"),
			Destination: &g.webhookSecret,
		},
		&cli.StringFlag{
			Name:        "github-api-base-url",
			Usage:       "GitHub API base URL (for GitHub Enterprise Server)",
			Sources:     cli.EnvVars("SHIPLOG_GITHUB_API_BASE_URL"),
			Destination: &g.baseURL,
		},
	}
}

// LogAttrs returns log attributes for the GitHub configuration (secrets hidden)
func (g *GitHub) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("app_id", g.appID),
		slog.Bool("private_key_set", g.privateKey != ""),
		slog.Bool("webhook_secret_set", g.webhookSecret != ""),
	}
}

// IsConfigured returns true if all required GitHub App flags are set
func (g *GitHub) IsConfigured() bool {
	return g.appID != "" && g.privateKey != ""
}

// WebhookSecret returns the webhook verification secret
func (g *GitHub) WebhookSecret() string {
	return g.webhookSecret
}

// Configure creates a new GitHub Service from the configured flags.
// Returns nil if not all flags are configured (GitHub features will be disabled).
func (g *GitHub) Configure() (github.Service, error) {
	if !g.IsConfigured() {
		return nil, nil
	}

	var opts []github.Option
	if g.baseURL != "" {
		opts = append(opts, github.WithBaseURL(g.baseURL))
	}

	svc, err := github.New(github.AppCredentials{
		AppID:      g.appID,
		PrivateKey: g.privateKey,
	}, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub service")
	}

	return svc, nil
}
