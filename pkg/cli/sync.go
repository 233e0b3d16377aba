package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/shiplog-dev/shiplog/pkg/cli/config"
	"github.com/shiplog-dev/shiplog/pkg/domain/types"
	"github.com/shiplog-dev/shiplog/pkg/usecase"
	"github.com/shiplog-dev/shiplog/pkg/utils/safe"
)

// cmdSync runs one sync for a single organization and exits. Useful for
// operators recovering a stuck organization or testing App credentials.
func cmdSync() *cli.Command {
	var orgID string
	var githubCfg config.GitHub
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "org-id",
			Usage:       "Organization ID to sync",
			Required:    true,
			Sources:     cli.EnvVars("SHIPLOG_ORG_ID"),
			Destination: &orgID,
		},
	}
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Run one release sync for an organization",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			githubSvc, err := githubCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize GitHub service")
			}
			if githubSvc == nil {
				return goerr.New("GitHub App credentials are required for sync")
			}

			uc := usecase.New(repo, usecase.WithGitHub(githubSvc))

			result, err := uc.Sync.Trigger(ctx, types.OrgID(orgID))
			if err != nil {
				color.Red("✗ sync failed: %v", err)
				return err
			}

			color.Green("✓ synced %d releases from %s", result.SyncedCount, result.RepoFullName)
			fmt.Printf("organization: %s\n", result.OrgID)
			return nil
		},
	}
}
