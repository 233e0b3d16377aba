package config_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/shiplog-dev/shiplog/pkg/cli/config"
	"github.com/shiplog-dev/shiplog/pkg/service/github"
	"github.com/urfave/cli/v3"
)

func testPrivateKeyPEM(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	gt.NoError(t, err).Required()

	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

func configureGitHub(t *testing.T, args ...string) (github.Service, error) {
	t.Helper()

	var githubCfg config.GitHub
	var svc github.Service
	var cfgErr error

	cmd := &cli.Command{
		Name:  "test",
		Flags: githubCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, cfgErr = githubCfg.Configure()
			return nil
		},
	}

	err := cmd.Run(context.Background(), append([]string{"test"}, args...))
	gt.NoError(t, err).Required()

	return svc, cfgErr
}

func TestGitHubConfigure(t *testing.T) {
	t.Run("unconfigured returns nil service", func(t *testing.T) {
		svc, err := configureGitHub(t)
		gt.NoError(t, err).Required()
		gt.Value(t, svc).Nil()
	})

	t.Run("app id without key returns nil service", func(t *testing.T) {
		svc, err := configureGitHub(t, "--github-app-id", "12345")
		gt.NoError(t, err).Required()
		gt.Value(t, svc).Nil()
	})

	t.Run("full credentials build a service", func(t *testing.T) {
		svc, err := configureGitHub(t,
			"--github-app-id", "12345",
			"--github-app-private-key", testPrivateKeyPEM(t),
		)
		gt.NoError(t, err).Required()
		gt.Value(t, svc).NotNil()
	})

	t.Run("garbage key fails", func(t *testing.T) {
		_, err := configureGitHub(t,
			"--github-app-id", "12345",
			"--github-app-private-key", "not a pem",
		)
		gt.Error(t, err)
	})
}
