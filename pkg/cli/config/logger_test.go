package config_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/shiplog-dev/shiplog/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

// The startup log passes the config as a pointer; the LogValuer contract
// must hold for that form or the fields never render.
var _ slog.LogValuer = (*config.Logger)(nil)

func configureLogger(t *testing.T, args ...string) (func(), error) {
	t.Helper()

	var loggerCfg config.Logger
	var closer func()
	var cfgErr error

	cmd := &cli.Command{
		Name:  "test",
		Flags: loggerCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			closer, cfgErr = loggerCfg.Configure()
			return nil
		},
	}

	err := cmd.Run(context.Background(), append([]string{"test"}, args...))
	gt.NoError(t, err).Required()

	return closer, cfgErr
}

func TestLoggerConfigure(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		closer, err := configureLogger(t)
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("json format", func(t *testing.T) {
		closer, err := configureLogger(t, "--log-format", "json", "--log-level", "debug")
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("invalid level is rejected", func(t *testing.T) {
		_, err := configureLogger(t, "--log-level", "loud")
		gt.Error(t, err)
	})

	t.Run("invalid format is rejected", func(t *testing.T) {
		_, err := configureLogger(t, "--log-format", "xml")
		gt.Error(t, err)
	})
}

func TestLoggerLogValue(t *testing.T) {
	var loggerCfg config.Logger

	cmd := &cli.Command{
		Name:  "test",
		Flags: loggerCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return nil
		},
	}
	gt.NoError(t, cmd.Run(context.Background(), []string{"test", "--log-level", "debug"})).Required()

	v := loggerCfg.LogValue()
	gt.Value(t, v.Kind()).Equal(slog.KindGroup)

	attrs := v.Group()
	gt.Array(t, attrs).Length(3)
	gt.Value(t, attrs[0].Value.String()).Equal("debug")
}
