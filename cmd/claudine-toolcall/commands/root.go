package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/claudine-toolcall/internal/app"
	"github.com/florianilch/claudine-toolcall/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	return newRootCommand(version, commit, os.Stdout).Run(ctx, args)
}

func newRootCommand(version, commit string, stdout io.Writer) *cli.Command {
	var shutdown func(context.Context) error

	return &cli.Command{
		Name:      "claudine-toolcall",
		Usage:     "Drive Claude through bash tool calls",
		Version:   fmt.Sprintf("%s (%s)", version, commit),
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
				Sources: cli.EnvVars(app.EnvPrefix + "CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "export logs via OpenTelemetry (none|stdout|otlp-http|otlp-grpc)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return ctx, fmt.Errorf("failed to load config: %w", err)
			}

			var level slog.Level
			if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
				return ctx, err
			}

			shutdown, err = observability.Instrument(ctx, observability.Options{
				Level:    level,
				Format:   cfg.Log.Format,
				Exporter: cfg.Log.Exporter,
				Endpoint: cfg.Log.Endpoint,
			})
			if err != nil {
				return ctx, fmt.Errorf("failed to set up observability layer: %w", err)
			}
			return ctx, nil
		},
		After: func(ctx context.Context, _ *cli.Command) error {
			if shutdown == nil {
				return nil
			}
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.ShutdownTimeout)
			defer cancel()
			return shutdown(shutdownCtx)
		},
		Commands: []*cli.Command{
			queryCommand(),
			observeCommand(),
			credentialsCommand(),
		},
	}
}

// loadConfig layers explicitly set global flags over file and environment configuration.
func loadConfig(cmd *cli.Command) (*app.Config, error) {
	overrides := map[string]any{}
	for flag, key := range map[string]string{
		"log-level":    "log.level",
		"log-format":   "log.format",
		"log-exporter": "log.exporter",
	} {
		if cmd.IsSet(flag) {
			overrides[key] = cmd.String(flag)
		}
	}
	return app.Load(cmd.String("config"), overrides, os.Environ)
}
