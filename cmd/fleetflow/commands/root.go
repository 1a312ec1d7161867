package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/fleetflow-client/internal/app"
	"github.com/florianilch/fleetflow-client/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return newRootCommand().Run(ctx, args)
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "fleetflow",
		Usage: "FleetFlow operations client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Sources: cli.EnvVars(envPrefix + "CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otel-stdout|otlp-http|otlp-grpc)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "backend API base URL",
				Value: app.DefaultConfigAPIBaseURL,
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			registerCommand(),
			logoutCommand(),
			statusCommand(),
			dashboardCommand(),
			vehiclesCommand(),
			tripsCommand(),
			predictionsCommand(),
			serveCommand(),
		},
	}
}

// withApp loads configuration, sets up logging and restores the stored session before
// running fn.
func withApp(fn func(ctx context.Context, cmd *cli.Command, a *app.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) (err error) {
		cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Set up observability before creating app
		shutdown, err := observability.Instrument(ctx, cfg.LogLevel, string(cfg.LogFormat))
		if err != nil {
			return fmt.Errorf("failed to set up observability layer: %w", err)
		}
		defer func() {
			if shutdownErr := shutdown(context.WithoutCancel(ctx)); shutdownErr != nil && err == nil {
				err = fmt.Errorf("failed to flush logs: %w", shutdownErr)
			}
		}()

		application, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}
		application.Init(ctx)

		return fn(ctx, cmd, application)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the local gateway and keep the dashboard fresh",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "gateway--host",
				Usage: "gateway host",
				Value: app.DefaultConfigGatewayHost,
			},
			&cli.IntFlag{
				Name:  "gateway--port",
				Usage: "gateway port",
				Value: int(app.DefaultConfigGatewayPort),
			},
			&cli.DurationFlag{
				Name:  "dashboard--poll-interval",
				Usage: "dashboard refresh interval",
				Value: app.DefaultConfigDashboardPollPeriod,
			},
		},
		Action: withApp(serveAction),
	}
}

func serveAction(ctx context.Context, _ *cli.Command, a *app.App) error {
	slog.InfoContext(ctx, "starting")

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}
