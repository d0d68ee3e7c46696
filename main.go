package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"ory-kratos-login/app"
	"ory-kratos-login/config"
	"ory-kratos-login/delivery"
)

func main() {
	cliApp := &cli.App{
		Name:  "kratos-login",
		Usage: "Localized sign-in front-end for Ory Kratos",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"KRATOS_LOGIN_LOGGER_LEVEL"},
				Usage:   "Set logging level",
				Value:   "info",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Value:   false,
				EnvVars: []string{"KRATOS_LOGIN_DEBUG"},
				Usage:   "Toggle debug mode",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Action: serve,
			},
		},
		DefaultCommand: "serve",
	}

	cliApp.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}

		if !ctx.Bool("debug") {
			slog.ErrorContext(ctx.Context, err.Error())
		} else {
			slog.ErrorContext(ctx.Context, fmt.Sprintf("%+v", err))
		}
	}

	if err := cliApp.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conf, err := config.Parse()
	if err != nil {
		return errors.Wrap(err, "could not parse config")
	}

	var hub *sentry.Hub
	if conf.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         conf.Sentry.DSN,
			Environment: conf.Sentry.Environment,
		}); err != nil {
			return errors.Wrap(err, "could not initialize sentry")
		}
		defer sentry.Flush(2 * time.Second)
		hub = sentry.CurrentHub()
	}

	level := conf.Logger.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}

	logger := slog.New(app.WithSentry(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:     parseLevel(level),
			AddSource: true,
		}),
		hub,
	))

	slog.SetDefault(logger)

	// Centralize template parsing at startup for efficiency.
	delivery.ParseAllTemplates()

	application, err := app.New(ctx, conf, logger)
	if err != nil {
		return errors.Wrap(err, "could not initialize application")
	}

	return application.Start(ctx)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
