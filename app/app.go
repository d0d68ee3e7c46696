package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"ory-kratos-login/config"
	"ory-kratos-login/delivery"
	"ory-kratos-login/i18n"
	"ory-kratos-login/login"
	"ory-kratos-login/session"
)

// App holds the application's dependencies and state, like the router and Ory client.
type App struct {
	Router http.Handler

	address         string
	shutdownTimeout time.Duration

	sessions *session.Store
	views    *login.Registry
	bundle   *i18n.Bundle
	kratos   *KratosAuthenticator
	logger   *slog.Logger
}

// New creates a new App instance, configures dependencies, and sets up the router.
// Templates must have been parsed with delivery.ParseAllTemplates beforehand.
func New(ctx context.Context, conf *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sessions, err := session.NewStore(session.Config{
		Name:       conf.Session.Name,
		AuthKey:    conf.Session.AuthKey,
		EncryptKey: conf.Session.EncryptKey,
		MaxAge:     conf.Session.MaxAge,
		Secure:     conf.Session.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create session store")
	}

	bundle, err := i18n.LoadEmbedded(conf.Locale.Default, conf.Locale.Supported)
	if err != nil {
		return nil, errors.Wrap(err, "could not load translations")
	}

	kratosOpts := []KratosOption{WithKratosLogger(logger)}

	if conf.Kratos.TokenizeTemplate != "" {
		var verifier Verifier
		if conf.Kratos.JWKSURL != "" {
			verifier, err = NewJWTVerifier(ctx, conf.Kratos.JWKSURL, conf.Kratos.JWKSRefresh, logger)
			if err != nil {
				return nil, errors.Wrap(err, "could not create jwt verifier")
			}
		}
		kratosOpts = append(kratosOpts, WithTokenizer(conf.Kratos.TokenizeTemplate, verifier))
	}

	kratos := NewKratosAuthenticator(
		conf.Kratos.PublicURL,
		&http.Client{Timeout: conf.Kratos.Timeout},
		kratosOpts...,
	)

	views := login.NewRegistry(
		Instrument(kratos),
		conf.Login.MaxViews,
		conf.Login.ViewTTL,
		login.WithLogger(logger),
		login.WithRedirectDelay(conf.Login.RedirectDelay),
		login.WithRejectionReset(conf.Login.ResetOnReject),
	)

	app := &App{
		address:         conf.HTTP.Address,
		shutdownTimeout: conf.HTTP.ShutdownTimeout,
		sessions:        sessions,
		views:           views,
		bundle:          bundle,
		kratos:          kratos,
		logger:          logger,
	}

	app.Router = delivery.NewRouter(app, delivery.Options{
		Logger:     logger,
		LoginRate:  conf.HTTP.LoginRate,
		LoginBurst: conf.HTTP.LoginBurst,
	})

	return app, nil
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (a *App) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.address,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)

	go func() {
		a.logger.InfoContext(ctx, "server listening", slog.String("address", a.address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- errors.WithStack(err)
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.logger.InfoContext(ctx, "shutting down server")

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// SessionMiddleware loads the visitor session into the request context.
func (a *App) SessionMiddleware(next http.Handler) http.Handler {
	return a.sessions.Middleware(next)
}

// GetSessionFromContext is a helper function to safely retrieve the session
// from the request context. This can be used by any handler.
func (a *App) GetSessionFromContext(ctx context.Context) (*session.Data, bool) {
	return session.FromContext(ctx)
}

func (a *App) SaveSession(w http.ResponseWriter, r *http.Request, data *session.Data) error {
	return a.sessions.Save(w, r, data)
}

func (a *App) LoginViews() *login.Registry {
	return a.views
}

func (a *App) Translations() *i18n.Bundle {
	return a.bundle
}

func (a *App) Identity() delivery.IdentityProvider {
	return a.kratos
}
