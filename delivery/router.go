package delivery

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloghttp "github.com/samber/slog-http"
)

type Options struct {
	Logger *slog.Logger
	// Login submissions allowed per second and per client IP.
	LoginRate  float64
	LoginBurst int
}

func NewRouter(deps AppDependencies, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LoginRate <= 0 {
		opts.LoginRate = 1
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}

	r := chi.NewRouter()

	h := newHTTPEndpoint(deps, opts.Logger)
	limiter := newIPRateLimiter(opts.LoginRate, opts.LoginBurst)

	// --- Global Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(sloghttp.New(opts.Logger))
	r.Use(middleware.Recoverer)

	// --- Static, health and metrics ---
	r.Handle("/static/*", staticHandler())
	r.Get("/healthz", h.healthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/animations/scroll", h.scrollAnimationHandler)

	pages := func(r chi.Router) {
		r.Get("/", h.homeHandler)
		r.Get("/error", h.errorHandler)

		r.Get("/login", h.loginHandler)
		r.With(limiter.Middleware).Post("/login", h.loginSubmitHandler)
		r.Get("/login/status", h.loginStatusHandler)
		r.Get("/login/language", h.languageHandler)
		r.Get("/logout", h.logoutHandler)
	}

	// --- Pages, default locale unprefixed ---
	r.Group(func(r chi.Router) {
		r.Use(deps.SessionMiddleware)
		pages(r)

		r.Route("/{locale}", func(r chi.Router) {
			r.Use(h.localeMiddleware)
			pages(r)
		})
	})

	return r
}
