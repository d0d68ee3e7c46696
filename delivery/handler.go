package delivery

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"

	"ory-kratos-login/animation"
	"ory-kratos-login/delivery/model"
	"ory-kratos-login/i18n"
	"ory-kratos-login/navigation"
)

type contextKey string

const localeContextKey contextKey = "locale"

// HTTPEndpoint now holds a reference to the core application struct.
type HTTPEndpoint struct {
	app      AppDependencies
	bundle   *i18n.Bundle
	props    map[string]i18n.Props
	decoder  *schema.Decoder
	variants string
	logger   *slog.Logger
}

func newHTTPEndpoint(deps AppDependencies, logger *slog.Logger) *HTTPEndpoint {
	bundle := deps.Translations()

	// Resolved once, like build-time page props.
	props := make(map[string]i18n.Props, len(bundle.Supported()))
	for _, l := range bundle.Supported() {
		props[l] = bundle.Props(l, "login", "common")
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	variants, err := json.Marshal(animation.ScrollAnimation().ResolveAll(nil))
	if err != nil {
		panic(err)
	}

	return &HTTPEndpoint{
		app:      deps,
		bundle:   bundle,
		props:    props,
		decoder:  decoder,
		variants: string(variants),
		logger:   logger,
	}
}

type pageData struct {
	Locale   string
	Props    i18n.Props
	Variants string
	ns       string
}

// T translates key in the page namespace, then in "common".
func (d pageData) T(key string) string {
	if v, ok := d.Props[d.ns][key]; ok && v != "" {
		return v
	}
	return d.Props.Get("common", key)
}

func (h *HTTPEndpoint) page(r *http.Request, ns string) pageData {
	locale := h.locale(r)
	return pageData{
		Locale:   locale,
		Props:    h.props[locale],
		Variants: h.variants,
		ns:       ns,
	}
}

type homePageData struct {
	pageData
	Identity *model.Identity
	LoginURL string
}

type errorPageData struct {
	pageData
	Error struct {
		ID     string
		Reason string
	}
}

// localeMiddleware validates the {locale} path segment and stores it in the context.
func (h *HTTPEndpoint) localeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := chi.URLParam(r, "locale")
		if !h.bundle.IsSupported(locale) {
			http.NotFound(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), localeContextKey, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *HTTPEndpoint) locale(r *http.Request) string {
	if l, ok := r.Context().Value(localeContextKey).(string); ok && l != "" {
		return l
	}
	return h.bundle.Default()
}

func (h *HTTPEndpoint) href(r *http.Request, loc navigation.Location) string {
	return navigation.Href(loc, h.locale(r), h.bundle.Default())
}

func (h *HTTPEndpoint) homeHandler(w http.ResponseWriter, r *http.Request) {
	// Unprefixed root: honour the browser language like the locale detection of the old front-end.
	if _, prefixed := r.Context().Value(localeContextKey).(string); !prefixed && r.URL.Path == "/" {
		if preferred := h.bundle.Match(r.Header.Get("Accept-Language")); preferred != h.bundle.Default() {
			http.Redirect(w, r, navigation.Href(navigation.Location{Path: "/", Locale: preferred}, "", h.bundle.Default()), http.StatusTemporaryRedirect)
			return
		}
	}

	data := homePageData{
		pageData: h.page(r, "common"),
		LoginURL: h.href(r, navigation.Location{Path: "/login"}),
	}

	if sess, ok := h.app.GetSessionFromContext(r.Context()); ok && sess.Token != "" {
		identity, err := h.app.Identity().WhoAmI(r.Context(), sess.Token)
		if err != nil {
			h.logger.WarnContext(r.Context(), "could not resolve identity", slog.Any("error", err))
		} else {
			data.Identity = identity
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.ExecuteTemplate(w, "home.html", data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to execute home template", slog.Any("error", err))
		http.Error(w, "Failed to render the page", http.StatusInternalServerError)
	}
}

func (h *HTTPEndpoint) errorHandler(w http.ResponseWriter, r *http.Request) {
	data := errorPageData{pageData: h.page(r, "common")}
	data.Error.ID = r.URL.Query().Get("id")
	data.Error.Reason = r.URL.Query().Get("reason")

	if data.Error.Reason == "" {
		data.Error.Reason = data.T("An unexpected error occurred.")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)

	if err := errorTemplate.ExecuteTemplate(w, "error.html", data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to execute error template", slog.Any("error", err))
	}
}

func (h *HTTPEndpoint) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect navigates the browser to href, through HX-Redirect for htmx requests.
func redirect(w http.ResponseWriter, r *http.Request, href string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", href)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, href, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: model.ErrorDetail{Code: code, Message: message}})
}
