package delivery

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"ory-kratos-login/delivery/model"
	"ory-kratos-login/login"
	"ory-kratos-login/navigation"
	"ory-kratos-login/session"
)

const loginPath = "/login"

var localeFlags = map[string]string{
	"en": "🇺🇸",
	"vi": "🇻🇳",
}

var localeLabels = map[string]string{
	"en": "English",
	"vi": "Vietnamese",
}

type localeOption struct {
	Value    string
	Label    string
	Flag     string
	Selected bool
}

// A struct to hold data for the login template.
type loginPageData struct {
	pageData
	Locales     []localeOption
	Email       string
	Errors      login.FieldErrors
	Loading     bool
	Rejection   string
	ActionURL   string
	StatusURL   string
	LanguageURL string
	ForgotURL   string
}

// FieldError returns the translated inline message for field, if any.
func (d loginPageData) FieldError(field string) string {
	if key, ok := d.Errors[field]; ok {
		return d.T(key)
	}
	return ""
}

func (h *HTTPEndpoint) newLoginPageData(r *http.Request, mounted *login.Mounted) loginPageData {
	data := loginPageData{
		pageData:    h.page(r, "login"),
		ActionURL:   h.href(r, navigation.Location{Path: loginPath}),
		StatusURL:   h.href(r, navigation.Location{Path: loginPath + "/status"}),
		LanguageURL: h.href(r, navigation.Location{Path: loginPath + "/language"}),
		ForgotURL:   h.href(r, navigation.Location{Path: "/"}),
	}

	for _, l := range h.bundle.Supported() {
		label := l
		if known, ok := localeLabels[l]; ok {
			label = known
		}
		data.Locales = append(data.Locales, localeOption{
			Value:    l,
			Label:    data.T(label),
			Flag:     localeFlags[l],
			Selected: l == data.Locale,
		})
	}

	if mounted != nil {
		data.Loading = mounted.View.Loading()
		if key := mounted.View.Rejection(); key != "" {
			data.Rejection = data.T(key)
		}
	}

	return data
}

// renderLoginForm is a helper to render the login UI.
func (h *HTTPEndpoint) renderLoginForm(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := loginTemplate.ExecuteTemplate(w, "login.html", data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to execute login template", slog.Any("error", err))
	}
}

func (h *HTTPEndpoint) visitor(w http.ResponseWriter, r *http.Request) (*session.Data, bool) {
	sess, ok := h.app.GetSessionFromContext(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "session not found in context")
		http.Error(w, "Session unavailable", http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

// loginHandler mounts a fresh login view for the visitor and renders the form.
func (h *HTTPEndpoint) loginHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.visitor(w, r)
	if !ok {
		return
	}

	mounted := h.app.LoginViews().Mount(sess.ID, loginPath)

	h.renderLoginForm(w, r, http.StatusOK, h.newLoginPageData(r, mounted))
}

// loginSubmitHandler handles the POST request from the login form.
func (h *HTTPEndpoint) loginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.visitor(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	var form login.Form
	if err := h.decoder.Decode(&form, r.PostForm); err != nil {
		http.Error(w, "Failed to decode form", http.StatusBadRequest)
		return
	}

	views := h.app.LoginViews()
	mounted, ok := views.Lookup(sess.ID)
	if !ok {
		mounted = views.Mount(sess.ID, loginPath)
	}

	creds, fieldErrs := login.ParseCredentials(form)
	if fieldErrs != nil {
		data := h.newLoginPageData(r, mounted)
		data.Email = form.Email
		data.Errors = fieldErrs
		h.renderLoginForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	mounted, outcome, err := h.submitLogin(r.Context(), sess.ID, mounted, creds)
	if err != nil {
		data := h.newLoginPageData(r, mounted)
		data.Email = creds.Email
		h.renderLoginForm(w, r, http.StatusConflict, data)
		return
	}

	h.logger.InfoContext(r.Context(), "login submitted", slog.String("outcome", outcome.String()))

	data := h.newLoginPageData(r, mounted)
	data.Email = creds.Email

	switch outcome {
	case login.OutcomeSignedIn:
		if res, ok := mounted.View.Result(); ok && res.SessionToken != "" {
			sess.Token = res.SessionToken
			if err := h.app.SaveSession(w, r, sess); err != nil {
				h.logger.ErrorContext(r.Context(), "could not save session", slog.Any("error", err))
			}
		}
		h.renderLoginForm(w, r, http.StatusOK, data)

	case login.OutcomeRejected:
		status := http.StatusOK
		if !data.Loading {
			status = http.StatusUnauthorized
		}
		h.renderLoginForm(w, r, status, data)

	default:
		h.renderLoginForm(w, r, http.StatusOK, data)
	}
}

// submitLogin submits creds on mounted. A view closed since it was looked up
// (evicted or expired) is replaced by a fresh one that takes the submission.
func (h *HTTPEndpoint) submitLogin(ctx context.Context, sessionID string, mounted *login.Mounted, creds login.Credentials) (*login.Mounted, login.Outcome, error) {
	outcome, err := mounted.View.Submit(ctx, creds)
	if errors.Is(err, login.ErrClosed) {
		mounted = h.app.LoginViews().Mount(sessionID, loginPath)
		outcome, err = mounted.View.Submit(ctx, creds)
	}
	return mounted, outcome, err
}

// loginStatusHandler is polled while a sign-in is pending and delivers the
// navigation requested by the view.
func (h *HTTPEndpoint) loginStatusHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.visitor(w, r)
	if !ok {
		return
	}

	mounted, ok := h.app.LoginViews().Lookup(sess.ID)
	if !ok {
		redirect(w, r, h.href(r, navigation.Location{Path: loginPath}))
		return
	}

	if loc, ok := mounted.Navigation.Take(); ok {
		redirect(w, r, h.href(r, loc))
		return
	}

	loading := mounted.View.Loading()

	switch {
	case isHTMX(r):
		status := http.StatusOK
		if !loading {
			// htmx stops polling on 286.
			status = 286
		}
		writeJSON(w, status, model.LoginStatusResponse{Loading: loading})

	case r.Header.Get("Accept") == "application/json":
		writeJSON(w, http.StatusOK, model.LoginStatusResponse{Loading: loading})

	case loading:
		h.renderLoginForm(w, r, http.StatusOK, h.newLoginPageData(r, mounted))

	default:
		http.Redirect(w, r, h.href(r, navigation.Location{Path: loginPath}), http.StatusSeeOther)
	}
}

// languageHandler switches the login page to another locale.
func (h *HTTPEndpoint) languageHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.visitor(w, r)
	if !ok {
		return
	}

	locale := r.URL.Query().Get("locale")
	if !h.bundle.IsSupported(locale) {
		http.Error(w, "Unsupported locale", http.StatusBadRequest)
		return
	}

	views := h.app.LoginViews()
	mounted, ok := views.Lookup(sess.ID)
	if !ok {
		mounted = views.Mount(sess.ID, loginPath)
	}

	mounted.View.ChangeLanguage(locale)

	loc, ok := mounted.Navigation.Take()
	if !ok {
		loc = navigation.Location{Path: loginPath, Locale: locale}
	}

	redirect(w, r, h.href(r, loc))
}

func (h *HTTPEndpoint) logoutHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.visitor(w, r)
	if !ok {
		return
	}

	if sess.Token != "" {
		if err := h.app.Identity().Logout(r.Context(), sess.Token); err != nil {
			h.logger.ErrorContext(r.Context(), "error during logout", slog.Any("error", err))
		}
		sess.Token = ""
		if err := h.app.SaveSession(w, r, sess); err != nil {
			h.logger.ErrorContext(r.Context(), "could not save session", slog.Any("error", err))
		}
	}

	h.app.LoginViews().Unmount(sess.ID)

	http.Redirect(w, r, h.href(r, navigation.Location{Path: loginPath}), http.StatusSeeOther)
}
