package delivery

import (
	"context"
	"net/http"

	"ory-kratos-login/delivery/model"
	"ory-kratos-login/i18n"
	"ory-kratos-login/login"
	"ory-kratos-login/session"
)

// AppDependencies defines the contract that the delivery layer (HTTP handlers)
// expects from the core application layer.
type AppDependencies interface {
	// SessionMiddleware loads the visitor session into the request context.
	SessionMiddleware(next http.Handler) http.Handler

	GetSessionFromContext(ctx context.Context) (*session.Data, bool)

	SaveSession(w http.ResponseWriter, r *http.Request, data *session.Data) error

	// LoginViews holds the mounted login view of each visitor session.
	LoginViews() *login.Registry

	Translations() *i18n.Bundle

	Identity() IdentityProvider
}

// IdentityProvider resolves and ends Kratos sessions from their token.
type IdentityProvider interface {
	WhoAmI(ctx context.Context, token string) (*model.Identity, error)
	Logout(ctx context.Context, token string) error
}
