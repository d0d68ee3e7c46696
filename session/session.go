package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	keyID    = "sid"
	keyToken = "kratos_session_token"
)

var ErrBadKey = errors.New("session key must be hex encoded")

type contextKey string

const dataContextKey contextKey = "visitor_session"

// Data is the visitor session carried in the session cookie.
type Data struct {
	ID string

	// Token is the Kratos session token relayed after a successful sign-in.
	Token string

	raw *sessions.Session
}

// Config configures the cookie backed Store.
type Config struct {
	Name string
	// Hex-encoded keys. EncryptKey may be empty to only sign the cookie.
	AuthKey    string
	EncryptKey string
	MaxAge     int
	Secure     bool
}

// Store loads and saves visitor sessions.
type Store struct {
	name  string
	store sessions.Store
}

func NewStore(cfg Config) (*Store, error) {
	ak, err := hex.DecodeString(cfg.AuthKey)
	if err != nil || len(ak) == 0 {
		return nil, fmt.Errorf("%w: auth key", ErrBadKey)
	}

	keys := [][]byte{ak}
	if cfg.EncryptKey != "" {
		ek, err := hex.DecodeString(cfg.EncryptKey)
		if err != nil {
			return nil, fmt.Errorf("%w: encryption key", ErrBadKey)
		}
		keys = append(keys, ek)
	}

	cs := sessions.NewCookieStore(keys...)
	cs.Options.Path = "/"
	cs.Options.HttpOnly = true
	cs.Options.Secure = cfg.Secure
	cs.Options.SameSite = http.SameSiteLaxMode
	if cfg.MaxAge > 0 {
		cs.MaxAge(cfg.MaxAge)
	}

	return NewStoreWith(cfg.Name, cs), nil
}

// NewStoreWith wraps an existing gorilla store.
func NewStoreWith(name string, store sessions.Store) *Store {
	return &Store{name: name, store: store}
}

// Middleware loads the visitor session, assigning a fresh ID to new visitors.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.store.Get(r, s.name)
		if err != nil {
			// An undecodable cookie still yields a usable new session.
			slog.DebugContext(r.Context(), "could not decode session cookie", slog.Any("error", err))
		}

		data := &Data{raw: raw}
		data.ID, _ = raw.Values[keyID].(string)
		data.Token, _ = raw.Values[keyToken].(string)

		if data.ID == "" {
			data.ID = uuid.NewString()
			if err := s.Save(w, r, data); err != nil {
				slog.ErrorContext(r.Context(), "could not save session", slog.Any("error", err))
			}
		}

		ctx := context.WithValue(r.Context(), dataContextKey, data)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Save writes data back to the cookie.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, data *Data) error {
	if data.raw == nil {
		raw, _ := s.store.Get(r, s.name)
		data.raw = raw
	}

	data.raw.Values[keyID] = data.ID
	if data.Token != "" {
		data.raw.Values[keyToken] = data.Token
	} else {
		delete(data.raw.Values, keyToken)
	}

	return data.raw.Save(r, w)
}

// FromContext returns the session loaded by Middleware.
func FromContext(ctx context.Context) (*Data, bool) {
	data, ok := ctx.Value(dataContextKey).(*Data)
	return data, ok
}

// WithData stores data in ctx. Used by tests and handlers running outside Middleware.
func WithData(ctx context.Context, data *Data) context.Context {
	return context.WithValue(ctx, dataContextKey, data)
}
