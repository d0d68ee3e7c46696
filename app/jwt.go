package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lestrrat-go/jwx/jwk"
)

var (
	ErrFetchJWKSet = errors.New("failed to fetch JWK set")
	ErrMissingKID  = errors.New("expecting JWT header to have 'kid'")
	ErrUnknownKey  = errors.New("unable to find verification key")
	ErrInvalidJWT  = errors.New("invalid token")
)

const (
	privatePrefix = "private:"
	publicPrefix  = "public:"
)

// Verifier checks JWTs minted by the Kratos session tokenizer.
type Verifier interface {
	Verify(ctx context.Context, token string) (jwt.MapClaims, error)
}

// verifier validates JWT signatures against an auto-refreshing JWK set.
type verifier struct {
	autoRefresh *jwk.AutoRefresh
	jwkURL      string
	logger      *slog.Logger
}

// NewJWTVerifier creates a verifier and performs the initial JWK set fetch.
func NewJWTVerifier(ctx context.Context, jwkURL string, refreshInterval time.Duration, logger *slog.Logger) (Verifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ar := jwk.NewAutoRefresh(ctx)
	ar.Configure(jwkURL, jwk.WithRefreshInterval(refreshInterval))

	if _, err := ar.Fetch(ctx, jwkURL); err != nil {
		logger.ErrorContext(ctx, "failed to fetch initial JWK set", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrFetchJWKSet, err)
	}

	return &verifier{
		autoRefresh: ar,
		jwkURL:      jwkURL,
		logger:      logger,
	}, nil
}

// Verify parses token and checks its signature and standard claims.
func (v *verifier) Verify(ctx context.Context, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.lookupKey(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJWT, err)
	}

	if !parsed.Valid {
		return nil, ErrInvalidJWT
	}

	return claims, nil
}

func (v *verifier) lookupKey(ctx context.Context, t *jwt.Token) (interface{}, error) {
	keyID, ok := t.Header["kid"].(string)
	if !ok {
		return nil, ErrMissingKID
	}

	verificationKeyID := verificationKID(keyID)
	if verificationKeyID != keyID {
		v.logger.DebugContext(ctx, "transformed private kid for verification",
			slog.String("kid", keyID),
			slog.String("verification_kid", verificationKeyID),
		)
	}

	keySet, err := v.autoRefresh.Fetch(ctx, v.jwkURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchJWKSet, err)
	}

	key, found := keySet.LookupKeyID(verificationKeyID)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, verificationKeyID)
	}

	var pubKey interface{}
	if err := key.Raw(&pubKey); err != nil {
		return nil, fmt.Errorf("failed to get raw public key: %w", err)
	}
	return pubKey, nil
}

// verificationKID maps the kid of a token signed with a "private:" key to the
// matching "public:" key.
func verificationKID(keyID string) string {
	if strings.HasPrefix(keyID, privatePrefix) {
		return publicPrefix + strings.TrimPrefix(keyID, privatePrefix)
	}
	return keyID
}
