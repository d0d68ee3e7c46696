package app

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWKSServer(t *testing.T, kid string) (*rsa.PrivateKey, *httptest.Server) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key, err := jwk.New(&priv.PublicKey)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, kid))
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256))

	set := jwk.NewSet()
	set.Add(key)

	body, err := json.Marshal(set)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	return priv, server
}

func sign(t *testing.T, priv *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}

	signed, err := token.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func TestJWTVerifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	priv, server := newJWKSServer(t, "public:k1")

	v, err := NewJWTVerifier(ctx, server.URL, time.Minute, nil)
	require.NoError(t, err)

	valid := jwt.MapClaims{"sub": "identity-1", "exp": time.Now().Add(time.Hour).Unix()}

	t.Run("private kid maps to public key", func(t *testing.T) {
		claims, err := v.Verify(ctx, sign(t, priv, "private:k1", valid))
		require.NoError(t, err)
		assert.Equal(t, "identity-1", claims["sub"])
	})

	t.Run("public kid", func(t *testing.T) {
		_, err := v.Verify(ctx, sign(t, priv, "public:k1", valid))
		assert.NoError(t, err)
	})

	t.Run("missing kid", func(t *testing.T) {
		_, err := v.Verify(ctx, sign(t, priv, "", valid))
		assert.ErrorIs(t, err, ErrInvalidJWT)
	})

	t.Run("unknown kid", func(t *testing.T) {
		_, err := v.Verify(ctx, sign(t, priv, "private:k2", valid))
		assert.ErrorIs(t, err, ErrInvalidJWT)
	})

	t.Run("expired", func(t *testing.T) {
		expired := jwt.MapClaims{"sub": "identity-1", "exp": time.Now().Add(-time.Hour).Unix()}
		_, err := v.Verify(ctx, sign(t, priv, "private:k1", expired))
		assert.ErrorIs(t, err, ErrInvalidJWT)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		_, err = v.Verify(ctx, sign(t, other, "private:k1", valid))
		assert.ErrorIs(t, err, ErrInvalidJWT)
	})
}

func TestJWTVerifierUnreachableJWKS(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	_, err := NewJWTVerifier(ctx, server.URL, time.Minute, nil)
	assert.ErrorIs(t, err, ErrFetchJWKSet)
}

func TestVerificationKID(t *testing.T) {
	assert.Equal(t, "public:k1", verificationKID("private:k1"))
	assert.Equal(t, "public:k1", verificationKID("public:k1"))
	assert.Equal(t, "k1", verificationKID("k1"))
}
