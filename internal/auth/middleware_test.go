package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-landing/internal/auth"
	"ms-landing/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issuer   = "https://securetoken.google.com/landing-test"
	audience = "landing-test"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func mintToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	base := jwt.MapClaims{
		"iss": issuer,
		"aud": audience,
		"sub": "uid-123",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		base[k] = v
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, base).SignedString(key)
	require.NoError(t, err)
	return signed
}

func protected(verifier auth.Verifier) http.Handler {
	return auth.Middleware(verifier, logger.NewWithWriter(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(auth.IdentityFrom(r.Context()))
	}))
}

func TestStaticVerifier_ValidToken(t *testing.T) {
	key := newKey(t)
	v := auth.NewStaticVerifier(issuer, audience, &key.PublicKey)

	identity, err := v.Verify(context.Background(), mintToken(t, key, jwt.MapClaims{
		"name":  "Joana Souza",
		"email": "joana@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, &auth.Identity{UID: "uid-123", Name: "Joana Souza", Email: "joana@example.com"}, identity)
}

func TestStaticVerifier_Rejects(t *testing.T) {
	key := newKey(t)
	v := auth.NewStaticVerifier(issuer, audience, &key.PublicKey)

	cases := map[string]string{
		"expired":      mintToken(t, key, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()}),
		"wrong issuer": mintToken(t, key, jwt.MapClaims{"iss": "https://evil.example"}),
		"wrong aud":    mintToken(t, key, jwt.MapClaims{"aud": "another-project"}),
		"wrong key":    mintToken(t, newKey(t), nil),
		"garbage":      "not-a-jwt",
	}
	for name, token := range cases {
		_, err := v.Verify(context.Background(), token)
		assert.Error(t, err, name)
	}
}

func TestStaticVerifier_SkipsAudienceWhenUnset(t *testing.T) {
	key := newKey(t)
	v := auth.NewStaticVerifier(issuer, "", &key.PublicKey)

	_, err := v.Verify(context.Background(), mintToken(t, key, jwt.MapClaims{"aud": "anything"}))
	assert.NoError(t, err)
}

func TestMiddleware(t *testing.T) {
	key := newKey(t)
	handler := protected(auth.NewStaticVerifier(issuer, audience, &key.PublicKey))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/testimonials", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/testimonials", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/testimonials", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, newKey(t), nil))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/testimonials", nil)
		req.Header.Set("Authorization", "bearer "+mintToken(t, key, jwt.MapClaims{"email": "ze@example.com"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var identity auth.Identity
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &identity))
		assert.Equal(t, "uid-123", identity.UID)
		assert.Equal(t, "ze@example.com", identity.Email)
	})
}

func TestMiddleware_DisabledVerifier(t *testing.T) {
	handler := protected(auth.DisabledVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/testimonials", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, newKey(t), nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sessão inválida")
}

func TestRequireEmail(t *testing.T) {
	gate := auth.RequireEmail([]string{" Dona@Example.com "}, logger.NewWithWriter(io.Discard))
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name     string
		identity *auth.Identity
		want     int
	}{
		{"no identity", nil, http.StatusForbidden},
		{"no email", &auth.Identity{UID: "u1"}, http.StatusForbidden},
		{"other email", &auth.Identity{UID: "u2", Email: "ze@example.com"}, http.StatusForbidden},
		{"allowed email", &auth.Identity{UID: "u3", Email: "dona@example.com"}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/sales", nil)
			if tc.identity != nil {
				req = req.WithContext(auth.WithIdentity(req.Context(), tc.identity))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestExtractTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.ExtractTokenFromRequest(req)
	assert.ErrorIs(t, err, auth.ErrMissingAuthorization)

	req.Header.Set("Authorization", "Bearer")
	_, err = auth.ExtractTokenFromRequest(req)
	assert.ErrorIs(t, err, auth.ErrMalformedAuthorization)

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, err := auth.ExtractTokenFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}
