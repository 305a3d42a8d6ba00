package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtinfra "github.com/Blittyyy/RateMyCollegeFinal/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return jwtinfra.NewSigningProvider(key)
}

func okHandler(t *testing.T, wantUserID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantUserID, claims.UserID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	provider := testProvider(t)
	tok, err := provider.Sign("u1", "a@b.edu", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/verification-status", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	Auth(provider)(okHandler(t, "u1")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_MissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/verification-status", nil)
	rec := httptest.NewRecorder()
	Auth(testProvider(t))(okHandler(t, "")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	provider := testProvider(t)
	tok, err := provider.Sign("u1", "a@b.edu", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/verification-status", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	Auth(provider)(okHandler(t, "")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuth_AnonymousPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/oauth/start", nil)
	rec := httptest.NewRecorder()
	called := false
	OptionalAuth(testProvider(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := ClaimsFromContext(r.Context())
		assert.False(t, ok)
		called = true
	})).ServeHTTP(rec, req)
	assert.True(t, called)
}

func TestOptionalAuth_ValidTokenInjectsClaims(t *testing.T) {
	provider := testProvider(t)
	tok, err := provider.Sign("u1", "a@b.edu", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/oauth/start", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	OptionalAuth(provider)(okHandler(t, "u1")).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
