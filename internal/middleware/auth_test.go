package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := tok.SignedString(testSecret)
	require.NoError(t, err)
	return raw
}

func authedHandler(t *testing.T, captured *Identity) http.Handler {
	return BearerAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		*captured = ident
		w.WriteHeader(http.StatusOK)
	}))
}

func TestBearerAuthAcceptsValidToken(t *testing.T) {
	var got Identity
	h := authedHandler(t, &got)

	raw := signToken(t, jwt.MapClaims{
		"sub":            "user-123",
		"email":          "dev@example.com",
		"email_verified": true,
		"exp":            time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-123", got.OwnerID)
	assert.Equal(t, "dev@example.com", got.Email)
	assert.True(t, got.EmailVerified)
}

func TestBearerAuthRejectsMissingHeader(t *testing.T) {
	h := BearerAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthRejectsExpiredToken(t *testing.T) {
	h := BearerAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	raw := signToken(t, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthRejectsWrongSecret(t *testing.T) {
	h := BearerAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthRejectsTokenWithoutSubject(t *testing.T) {
	h := BearerAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	raw := signToken(t, jwt.MapClaims{
		"email": "dev@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthSkipsHealthAndMetrics(t *testing.T) {
	for _, path := range []string{"/health", "/health/deep", "/metrics"} {
		called := false
		h := BearerAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.True(t, called, "path %s must bypass auth", path)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(2, 1)
	b := rl.getBucket("owner-a")
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
	assert.False(t, b.Allow(), "capacity exhausted")
	// a different owner has its own bucket
	assert.True(t, rl.getBucket("owner-b").Allow())
}
