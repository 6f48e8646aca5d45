package auth_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbase/talentbase-auth/internal/auth"
	"github.com/talentbase/talentbase-auth/internal/ratelimit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestGate(config auth.GateConfig) *auth.Gate {
	return auth.NewGate(ratelimit.NewLimiter(), config, testLogger())
}

func signedToken(t *testing.T, claims *auth.TokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

// identityCapture records the identity the gate attached to the request
func identityCapture(captured **auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = auth.GetIdentity(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestGatePublicRouteBypassesEverything(t *testing.T) {
	config := auth.DefaultGateConfig()
	config.MaxRequests = 1
	gate := newTestGate(config)
	gate.MarkPublic("/health")

	handler := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Way past the limit; public routes are never throttled
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/health", nil)
		r.RemoteAddr = "203.0.113.7:1"
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGateRateLimitsBeforeCredentialHandling(t *testing.T) {
	config := auth.DefaultGateConfig()
	config.MaxRequests = 3
	gate := newTestGate(config)

	var captured *auth.Identity
	handler := gate.Middleware(identityCapture(&captured))

	send := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/resumes", nil)
		r.RemoteAddr = "203.0.113.7:1"
		r.Header.Set("User-Agent", "Mozilla/5.0")
		r.Header.Set("Authorization", "Bearer some-token")
		handler.ServeHTTP(rec, r)
		return rec
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send().Code)
	}

	captured = nil
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	// Denial happened before identity attachment
	assert.Nil(t, captured)
	// The response must not leak the count or threshold
	assert.NotContains(t, rec.Body.String(), "3")
}

func TestGateAttachesGuestWithoutCredential(t *testing.T) {
	gate := newTestGate(auth.DefaultGateConfig())

	var captured *auth.Identity
	handler := gate.Middleware(identityCapture(&captured))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/jobs", nil)
	r.RemoteAddr = "203.0.113.7:1"
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.False(t, captured.Authenticated)
}

func TestGateAttachesAuthenticatedIdentityFromBearer(t *testing.T) {
	gate := newTestGate(auth.DefaultGateConfig())

	var captured *auth.Identity
	handler := gate.Middleware(identityCapture(&captured))

	token := signedToken(t, &auth.TokenClaims{
		UserID:         "user-1",
		Email:          "user@example.com",
		Role:           "recruiter",
		OrganizationID: "org-9",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/jobs", nil)
	r.RemoteAddr = "203.0.113.7:1"
	r.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, r)

	require.NotNil(t, captured)
	assert.True(t, captured.Authenticated)
	assert.Equal(t, "user-1", captured.UserID)
	assert.Equal(t, "recruiter", captured.Role)
	assert.Equal(t, "org-9", captured.OrganizationID)
}

func TestGateLimitingDisabledMode(t *testing.T) {
	config := auth.DefaultGateConfig()
	config.MaxRequests = 1
	config.LimitingEnabled = false
	gate := newTestGate(config)

	handler := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/jobs", nil)
		r.RemoteAddr = "203.0.113.7:1"
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestOnAuthenticatedClassifiesErrors(t *testing.T) {
	gate := newTestGate(auth.DefaultGateConfig())

	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"expired", jwt.ErrTokenExpired, "expired"},
		{"malformed", jwt.ErrTokenMalformed, "Malformed"},
		{"not yet valid", jwt.ErrTokenNotValidYet, "not yet valid"},
		{"other", assert.AnError, "Authentication failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			principal, ok := gate.OnAuthenticated(rec, tc.err, nil)
			assert.False(t, ok)
			assert.Nil(t, principal)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
		})
	}
}

func TestOnAuthenticatedRequiresIdentity(t *testing.T) {
	gate := newTestGate(auth.DefaultGateConfig())

	rec := httptest.NewRecorder()
	principal, ok := gate.OnAuthenticated(rec, nil, nil)
	assert.False(t, ok)
	assert.Nil(t, principal)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication required")
}

func TestOnAuthenticatedSetsIdentityHeaders(t *testing.T) {
	gate := newTestGate(auth.DefaultGateConfig())

	rec := httptest.NewRecorder()
	identity := &auth.Identity{
		UserID:        "user-1",
		Role:          "candidate",
		Authenticated: true,
		// OrganizationID absent: header must be omitted
	}

	principal, ok := gate.OnAuthenticated(rec, nil, identity)
	assert.True(t, ok)
	assert.Equal(t, identity, principal)
	assert.Equal(t, "user-1", rec.Header().Get("X-User-Id"))
	assert.Equal(t, "candidate", rec.Header().Get("X-User-Role"))
	_, present := rec.Header()["X-Organization-Id"]
	assert.False(t, present)
}

func TestRequireRole(t *testing.T) {
	gate := newTestGate(auth.DefaultGateConfig())

	handler := gate.Middleware(auth.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	adminToken := signedToken(t, &auth.TokenClaims{UserID: "u1", Role: "admin"})
	candidateToken := signedToken(t, &auth.TokenClaims{UserID: "u2", Role: "candidate"})

	send := func(token string) int {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/admin/rate-limit/status", nil)
		r.RemoteAddr = "203.0.113.7:1"
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		handler.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(adminToken))
	assert.Equal(t, http.StatusForbidden, send(candidateToken))
	assert.Equal(t, http.StatusUnauthorized, send(""))
}
