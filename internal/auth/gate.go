package auth

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/talentbase/talentbase-auth/internal/ratelimit"
	pkghttp "github.com/talentbase/talentbase-auth/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

// IdentityContextKey is the key under which the gate stores the request identity
const IdentityContextKey contextKey = "identity"

// GateConfig holds admission-gate configuration
type GateConfig struct {
	// Window and MaxRequests parameterize the per-(client,route) limiter
	Window      time.Duration
	MaxRequests int

	// LimitingEnabled disables the limiter entirely in deployment modes
	// (tests, one-shot tooling) where throttling makes no sense
	LimitingEnabled bool

	TrustedProxies []string
}

// DefaultGateConfig returns the standard production gate settings:
// 100 requests per 60-second window per (client, route).
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Window:          60 * time.Second,
		MaxRequests:     100,
		LimitingEnabled: true,
	}
}

// Gate decides whether an inbound request may proceed and attaches an
// identity to it. Terminal outcomes per request: allow with identity,
// deny rate-limited, or deny unauthenticated (via OnAuthenticated).
type Gate struct {
	limiter  *ratelimit.Limiter
	config   GateConfig
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger

	mu     sync.RWMutex
	public map[string]struct{}
}

// NewGate creates an admission gate backed by the given limiter
func NewGate(limiter *ratelimit.Limiter, config GateConfig, logger *slog.Logger) *Gate {
	return &Gate{
		limiter:  limiter,
		config:   config,
		ipConfig: &pkghttp.IPConfig{TrustedProxies: config.TrustedProxies},
		logger:   logger,
		public:   make(map[string]struct{}),
	}
}

// MarkPublic registers a route path as public: requests to it bypass the
// gate entirely — no rate-limit check, no identity attached.
func (g *Gate) MarkPublic(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.public[path] = struct{}{}
}

func (g *Gate) isPublic(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.public[path]
	return ok
}

// Middleware runs the admission sequence: public bypass, then rate limiting,
// then identity attachment. Rate-limit denial always precedes any credential
// handling. Presence of a bearer credential yields an authenticated identity;
// its absence yields a guest — rejection on invalid credentials belongs to
// the upstream token verifier, not this gate.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if g.config.LimitingEnabled {
			fingerprint := Fingerprint(r, g.ipConfig)
			key := ratelimit.Key{Client: fingerprint, Route: r.URL.Path}
			if !g.limiter.Allow(key, g.config.Window, g.config.MaxRequests) {
				g.logger.Warn("request rate limited",
					slog.String("client", fingerprint),
					slog.String("route", r.URL.Path))
				// No count or threshold in the response
				pkghttp.WriteTooManyRequests(w, "Too many requests, please try again later")
				return
			}
		}

		identity := &Identity{}
		if token, ok := BearerToken(r); ok {
			identity = IdentityFromToken(token)
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OnAuthenticated is the post-verification hook invoked once the upstream
// token collaborator has done its work. A verification error is classified
// and surfaced as the matching user-facing failure; a missing identity fails
// as authentication required. On success the identity headers are set
// (absent fields omitted) and the identity is returned as the principal.
func (g *Gate) OnAuthenticated(w http.ResponseWriter, err error, identity *Identity) (*Identity, bool) {
	if err != nil {
		switch ClassifyTokenError(err) {
		case TokenFailureExpired:
			pkghttp.WriteUnauthorized(w, "Token has expired")
		case TokenFailureMalformed:
			pkghttp.WriteUnauthorized(w, "Malformed token")
		case TokenFailureNotYetValid:
			pkghttp.WriteUnauthorized(w, "Token not yet valid")
		default:
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		}
		return nil, false
	}

	if identity == nil || !identity.Authenticated {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return nil, false
	}

	if identity.UserID != "" {
		w.Header().Set("X-User-Id", identity.UserID)
	}
	if identity.Role != "" {
		w.Header().Set("X-User-Role", identity.Role)
	}
	if identity.OrganizationID != "" {
		w.Header().Set("X-Organization-Id", identity.OrganizationID)
	}

	return identity, true
}

// GetIdentity extracts the gate-attached identity from the request context.
// Returns a guest identity for requests that never passed the gate.
func GetIdentity(r *http.Request) *Identity {
	identity, ok := r.Context().Value(IdentityContextKey).(*Identity)
	if !ok {
		return &Identity{}
	}
	return identity
}

// RequireAuthenticated rejects guest requests before the handler runs
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r).Authenticated {
			pkghttp.WriteUnauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose identity does not carry the given role
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r)
			if !identity.Authenticated {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}
			if identity.Role != role {
				pkghttp.WriteForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
