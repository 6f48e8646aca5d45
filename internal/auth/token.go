package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the principal the admission gate attaches to a request.
// A guest identity has Authenticated=false and empty fields.
type Identity struct {
	UserID         string
	Email          string
	Role           string
	OrganizationID string
	Authenticated  bool
}

// TokenClaims is the claim set carried by bearer credentials
type TokenClaims struct {
	UserID         string `json:"uid"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"org,omitempty"`
	jwt.RegisteredClaims
}

// TokenFailure classifies a credential-verification error for user-facing
// reporting
type TokenFailure string

const (
	TokenFailureExpired     TokenFailure = "expired"
	TokenFailureMalformed   TokenFailure = "malformed"
	TokenFailureNotYetValid TokenFailure = "not-yet-valid"
	TokenFailureOther       TokenFailure = "other"
)

// BearerToken extracts the bearer credential from the Authorization header.
// Returns false when the header is missing, malformed, or empty.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// ClassifyTokenError maps a verification error from the upstream token
// collaborator onto the small set of user-facing failure classes
func ClassifyTokenError(err error) TokenFailure {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return TokenFailureExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return TokenFailureMalformed
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return TokenFailureNotYetValid
	default:
		return TokenFailureOther
	}
}

// IdentityFromToken builds an authenticated identity from a bearer credential.
// Signature and expiry validation belong to the upstream token collaborator;
// this layer only lifts the claims it needs for identity headers, so the
// parse is unverified and a garbled credential still yields an authenticated
// identity with empty claim fields.
func IdentityFromToken(tokenString string) *Identity {
	identity := &Identity{Authenticated: true}

	claims := &TokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err == nil {
		identity.UserID = claims.UserID
		identity.Email = claims.Email
		identity.Role = claims.Role
		identity.OrganizationID = claims.OrganizationID
	}
	return identity
}
