// Package auth implements the OAuth bearer-token gate in front of the A2A
// JSON-RPC methods, grounded on the pack's JWT service pattern (the teacher
// itself carries no JWT dependency, so this adopts golang-jwt/jwt/v5, the
// library used elsewhere in the example corpus for the same concern).
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/reqcontext"
)

// ErrAuthDisabled is returned when no signing secret has been configured.
// The caller then stays unauthenticated: methods that require no scopes
// (e.g. agent/getAuthenticatedExtendedCard) still run, while scoped methods
// are rejected by the front-end's OAuth gate.
var ErrAuthDisabled = errors.New("auth: verification disabled, no secret configured")

// ErrInvalidToken is returned for any token that fails signature,
// expiry, or claim validation.
var ErrInvalidToken = errors.New("auth: invalid token")

// ErrMissingToken is returned when a route requires authentication and no
// bearer token was presented.
var ErrMissingToken = errors.New("auth: missing bearer token")

// ErrAudienceMismatch is returned when a token otherwise validates but its
// "aud" claim shares nothing with the verifier's configured audience set.
var ErrAudienceMismatch = errors.New("auth: token audience not accepted here")

// Claims is the set of JWT claims the A2A gate trusts.
type Claims struct {
	ClientID string `json:"clientId,omitempty"`
	// Scope is the space-delimited OAuth2 scope claim, e.g. "a2a:task:read
	// a2a:task:write".
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens presented to the A2A front-end.
type Verifier struct {
	secret    []byte
	audiences []string
}

// NewVerifier builds a Verifier over an HMAC secret. An empty secret
// yields a Verifier that always returns ErrAuthDisabled, letting callers
// wire authentication optionally. audiences is the configured set a
// token's "aud" claim must intersect; omit it (or pass none) to skip
// audience enforcement entirely.
func NewVerifier(secret string, audiences ...string) *Verifier {
	return &Verifier{secret: []byte(secret), audiences: audiences}
}

// ExtractBearerToken pulls the token out of a raw "Authorization" header
// value, accepting only the "Bearer <token>" scheme.
func ExtractBearerToken(header string) (ids.JwtToken, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrMissingToken
	}
	return ids.JwtToken(token), nil
}

// Verify validates token and returns the AuthContext it carries.
func (v *Verifier) Verify(token ids.JwtToken) (reqcontext.AuthContext, error) {
	if len(v.secret) == 0 {
		return reqcontext.AuthContext{}, ErrAuthDisabled
	}
	if token == "" {
		return reqcontext.AuthContext{}, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(string(token), &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return reqcontext.AuthContext{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return reqcontext.AuthContext{}, ErrInvalidToken
	}
	if len(v.audiences) > 0 && !audienceIntersects(claims.Audience, v.audiences) {
		return reqcontext.AuthContext{}, ErrAudienceMismatch
	}

	var scopes []string
	if claims.Scope != "" {
		scopes = strings.Fields(claims.Scope)
	}

	return reqcontext.AuthContext{
		UserId:        ids.UserId(claims.Subject),
		ClientId:      ids.ClientId(claims.ClientID),
		Token:         token,
		Authenticated: true,
		Scopes:        scopes,
	}, nil
}

// audienceIntersects reports whether token carries at least one of the
// accepted audiences.
func audienceIntersects(token jwt.ClaimStrings, accepted []string) bool {
	for _, want := range accepted {
		for _, have := range token {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Issue signs a new token for userID, used by integration tests and local
// development tooling rather than by the request-serving path. audience
// and scopes may be nil; an empty audience means the token carries no
// "aud" claim at all (only matters if the verifying Verifier enforces one).
func (v *Verifier) Issue(userID ids.UserId, clientID ids.ClientId, ttl time.Duration, audience []string, scopes []string) (ids.JwtToken, error) {
	if len(v.secret) == 0 {
		return "", ErrAuthDisabled
	}
	claims := Claims{
		ClientID: string(clientID),
		Scope:    strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(userID),
			Audience:  audience,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", err
	}
	return ids.JwtToken(signed), nil
}
