// Package reqcontext carries the per-request values the A2A front-end and
// execution engine need at every layer: who is calling, how they got in, and
// which trace/session/context ids the call belongs to. It follows the same
// context-key attach/extract pattern used elsewhere in the runtime.
package reqcontext

import (
	"context"

	"github.com/agentexec/core/internal/ids"
)

// CallSource identifies how a request reached the A2A front-end.
type CallSource int

const (
	// CallSourceUnknown is the zero value; it should never appear on a
	// fully populated RequestContext.
	CallSourceUnknown CallSource = iota
	// CallSourceHTTP marks a request that arrived over the public HTTP
	// JSON-RPC endpoint.
	CallSourceHTTP
	// CallSourceInternal marks a request originated by another
	// in-process component (e.g. a scheduled reconciliation pass).
	CallSourceInternal
)

func (s CallSource) String() string {
	switch s {
	case CallSourceHTTP:
		return "http"
	case CallSourceInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// AuthContext holds the identity extracted from the bearer token, if any.
type AuthContext struct {
	// UserId is the subject claim of the verified JWT. Empty when the
	// request carried no token and the route allows anonymous access.
	UserId ids.UserId
	// ClientId identifies the OAuth client the token was issued to, when
	// present in the token claims.
	ClientId ids.ClientId
	// Token is the raw bearer token, kept only for downstream audit
	// logging; never rendered into error responses.
	Token ids.JwtToken
	// Authenticated is true once the token has passed signature, expiry,
	// and audience verification.
	Authenticated bool
	// Scopes is the space-delimited "scope" claim, split into individual
	// scope strings. The OAuth gate checks this is a superset of whatever
	// the called method requires.
	Scopes []string
}

// HasScope reports whether scopes contains want.
func (a AuthContext) HasScope(want string) bool {
	for _, s := range a.Scopes {
		if s == want {
			return true
		}
	}
	return false
}

// HasAllScopes reports whether a carries every scope in want.
func (a AuthContext) HasAllScopes(want []string) bool {
	for _, w := range want {
		if !a.HasScope(w) {
			return false
		}
	}
	return true
}

// RequestContext aggregates everything a handler needs about the call in
// progress without threading a dozen individual parameters through every
// function signature.
type RequestContext struct {
	Auth      AuthContext
	Source    CallSource
	TraceId   ids.TraceId
	SessionId ids.SessionId
	ContextId ids.ContextId
	AgentName ids.AgentName
}

type reqCtxKey struct{}

// WithRequestContext returns a child context carrying rc.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, reqCtxKey{}, rc)
}

// FromContext extracts the RequestContext previously attached with
// WithRequestContext. ok is false when no value was attached.
func FromContext(ctx context.Context) (RequestContext, bool) {
	v := ctx.Value(reqCtxKey{})
	if v == nil {
		return RequestContext{}, false
	}
	rc, ok := v.(RequestContext)
	return rc, ok
}
