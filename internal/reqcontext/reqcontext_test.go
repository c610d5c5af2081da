package reqcontext

import (
	"context"
	"testing"

	"github.com/agentexec/core/internal/ids"
)

func TestWithRequestContextRoundTrip(t *testing.T) {
	rc := RequestContext{
		Source:    CallSourceHTTP,
		TraceId:   ids.NewTraceId(),
		ContextId: ids.NewContextId(),
		Auth: AuthContext{
			UserId:        "user-1",
			Authenticated: true,
		},
	}
	ctx := WithRequestContext(context.Background(), rc)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected request context to be present")
	}
	if got.TraceId != rc.TraceId || got.Auth.UserId != "user-1" {
		t.Fatalf("round-tripped context mismatch: %+v", got)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Fatal("expected no request context on a bare background context")
	}
}

func TestCallSourceString(t *testing.T) {
	if CallSourceHTTP.String() != "http" {
		t.Fatalf("unexpected string: %s", CallSourceHTTP.String())
	}
	if CallSourceUnknown.String() != "unknown" {
		t.Fatalf("unexpected string: %s", CallSourceUnknown.String())
	}
}
