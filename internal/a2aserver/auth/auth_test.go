package auth

import (
	"testing"
	"time"

	"github.com/agentexec/core/internal/ids"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Issue("user-1", "client-1", time.Hour, nil, []string{"a2a:task:read"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	auth, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if auth.UserId != "user-1" || !auth.Authenticated {
		t.Fatalf("unexpected auth context: %+v", auth)
	}
	if !auth.HasScope("a2a:task:read") {
		t.Fatalf("expected scope to carry through, got %+v", auth.Scopes)
	}
}

func TestVerifyEnforcesConfiguredAudience(t *testing.T) {
	v := NewVerifier("test-secret", "agentengine")

	token, err := v.Issue("user-1", "client-1", time.Hour, []string{"agentengine"}, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := v.Verify(token); err != nil {
		t.Fatalf("expected matching audience to verify, got %v", err)
	}

	wrongAudience, err := v.Issue("user-1", "client-1", time.Hour, []string{"someone-else"}, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := v.Verify(wrongAudience); err != ErrAudienceMismatch {
		t.Fatalf("expected ErrAudienceMismatch, got %v", err)
	}
}

func TestVerifyWithoutConfiguredAudienceSkipsCheck(t *testing.T) {
	v := NewVerifier("test-secret")
	token, err := v.Issue("user-1", "client-1", time.Hour, []string{"anything"}, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := v.Verify(token); err != nil {
		t.Fatalf("expected no audience enforcement, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v := NewVerifier("test-secret")
	if _, err := v.Verify("not-a-jwt"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyDisabledWithoutSecret(t *testing.T) {
	v := NewVerifier("")
	if _, err := v.Verify("anything"); err != ErrAuthDisabled {
		t.Fatalf("expected ErrAuthDisabled, got %v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc.def.ghi")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if tok != ids.JwtToken("abc.def.ghi") {
		t.Fatalf("unexpected token %q", tok)
	}

	if _, err := ExtractBearerToken("Basic xyz"); err != ErrMissingToken {
		t.Fatalf("expected ErrMissingToken for wrong scheme, got %v", err)
	}
}
