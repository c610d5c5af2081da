package a2aserver

import (
	"encoding/json"
	"testing"
)

func TestErrorBuilderCodes(t *testing.T) {
	var b ErrorBuilder
	cases := []struct {
		name string
		err  *RPCError
		code int
	}{
		{"parse", b.ParseError("bad json"), CodeParseError},
		{"invalid-request", b.InvalidRequest("missing method"), CodeInvalidRequest},
		{"method-not-found", b.MethodNotFound("frobnicate"), CodeMethodNotFound},
		{"invalid-params", b.InvalidParams("bad shape"), CodeInvalidParams},
		{"internal", b.Internal("boom"), CodeInternalError},
		{"unauthorized", b.Unauthorized("no token"), CodeInvalidRequest},
		{"forbidden", b.Forbidden("wrong scope"), CodeInvalidRequest},
		{"task-not-found", b.TaskNotFound("task-1"), CodeInternalError},
		{"validation-failed", b.ValidationFailed("bad ref"), CodeInternalError},
	}
	for _, c := range cases {
		if c.err.Code != c.code {
			t.Errorf("%s: expected code %d, got %d", c.name, c.code, c.err.Code)
		}
	}
}

func TestUnauthorizedAndForbiddenDistinguishedByMessage(t *testing.T) {
	var b ErrorBuilder
	unauthorized := b.Unauthorized("no token")
	forbidden := b.Forbidden("wrong scope")
	if unauthorized.Code != forbidden.Code {
		t.Fatalf("expected same wire code, got %d and %d", unauthorized.Code, forbidden.Code)
	}
	if unauthorized.Message == forbidden.Message {
		t.Fatalf("expected distinct messages to disambiguate HTTP status, got %q for both", unauthorized.Message)
	}
}

func TestMissingContextIDCarriesInstructions(t *testing.T) {
	var b ErrorBuilder
	err := b.MissingContextID()
	if err.Code != CodeInvalidParams {
		t.Fatalf("expected invalid params code, got %d", err.Code)
	}
	var data struct {
		Reason       string `json:"reason"`
		Instructions string `json:"instructions"`
	}
	if unmarshalErr := json.Unmarshal(err.Data, &data); unmarshalErr != nil {
		t.Fatalf("unmarshal data: %v", unmarshalErr)
	}
	if data.Reason == "" || data.Instructions == "" {
		t.Fatalf("expected populated reason/instructions, got %+v", data)
	}
}
