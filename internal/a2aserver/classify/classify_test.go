package classify

import (
	"errors"
	"testing"

	"github.com/agentexec/core/internal/repo"
)

func TestRepositoryErrorNotFound(t *testing.T) {
	if got := RepositoryError(repo.ErrNotFound); got != "Referenced entity does not exist" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRepositoryErrorWrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), repo.ErrNotFound)
	if got := RepositoryError(wrapped); got != "Referenced entity does not exist" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRepositoryErrorUnknown(t *testing.T) {
	if got := RepositoryError(errors.New("boom")); got != "Internal storage error" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRepositoryErrorNil(t *testing.T) {
	if got := RepositoryError(nil); got != "" {
		t.Fatalf("unexpected message %q", got)
	}
}
