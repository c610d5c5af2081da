package memory

import (
	"context"
	"testing"

	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/repo"
)

func TestPushNotificationStoreSetGetDelete(t *testing.T) {
	s := NewPushNotificationStore()
	ctx := context.Background()
	taskID := ids.NewTaskId()

	cfg := repo.PushNotificationConfig{TaskID: taskID, ID: "cfg-1", URL: "https://example.com/hook"}
	if err := s.Set(ctx, cfg); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.Get(ctx, taskID, "cfg-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.URL != cfg.URL {
		t.Fatalf("unexpected url %q", got.URL)
	}

	if err := s.Delete(ctx, taskID, "cfg-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, taskID, "cfg-1"); err != repo.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPushNotificationStoreGetUnknownTask(t *testing.T) {
	s := NewPushNotificationStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, ids.NewTaskId(), "missing"); err != repo.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPushNotificationStoreDeleteUnknown(t *testing.T) {
	s := NewPushNotificationStore()
	ctx := context.Background()
	taskID := ids.NewTaskId()
	_ = s.Set(ctx, repo.PushNotificationConfig{TaskID: taskID, ID: "cfg-1"})

	if err := s.Delete(ctx, taskID, "cfg-does-not-exist"); err != repo.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
