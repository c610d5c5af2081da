package broadcaster

import (
	"testing"
	"time"
)

func TestRegisterBroadcastUnregister(t *testing.T) {
	b := New[string, string]()

	ch := b.Register("user-1", "conn-a")
	if got := b.ConnectionCount("user-1"); got != 1 {
		t.Fatalf("expected 1 connection, got %d", got)
	}

	delivered := b.Broadcast("user-1", "hello")
	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}

	select {
	case msg := <-ch:
		if msg != "hello" {
			t.Fatalf("unexpected message %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast message")
	}

	b.Unregister("user-1", "conn-a")
	if got := b.ConnectionCount("user-1"); got != 0 {
		t.Fatalf("expected 0 connections after unregister, got %d", got)
	}
	if got := b.TotalConnections(); got != 0 {
		t.Fatalf("expected user key to be pruned, total=%d", got)
	}
}

func TestRegisterSameConnIDReplacesChannel(t *testing.T) {
	b := New[string, string]()

	first := b.Register("user-1", "conn-a")
	second := b.Register("user-1", "conn-a")

	if got := b.ConnectionCount("user-1"); got != 1 {
		t.Fatalf("expected replacement not to grow connection count, got %d", got)
	}

	if _, ok := <-first; ok {
		t.Fatal("expected old channel to be closed")
	}

	b.Broadcast("user-1", "hi")
	select {
	case msg := <-second:
		if msg != "hi" {
			t.Fatalf("unexpected message %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast on replacement channel")
	}
}

func TestBroadcastNonBlockingOnFullBuffer(t *testing.T) {
	b := New[string, int]()
	b.Register("user-1", "conn-a")

	for i := 0; i < eventChanBuffer+5; i++ {
		b.Broadcast("user-1", i)
	}

	if got := b.ConnectionCount("user-1"); got != 1 {
		t.Fatalf("connection should remain registered despite full buffer, count=%d", got)
	}
}

func TestConnectedUsers(t *testing.T) {
	b := New[string, string]()
	b.Register("user-1", "a")
	b.Register("user-2", "b")

	users := b.ConnectedUsers()
	if len(users) != 2 {
		t.Fatalf("expected 2 connected users, got %d", len(users))
	}
}
