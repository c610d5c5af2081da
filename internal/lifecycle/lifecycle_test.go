package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/agentexec/core/internal/model"
)

func TestDisableAgentIsIdempotent(t *testing.T) {
	m := New([]AgentConfig{{Name: "echo", Command: "echo", Port: 9201}}, nil)
	ctx := context.Background()

	if err := m.DisableAgent(ctx, "echo"); err != nil {
		t.Fatalf("first disable: %v", err)
	}
	if err := m.DisableAgent(ctx, "echo"); err != nil {
		t.Fatalf("second disable should be idempotent: %v", err)
	}

	svc, err := m.Status(ctx, "echo")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if svc.Status != model.AgentStatusDisabled {
		t.Fatalf("expected disabled status, got %v", svc.Status)
	}
}

func TestEnableClearsDisabledToAbsent(t *testing.T) {
	m := New([]AgentConfig{{Name: "echo", Command: "echo", Port: 9202}}, nil)
	ctx := context.Background()

	_ = m.DisableAgent(ctx, "echo")
	if err := m.EnableAgent(ctx, "echo"); err != nil {
		t.Fatalf("enable: %v", err)
	}

	svc, _ := m.Status(ctx, "echo")
	if svc.Status != model.AgentStatusAbsent {
		t.Fatalf("expected absent status after enable, got %v", svc.Status)
	}
}

func TestStatusUnknownAgentErrors(t *testing.T) {
	m := New(nil, nil)
	if _, err := m.Status(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown agent")
	}
}

func TestStartAgentRejectsAlreadyRunning(t *testing.T) {
	m := New([]AgentConfig{{Name: "echo", Command: "echo", Port: 9204}}, nil)
	ctx := context.Background()

	m.mu.Lock()
	m.agents["echo"].Status = model.AgentStatusRunning
	m.mu.Unlock()

	err := m.StartAgent(ctx, "echo")
	var startErr *StartError
	if !errors.As(err, &startErr) || startErr.Reason != ReasonAgentAlreadyRunning {
		t.Fatalf("expected *StartError{Reason: ReasonAgentAlreadyRunning}, got %v", err)
	}
}

func TestClaimPortReclaimsFromDeadOwner(t *testing.T) {
	m := New([]AgentConfig{
		{Name: "old", Command: "echo", Port: 9205},
		{Name: "new", Command: "echo", Port: 9205},
	}, nil)
	ctx := context.Background()

	m.mu.Lock()
	m.agents["old"].Status = model.AgentStatusRunning
	m.agents["old"].PID = 0
	m.mu.Unlock()
	if err := m.ports.Claim(9205, "old"); err != nil {
		t.Fatalf("seed claim: %v", err)
	}

	if err := m.claimPort(ctx, m.config["new"], "new"); err != nil {
		t.Fatalf("expected reclamation to succeed, got %v", err)
	}

	owner, held := m.ports.Owner(9205)
	if !held || owner != "new" {
		t.Fatalf("expected %q to hold the port, got %q (held=%v)", "new", owner, held)
	}

	oldSvc, err := m.Status(ctx, "old")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if oldSvc.Status != model.AgentStatusFailed {
		t.Fatalf("expected old agent marked failed after reclamation, got %v", oldSvc.Status)
	}
}

func TestReconcileCrashedMarksDeadProcessFailed(t *testing.T) {
	m := New([]AgentConfig{{Name: "echo", Command: "echo", Port: 9203}}, nil)
	ctx := context.Background()

	m.mu.Lock()
	m.agents["echo"].Status = model.AgentStatusRunning
	m.agents["echo"].PID = 999999999
	m.mu.Unlock()

	m.ReconcileCrashed(ctx)

	svc, _ := m.Status(ctx, "echo")
	if svc.Status != model.AgentStatusFailed {
		t.Fatalf("expected failed status after reconcile, got %v", svc.Status)
	}
}
