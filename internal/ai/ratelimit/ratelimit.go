// Package ratelimit wraps an ai.Service with outbound request pacing,
// grounded on the model gateway's adaptive rate limiter but simplified to a
// process-local token bucket built directly on golang.org/x/time/rate
// (the gateway's cluster-coordination dependency is dropped; see DESIGN.md).
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/agentexec/core/internal/ai"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/tools"
)

// Limited wraps an ai.Service, blocking each outbound call until the
// underlying token bucket has capacity.
type Limited struct {
	next    ai.Service
	limiter *rate.Limiter
}

var _ ai.Service = (*Limited)(nil)

// New wraps next with a limiter allowing requestsPerSecond steady-state
// calls and a burst of burst.
func New(next ai.Service, requestsPerSecond float64, burst int) *Limited {
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (l *Limited) DefaultProvider() string       { return l.next.DefaultProvider() }
func (l *Limited) DefaultModel() string          { return l.next.DefaultModel() }
func (l *Limited) DefaultMaxOutputTokens() int   { return l.next.DefaultMaxOutputTokens() }

func (l *Limited) ListAvailableToolsForAgent(ctx context.Context, agentName string) ([]tools.Spec, error) {
	return l.next.ListAvailableToolsForAgent(ctx, agentName)
}

func (l *Limited) GeneratePlan(ctx context.Context, history []model.Message, catalogue []tools.Spec) (ai.Plan, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return ai.Plan{}, err
	}
	return l.next.GeneratePlan(ctx, history, catalogue)
}

func (l *Limited) GenerateResponse(ctx context.Context, history []model.Message) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.next.GenerateResponse(ctx, history)
}
