// Command agentengine runs the A2A front-end and execution engine: it
// accepts JSON-RPC 2.0 calls over HTTP, streams task progress over SSE, and
// drives agent processes through the lifecycle manager.
//
// # Configuration
//
// Environment variables:
//
//	AGENTENGINE_ADDR       - HTTP listen address (default: ":8080")
//	JWT_SECRET             - HMAC secret for bearer token verification (optional; if unset no token verifies, so scoped methods are rejected as Unauthorized)
//	JWT_AUDIENCES          - comma-separated accepted token audiences (optional; unset skips audience enforcement)
//	REDIS_URL              - Redis address for the registry read-through cache (optional)
//	REDIS_PASSWORD         - Redis password (optional)
//	ANTHROPIC_API_KEY      - Anthropic API key for the default AI provider
//	OPENAI_API_KEY         - OpenAI API key, used when AI_PROVIDER=openai
//	AI_PROVIDER            - "anthropic" or "openai" (default: "anthropic")
//	AI_DEFAULT_MODEL       - model name passed to the provider
//	AI_RATE_LIMIT_RPS      - requests/second allowed to the AI provider (default: 5)
//	SHUTDOWN_TIMEOUT       - graceful shutdown grace period (default: "30s")
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/clue/log"

	"github.com/agentexec/core/internal/a2aserver"
	"github.com/agentexec/core/internal/a2aserver/auth"
	"github.com/agentexec/core/internal/ai"
	"github.com/agentexec/core/internal/ai/anthropic"
	"github.com/agentexec/core/internal/ai/openai"
	"github.com/agentexec/core/internal/ai/ratelimit"
	"github.com/agentexec/core/internal/broadcaster"
	"github.com/agentexec/core/internal/engine"
	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/lifecycle"
	"github.com/agentexec/core/internal/lifecycle/registrycache"
	"github.com/agentexec/core/internal/reqcontext"
	"github.com/agentexec/core/internal/repo/memory"
)

func main() {
	ctx := log.Context(context.Background())
	if err := run(ctx); err != nil {
		log.Fatal(ctx, err)
	}
}

func run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := envOr("AGENTENGINE_ADDR", ":8080")
	shutdownTimeout := envDurationOr("SHUTDOWN_TIMEOUT", 30*time.Second)

	aiService, err := buildAIService()
	if err != nil {
		return fmt.Errorf("build ai service: %w", err)
	}

	cache := buildRegistryCache(ctx)

	taskRepo := memory.NewTaskStore()
	stepRepo := memory.NewStepStore()
	pushRepo := memory.NewPushNotificationStore()

	bus := broadcaster.New[ids.UserId, engine.Event]()
	go broadcaster.RunHeartbeat(ctx, bus, func() engine.Event {
		return engine.Event{Kind: engine.EventKindHeartbeat}
	})

	lifecycleMgr := lifecycle.New(nil, cache)
	go reconcileLoop(ctx, lifecycleMgr)

	var verifier *auth.Verifier
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		verifier = auth.NewVerifier(secret, envAudiences()...)
	}

	srv := &a2aserver.Server{
		Verifier:      verifier,
		TaskRepo:      taskRepo,
		StepRepo:      stepRepo,
		PushRepo:      pushRepo,
		Broadcaster:   bus,
		Strategy:      engine.Planned{},
		AIService:     aiService,
		ToolEndpoints: lifecycleMgr,
		Card: a2aserver.AgentCard{
			ProtocolVersion: "1.0",
			Name:            "agentexec",
			URL:             "http://" + addr,
			Version:         "0.1.0",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", newRPCHandler(srv, verifier))

	httpSrv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 60 * time.Second}

	var wg sync.WaitGroup
	errc := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		go func() {
			log.Printf(ctx, "agentengine listening on %q", addr)
			errc <- httpSrv.ListenAndServe()
		}()

		<-ctx.Done()
		log.Printf(ctx, "shutting down agentengine at %q", addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf(ctx, "failed to shutdown: %v", err)
		}
	}()

	wg.Wait()
	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	default:
	}
	return nil
}

func reconcileLoop(ctx context.Context, mgr *lifecycle.Manager) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mgr.ReconcileCrashed(ctx)
		}
	}
}

func buildAIService() (ai.Service, error) {
	provider := envOr("AI_PROVIDER", "anthropic")
	rps := envFloatOr("AI_RATE_LIMIT_RPS", 5)
	model := envOr("AI_DEFAULT_MODEL", "")

	var svc ai.Service
	switch provider {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
		if model == "" {
			model = "gpt-4o"
		}
		client, err := openai.NewFromAPIKey(key, model)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		svc = client
	default:
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER=anthropic")
		}
		if model == "" {
			model = "claude-sonnet-4-5"
		}
		client, err := anthropic.NewFromAPIKey(key, model)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		svc = client
	}

	return ratelimit.New(svc, rps, 1), nil
}

func buildRegistryCache(ctx context.Context) *registrycache.Cache {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return registrycache.New(nil, "agentengine")
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisURL, Password: os.Getenv("REDIS_PASSWORD")})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf(ctx, "registry cache: redis unavailable, continuing without cache: %v", err)
		return registrycache.New(nil, "agentengine")
	}
	return registrycache.New(rdb, "agentengine")
}

// newRPCHandler builds the single /rpc endpoint: it extracts the bearer
// token and the X-Agent-Name header into a RequestContext, then routes to
// either the SSE streaming pipeline (message/stream, tasks/resubscribe) or
// the synchronous JSON-RPC pipeline, per the method named in the envelope.
func newRPCHandler(srv *a2aserver.Server, verifier *auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		body, err := readBody(r)
		if err != nil {
			resp := a2aserver.NewErrorResponse(nil, a2aserver.ErrorBuilder{}.ParseError("Failed to read request body"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				log.Printf(ctx, "agentengine: failed to encode response: %v", err)
			}
			return
		}

		rc := buildRequestContext(r, verifier)

		method := peekMethod(body)
		if method == a2aserver.MethodMessageStream || method == a2aserver.MethodTasksResubscribe {
			var req a2aserver.Request
			if err := json.Unmarshal(body, &req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			flusher, ok := w.(http.Flusher)
			if !ok {
				http.Error(w, "streaming unsupported", http.StatusInternalServerError)
				return
			}
			srv.HandleStream(ctx, rc, req, flushWriter{w: w, f: flusher})
			return
		}

		resp := srv.HandleRequest(ctx, rc, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatusForResponse(resp))
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf(ctx, "agentengine: failed to encode response: %v", err)
		}
	}
}

// httpStatusForResponse derives the HTTP status line for a JSON-RPC
// response per the error taxonomy: -32700/-32600/-32602 map to 400,
// -32601 to 404, -32603 to 500 — except Unauthorized/Forbidden, which both
// carry -32600 but map to 401/403 respectively, distinguished only by the
// error's Message since the wire code is shared between them.
func httpStatusForResponse(resp a2aserver.Response) int {
	if resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case a2aserver.CodeInvalidRequest:
		switch resp.Error.Message {
		case "Unauthorized":
			return http.StatusUnauthorized
		case "Forbidden":
			return http.StatusForbidden
		default:
			return http.StatusBadRequest
		}
	case a2aserver.CodeParseError, a2aserver.CodeInvalidParams:
		return http.StatusBadRequest
	case a2aserver.CodeMethodNotFound:
		return http.StatusNotFound
	case a2aserver.CodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func peekMethod(body []byte) string {
	var envelope struct {
		Method string `json:"method"`
	}
	_ = json.Unmarshal(body, &envelope)
	return envelope.Method
}

func buildRequestContext(r *http.Request, verifier *auth.Verifier) reqcontext.RequestContext {
	rc := reqcontext.RequestContext{Source: reqcontext.CallSourceHTTP}
	if token := extractBearer(r.Header.Get("Authorization")); token != "" && verifier != nil {
		if ac, err := verifier.Verify(ids.JwtToken(token)); err == nil {
			rc.Auth = ac
		}
	}
	if agent := r.Header.Get("X-Agent-Name"); agent != "" {
		rc.AgentName = ids.AgentName(agent)
	}
	return rc
}

func extractBearer(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

func readBody(r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(r.Body)
}

// flushWriter adapts an http.ResponseWriter + http.Flusher pair to the
// a2aserver.StreamWriter interface.
type flushWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (fw flushWriter) Write(p []byte) (int, error) { return fw.w.Write(p) }
func (fw flushWriter) Flush()                       { fw.f.Flush() }

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envFloatOr(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envDurationOr(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// envAudiences parses JWT_AUDIENCES as a comma-separated list, returning
// nil (no enforcement) when unset.
func envAudiences() []string {
	v := os.Getenv("JWT_AUDIENCES")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	audiences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			audiences = append(audiences, p)
		}
	}
	return audiences
}
