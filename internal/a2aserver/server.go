package a2aserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"goa.design/clue/log"

	"github.com/agentexec/core/internal/a2aserver/auth"
	"github.com/agentexec/core/internal/a2aserver/classify"
	"github.com/agentexec/core/internal/ai"
	"github.com/agentexec/core/internal/broadcaster"
	"github.com/agentexec/core/internal/engine"
	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/reqcontext"
	"github.com/agentexec/core/internal/repo"
	"github.com/agentexec/core/internal/tools"
	"github.com/agentexec/core/internal/tools/mcpexec"
)

// Methods supported by the front-end, exhaustively.
const (
	MethodMessageSend                     = "message/send"
	MethodMessageStream                   = "message/stream"
	MethodTasksGet                        = "tasks/get"
	MethodTasksCancel                     = "tasks/cancel"
	MethodTasksResubscribe                = "tasks/resubscribe"
	MethodPushNotificationConfigSet       = "tasks/pushNotificationConfig/set"
	MethodPushNotificationConfigGet       = "tasks/pushNotificationConfig/get"
	MethodPushNotificationConfigList      = "tasks/pushNotificationConfig/list"
	MethodPushNotificationConfigDelete    = "tasks/pushNotificationConfig/delete"
	MethodAgentGetAuthenticatedExtendedCard = "agent/getAuthenticatedExtendedCard"
)

// requiredScopes is the method-to-scopes gate: the OAuth scopes a bearer
// token's claims must be a superset of before the method may run. A method
// absent from this table requires no authentication at all (discovery-style
// calls, e.g. agent/getAuthenticatedExtendedCard).
var requiredScopes = map[string][]string{
	MethodMessageSend:                  {"a2a:task:write"},
	MethodMessageStream:                {"a2a:task:write"},
	MethodTasksGet:                     {"a2a:task:read"},
	MethodTasksCancel:                  {"a2a:task:write"},
	MethodTasksResubscribe:             {"a2a:task:read"},
	MethodPushNotificationConfigSet:    {"a2a:push:write"},
	MethodPushNotificationConfigGet:    {"a2a:push:read"},
	MethodPushNotificationConfigDelete: {"a2a:push:write"},
}

// AgentCard is the capability descriptor returned by
// agent/getAuthenticatedExtendedCard.
type AgentCard struct {
	ProtocolVersion string   `json:"protocolVersion"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	URL             string   `json:"url"`
	Version         string   `json:"version"`
	Skills          []string `json:"skills,omitempty"`
}

// Server implements the A2A JSON-RPC front-end: envelope parsing, method
// dispatch, the OAuth gate, and SSE streaming, grounded on the teacher's
// prior A2A server implementation but speaking the newer
// message/send+message/stream method dialect instead of tasks/send.
type Server struct {
	Verifier     *auth.Verifier
	TaskRepo     repo.TaskRepository
	StepRepo     repo.ExecutionStepRepository
	PushRepo     repo.PushNotificationRepository
	Broadcaster  *broadcaster.Broadcaster[ids.UserId, engine.Event]
	Strategy     engine.Strategy
	AIService    ai.Service
	// ToolEndpoints resolves the MCP endpoint for a given agent name; when
	// set, each task gets a tool executor scoped to the agent it targets.
	// Nil disables tool execution (direct-response-only planning).
	ToolEndpoints mcpexec.Endpoints
	Card          AgentCard
	errs          ErrorBuilder
}

func (s *Server) toolExecutorFor(agentName string) tools.Executor {
	if s.ToolEndpoints == nil {
		return nil
	}
	return mcpexec.New(s.ToolEndpoints, agentName)
}

// HandleRequest runs the full request-processing pipeline for a
// non-streaming call and returns the JSON-RPC response envelope to write
// back verbatim.
func (s *Server) HandleRequest(ctx context.Context, rc reqcontext.RequestContext, body []byte) Response {
	req, rpcErr := s.parseEnvelope(body)
	if rpcErr != nil {
		return NewErrorResponse(nil, rpcErr)
	}

	if rpcErr := s.authGate(&rc, req.Method); rpcErr != nil {
		return NewErrorResponse(req.ID, rpcErr)
	}

	ctx = reqcontext.WithRequestContext(ctx, rc)

	switch req.Method {
	case MethodMessageSend:
		return s.handleMessageSend(ctx, rc, req)
	case MethodTasksGet:
		return s.handleTasksGet(ctx, req)
	case MethodTasksCancel:
		return s.handleTasksCancel(ctx, req)
	case MethodPushNotificationConfigSet:
		return s.handlePushSet(ctx, req)
	case MethodPushNotificationConfigGet:
		return s.handlePushGet(ctx, req)
	case MethodPushNotificationConfigDelete:
		return s.handlePushDelete(ctx, req)
	case MethodPushNotificationConfigList:
		// Routed but intentionally not dispatched: see the open question
		// about this method's intended behavior.
		return NewErrorResponse(req.ID, s.errs.MethodNotFound(req.Method))
	case MethodAgentGetAuthenticatedExtendedCard:
		return s.handleAgentCard(req)
	case MethodMessageStream, MethodTasksResubscribe:
		return NewErrorResponse(req.ID, s.errs.InvalidRequest("use the streaming endpoint for this method"))
	default:
		return NewErrorResponse(req.ID, s.errs.MethodNotFound(req.Method))
	}
}

func (s *Server) parseEnvelope(body []byte) (Request, *RPCError) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, s.errs.ParseError(err.Error())
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return Request{}, s.errs.InvalidRequest("missing jsonrpc version or method")
	}
	return req, nil
}

func (s *Server) authGate(rc *reqcontext.RequestContext, method string) *RPCError {
	scopes, ok := requiredScopes[method]
	if !ok {
		return nil
	}
	if !rc.Auth.Authenticated {
		return s.errs.Unauthorized("bearer token required")
	}
	if !rc.Auth.HasAllScopes(scopes) {
		return s.errs.Forbidden(fmt.Sprintf("missing required scope(s): %s", strings.Join(scopes, ", ")))
	}
	return nil
}

func (s *Server) handleMessageSend(ctx context.Context, rc reqcontext.RequestContext, req Request) Response {
	var params SendMessageParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, s.errs.InvalidParams(err.Error()))
	}
	if params.Message.ContextID == "" {
		return NewErrorResponse(req.ID, s.errs.MissingContextID())
	}

	taskID := ids.NewTaskId()
	contextID := ids.ContextId(params.Message.ContextID)
	userMsg := toDomainMessage(params.Message, taskID, contextID)

	ec := engine.ExecutionContext{
		TaskId:       taskID,
		ContextId:    contextID,
		AgentName:    string(rc.AgentName),
		RequestCtx:   rc,
		AIService:    s.AIService,
		ToolExecutor: s.toolExecutorFor(string(rc.AgentName)),
		EventSink:    s.sinkFor(rc.Auth.UserId, contextID),
		StepRepo:     s.StepRepo,
	}

	task, err := engine.Run(ctx, ec, s.Strategy, userMsg, []model.Message{userMsg}, s.TaskRepo)
	if err != nil {
		log.Printf(ctx, "a2aserver: message/send failed: %v", err)
		return NewErrorResponse(req.ID, s.errs.Internal(classify.RepositoryError(err)))
	}

	resp, err := NewResultResponse(req.ID, task)
	if err != nil {
		return NewErrorResponse(req.ID, s.errs.Internal(err.Error()))
	}
	return resp
}

func (s *Server) handleTasksGet(ctx context.Context, req Request) Response {
	var params GetTaskParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, s.errs.InvalidParams(err.Error()))
	}
	task, err := s.TaskRepo.GetTask(ctx, ids.TaskId(params.ID))
	if err != nil {
		return NewErrorResponse(req.ID, s.errs.TaskNotFound(params.ID))
	}
	resp, err := NewResultResponse(req.ID, task)
	if err != nil {
		return NewErrorResponse(req.ID, s.errs.Internal(err.Error()))
	}
	return resp
}

func (s *Server) handleTasksCancel(ctx context.Context, req Request) Response {
	var params GetTaskParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, s.errs.InvalidParams(err.Error()))
	}
	task, err := s.TaskRepo.GetTask(ctx, ids.TaskId(params.ID))
	if err != nil {
		return NewErrorResponse(req.ID, s.errs.TaskNotFound(params.ID))
	}
	if !task.Status.State.Terminal() {
		task.SetStatus(model.TaskStateCanceled, nil)
		if err := s.TaskRepo.SaveTask(ctx, task); err != nil {
			return NewErrorResponse(req.ID, s.errs.Internal(classify.RepositoryError(err)))
		}
	}
	resp, err := NewResultResponse(req.ID, task)
	if err != nil {
		return NewErrorResponse(req.ID, s.errs.Internal(err.Error()))
	}
	return resp
}

func (s *Server) handlePushSet(ctx context.Context, req Request) Response {
	var cfg PushNotificationConfig
	if err := json.Unmarshal(req.Params, &cfg); err != nil {
		return NewErrorResponse(req.ID, s.errs.InvalidParams(err.Error()))
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	rec := repo.PushNotificationConfig{TaskID: ids.TaskId(cfg.TaskID), ID: cfg.ID, URL: cfg.URL, Token: cfg.Token}
	if err := s.PushRepo.Set(ctx, rec); err != nil {
		return NewErrorResponse(req.ID, s.errs.Internal(classify.RepositoryError(err)))
	}
	resp, _ := NewResultResponse(req.ID, cfg)
	return resp
}

func (s *Server) handlePushGet(ctx context.Context, req Request) Response {
	var id PushNotificationConfigID
	if err := json.Unmarshal(req.Params, &id); err != nil {
		return NewErrorResponse(req.ID, s.errs.InvalidParams(err.Error()))
	}
	cfg, err := s.PushRepo.Get(ctx, ids.TaskId(id.TaskID), id.ID)
	if err != nil {
		return NewErrorResponse(req.ID, s.errs.TaskNotFound(id.TaskID))
	}
	resp, _ := NewResultResponse(req.ID, cfg)
	return resp
}

func (s *Server) handlePushDelete(ctx context.Context, req Request) Response {
	var id PushNotificationConfigID
	if err := json.Unmarshal(req.Params, &id); err != nil {
		return NewErrorResponse(req.ID, s.errs.InvalidParams(err.Error()))
	}
	if err := s.PushRepo.Delete(ctx, ids.TaskId(id.TaskID), id.ID); err != nil {
		return NewErrorResponse(req.ID, s.errs.TaskNotFound(id.TaskID))
	}
	resp, _ := NewResultResponse(req.ID, map[string]bool{"deleted": true})
	return resp
}

func (s *Server) handleAgentCard(req Request) Response {
	resp, err := NewResultResponse(req.ID, s.Card)
	if err != nil {
		return NewErrorResponse(req.ID, s.errs.Internal(err.Error()))
	}
	return resp
}

func (s *Server) sinkFor(userID ids.UserId, contextID ids.ContextId) engine.EventSink {
	if s.Broadcaster == nil {
		return engine.NopSink{}
	}
	return broadcastSink{b: s.Broadcaster, userID: userID}
}

func toDomainMessage(wm WireMessage, taskID ids.TaskId, contextID ids.ContextId) model.Message {
	parts := make([]model.Part, 0, len(wm.Parts))
	for _, p := range wm.Parts {
		switch p.Kind {
		case "text":
			parts = append(parts, model.NewTextPart(p.Text))
		case "data":
			parts = append(parts, model.NewDataPart(p.Data))
		}
	}
	role := model.RoleUser
	if wm.Role == "agent" {
		role = model.RoleAgent
	}
	return model.Message{
		MessageId: ids.MessageId(wm.MessageID),
		TaskId:    taskID,
		ContextId: contextID,
		Role:      role,
		Parts:     parts,
		Metadata:  wm.Metadata,
	}
}

// broadcastSink adapts the generic Broadcaster to engine.EventSink.
type broadcastSink struct {
	b      *broadcaster.Broadcaster[ids.UserId, engine.Event]
	userID ids.UserId
}

func (s broadcastSink) Send(event engine.Event) {
	s.b.Broadcast(s.userID, event)
}
