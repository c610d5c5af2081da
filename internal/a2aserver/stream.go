package a2aserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"goa.design/clue/log"

	"github.com/agentexec/core/internal/broadcaster"
	"github.com/agentexec/core/internal/engine"
	"github.com/agentexec/core/internal/ids"
	"github.com/agentexec/core/internal/model"
	"github.com/agentexec/core/internal/reqcontext"
)

// StreamWriter is the minimal surface HandleStream needs from the HTTP
// response writer: a place to write SSE frames and a signal to flush them
// promptly, so this package never imports net/http directly.
type StreamWriter interface {
	io.Writer
	Flush()
}

// HandleStream serves message/stream and tasks/resubscribe as an SSE
// response: it registers a connection on the broadcaster, kicks off
// message/send in the background when the call is message/stream, and
// copies every event fanned out for the caller's user onto w until the
// client disconnects or the task reaches a terminal state.
func (s *Server) HandleStream(ctx context.Context, rc reqcontext.RequestContext, req Request, w StreamWriter) {
	if rpcErr := s.authGate(&rc, req.Method); rpcErr != nil {
		writeSSEError(w, rpcErr)
		return
	}
	switch req.Method {
	case MethodMessageStream:
		s.streamMessageSend(ctx, rc, req, w)
	case MethodTasksResubscribe:
		s.streamResubscribe(ctx, rc, req, w)
	default:
		writeSSEError(w, s.errs.InvalidRequest("not a streaming method"))
	}
}

func (s *Server) streamMessageSend(ctx context.Context, rc reqcontext.RequestContext, req Request, w StreamWriter) {
	var params SendMessageParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeSSEError(w, s.errs.InvalidParams(err.Error()))
		return
	}
	if params.Message.ContextID == "" {
		writeSSEError(w, s.errs.MissingContextID())
		return
	}

	taskID := ids.NewTaskId()
	contextID := ids.ContextId(params.Message.ContextID)
	userMsg := toDomainMessage(params.Message, taskID, contextID)
	connID := uuid.NewString()

	events := s.Broadcaster.Register(rc.Auth.UserId, connID)
	defer s.Broadcaster.Unregister(rc.Auth.UserId, connID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ec := engine.ExecutionContext{
			TaskId:       taskID,
			ContextId:    contextID,
			AgentName:    string(rc.AgentName),
			RequestCtx:   rc,
			AIService:    s.AIService,
			ToolExecutor: s.toolExecutorFor(string(rc.AgentName)),
			StepRepo:     s.StepRepo,
			EventSink:    broadcastSink{b: s.Broadcaster, userID: rc.Auth.UserId},
		}
		if _, err := engine.Run(ctx, ec, s.Strategy, userMsg, []model.Message{userMsg}, s.TaskRepo); err != nil {
			log.Printf(ctx, "a2aserver: streamed message/send failed: %v", err)
		}
	}()

	s.pumpEvents(ctx, w, events, done)
}

func (s *Server) streamResubscribe(ctx context.Context, rc reqcontext.RequestContext, req Request, w StreamWriter) {
	var params GetTaskParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeSSEError(w, s.errs.InvalidParams(err.Error()))
		return
	}
	task, err := s.TaskRepo.GetTask(ctx, ids.TaskId(params.ID))
	if err != nil {
		writeSSEError(w, s.errs.TaskNotFound(params.ID))
		return
	}
	writeSSEEvent(w, engine.Event{
		Kind:      engine.EventKindStatusUpdate,
		TaskId:    task.TaskId,
		ContextId: task.ContextId,
		Status:    &task.Status,
		Final:     task.Status.State.Terminal(),
	})
	if task.Status.State.Terminal() {
		return
	}

	connID := uuid.NewString()
	events := s.Broadcaster.Register(rc.Auth.UserId, connID)
	defer s.Broadcaster.Unregister(rc.Auth.UserId, connID)

	s.pumpEvents(ctx, w, events, nil)
}

// pumpEvents copies events onto w until the context is canceled, the
// producer closes events, or (for message/stream) the background run
// signals completion via done. A ticker injects a heartbeat frame every
// broadcaster.HeartbeatInterval so intermediate proxies do not time out an
// idle stream.
func (s *Server) pumpEvents(ctx context.Context, w StreamWriter, events <-chan engine.Event, done <-chan struct{}) {
	ticker := time.NewTicker(broadcaster.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind == engine.EventKindHeartbeat {
				writeSSEHeartbeat(w)
				continue
			}
			writeSSEEvent(w, ev)
			if ev.Final {
				return
			}
		case <-ticker.C:
			writeSSEHeartbeat(w)
		case <-done:
			// A nil done channel (tasks/resubscribe has no background
			// run to wait on) never fires, so this case simply never
			// selects in that mode.
			return
		}
	}
}

func writeSSEEvent(w StreamWriter, ev engine.Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", raw)
	w.Flush()
}

// writeSSEHeartbeat writes a comment-line keep-alive (": heartbeat\n\n"), the SSE
// idiom for frames a client's EventSource must ignore rather than deliver to
// onmessage.
func writeSSEHeartbeat(w StreamWriter) {
	fmt.Fprintf(w, ": heartbeat\n\n")
	w.Flush()
}

func writeSSEError(w StreamWriter, rpcErr *RPCError) {
	raw, err := json.Marshal(rpcErr)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", raw)
	w.Flush()
}
