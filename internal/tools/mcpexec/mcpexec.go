// Package mcpexec implements tools.Executor by calling tools/call over the
// Model Context Protocol's JSON-RPC-over-HTTP transport, grounded on the
// teacher's MCP HTTP caller. Each managed agent process is addressed at the
// host:port the lifecycle manager started it on.
package mcpexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/agentexec/core/internal/tools"
)

// DefaultProtocolVersion is the MCP protocol version this caller speaks.
const DefaultProtocolVersion = "2024-11-05"

// Endpoints resolves the MCP endpoint URL to call for a given agent name,
// typically backed by the lifecycle manager's Status lookup.
type Endpoints interface {
	EndpointFor(ctx context.Context, agentName string) (string, error)
}

// Executor calls tools/call over HTTP JSON-RPC against the agent process
// that owns the requested tool.
type Executor struct {
	endpoints Endpoints
	client    *http.Client
	agentName string
	nextID    atomic.Uint64
}

// New constructs an Executor that resolves agentName's endpoint through
// endpoints on every call.
func New(endpoints Endpoints, agentName string) *Executor {
	return &Executor{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 30 * time.Second},
		agentName: agentName,
	}
}

var _ tools.Executor = (*Executor)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      uint64 `json:"id"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type toolsCallResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StructuredContent map[string]any `json:"structuredContent"`
	IsError           bool           `json:"isError"`
}

// Execute implements tools.Executor.
func (e *Executor) Execute(ctx context.Context, call tools.Call) (tools.Result, error) {
	endpoint, err := e.endpoints.EndpointFor(ctx, e.agentName)
	if err != nil {
		return tools.Result{}, fmt.Errorf("resolve endpoint for %s: %w", e.agentName, err)
	}

	params := map[string]any{
		"name":      string(call.Name),
		"arguments": call.Args,
	}
	var result toolsCallResult
	if err := e.call(ctx, endpoint, "tools/call", params, &result); err != nil {
		return tools.Result{}, err
	}

	text := ""
	for _, c := range result.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	return tools.Result{
		Text:              text,
		IsError:           result.IsError,
		StructuredContent: result.StructuredContent,
	}, nil
}

func (e *Executor) call(ctx context.Context, endpoint, method string, params, result any) error {
	id := e.nextID.Add(1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, ID: id, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mcp rpc status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("mcp rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if result != nil && rpcResp.Result != nil {
		return json.Unmarshal(rpcResp.Result, result)
	}
	return nil
}
