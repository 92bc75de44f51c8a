package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/metrics"
)

const serverName = "licita-mcp"

// Dispatcher routes JSON-RPC requests to the notice tools. It holds no
// per-request state and is safe for concurrent use.
type Dispatcher struct {
	source  NoticeSource
	scorer  RiskScorer
	version string
	tools   map[string]tool
	order   []string
}

func NewDispatcher(source NoticeSource, scorer RiskScorer, version string) *Dispatcher {
	d := &Dispatcher{
		source:  source,
		scorer:  scorer,
		version: version,
		tools:   map[string]tool{},
	}
	for _, t := range d.buildTools() {
		d.tools[t.desc.Name] = t
		d.order = append(d.order, t.desc.Name)
	}
	return d
}

// Tools returns the tool descriptions in registration order.
func (d *Dispatcher) Tools() []ToolDescription {
	out := make([]ToolDescription, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.tools[name].desc)
	}
	return out
}

// Dispatch handles one request. A bare tool name is accepted as the method,
// with params holding the tool arguments; that is how the n8n webhooks call
// in.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	logger := logging.NewLogger(ctx)

	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		metrics.RecordRPC("invalid", "error")
		return errorResponse(req.ID, CodeInvalidRequest, fmt.Sprintf("unsupported jsonrpc version %q", req.JSONRPC))
	}
	if req.Method == "" {
		metrics.RecordRPC("invalid", "error")
		return errorResponse(req.ID, CodeInvalidRequest, "method is required")
	}

	var resp Response
	label := req.Method
	switch req.Method {
	case "initialize":
		resp = resultResponse(req.ID, initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    serverCapabilities{Tools: &toolCapability{}},
			ServerInfo:      serverInfo{Name: serverName, Version: d.version},
		})
	case "notifications/initialized", "ping":
		resp = resultResponse(req.ID, struct{}{})
	case "tools/list":
		resp = resultResponse(req.ID, toolsListResult{Tools: d.Tools()})
	case "tools/call":
		resp = d.handleToolsCall(ctx, req)
	default:
		t, ok := d.tools[req.Method]
		if !ok {
			label = "unknown"
			resp = errorResponse(req.ID, CodeMethodNotFound, "method not found: "+req.Method)
			break
		}
		result, err := t.run(ctx, req.Params)
		if err != nil {
			resp = toolErrorResponse(req.ID, err)
		} else {
			resp = resultResponse(req.ID, result)
		}
	}

	outcome := "ok"
	if resp.Error != nil {
		outcome = "error"
		logger.LogWarnf("mcp_dispatch", "method=%s code=%d message=%s", req.Method, resp.Error.Code, resp.Error.Message)
	}
	metrics.RecordRPC(label, outcome)
	return resp
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req Request) Response {
	var params toolsCallParams
	if len(req.Params) == 0 {
		return errorResponse(req.ID, CodeInvalidParams, "params are required for tools/call")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "invalid tools/call params: "+err.Error())
	}
	if params.Name == "" {
		return errorResponse(req.ID, CodeInvalidParams, "tool name is required")
	}

	t, ok := d.tools[params.Name]
	if !ok {
		return errorResponse(req.ID, CodeMethodNotFound, "tool not found: "+params.Name)
	}

	result, err := t.run(ctx, params.Arguments)
	if err != nil {
		return toolErrorResponse(req.ID, err)
	}

	text, err := json.Marshal(result)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, "encode tool result: "+err.Error())
	}
	return resultResponse(req.ID, ToolResult{
		Content:           []ContentBlock{{Type: "text", Text: string(text)}},
		StructuredContent: result,
	})
}

func toolErrorResponse(id json.RawMessage, err error) Response {
	switch {
	case errors.Is(err, errInvalidParams), errors.Is(err, domain.ErrInvalidNoticeID):
		return errorResponse(id, CodeInvalidParams, err.Error())
	default:
		return errorResponse(id, CodeInternalError, err.Error())
	}
}
