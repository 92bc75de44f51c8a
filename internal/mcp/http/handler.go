package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/mcp"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	dispatcher *mcp.Dispatcher
}

func New(dispatcher *mcp.Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// Register mounts the JSON-RPC endpoint and its webhook alias. Both answer
// HTTP 200 with a JSON-RPC body, errors included.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/mcp", h.rpc)
	r.POST("/webhook/mcp", h.rpc)
}

// rpc also serves callers (n8n, edge functions) that post {method, params}
// without an id; one is generated so the reply can be correlated in logs.
func (h *Handler) rpc(c *gin.Context) {
	req, resp, ok := h.decode(c)
	if !ok {
		c.JSON(http.StatusOK, resp)
		return
	}

	if req.IsNotification() {
		req.ID = json.RawMessage(strconv.Quote(uuid.NewString()))
	}
	c.JSON(http.StatusOK, h.dispatcher.Dispatch(c.Request.Context(), req))
}

func (h *Handler) decode(c *gin.Context) (mcp.Request, mcp.Response, bool) {
	var req mcp.Request
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return req, mcp.ParseErrorResponse(err), false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, mcp.ParseErrorResponse(err), false
	}
	if req.JSONRPC == "" {
		req.JSONRPC = "2.0"
	}
	return req, mcp.Response{}, true
}
