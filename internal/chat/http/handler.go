package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/chat"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
)

const keepAliveInterval = 15 * time.Second

type Handler struct {
	svc *chat.Service
}

func New(svc *chat.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/chat", h.chat)
	rg.POST("/chat/stream", h.stream)
	rg.POST("/analyze-document", h.analyzeDocument)
}

type analyzeRequest struct {
	Content  string `json:"content"`
	NoticeID string `json:"notice_id"`
	Provider string `json:"provider"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chat.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid JSON body"})
		return
	}

	out, err := h.svc.Chat(c.Request.Context(), req)
	if err != nil {
		writeError(c, "chat", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"content":  out.Content,
		"model":    out.Model,
		"provider": out.Provider,
	})
}

func (h *Handler) stream(c *gin.Context) {
	var req chat.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid JSON body"})
		return
	}
	if err := h.svc.Validate(req); err != nil {
		writeError(c, "chat_stream", err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	var mu sync.Mutex
	emit := func(event, data string) {
		mu.Lock()
		defer mu.Unlock()
		if event == "" {
			fmt.Fprint(c.Writer, data)
		} else {
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data)
		}
		flusher.Flush()
	}

	ctx := c.Request.Context()
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				emit("", ": keep-alive\n\n")
			}
		}
	}()

	out, err := h.svc.StreamChat(ctx, req, func(delta string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit("delta", jsonString(delta))
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.NewLogger(ctx).LogError("chat_stream", err)
		emit("error", mustJSON(gin.H{"ok": false, "error": err.Error()}))
		return
	}

	emit("done", mustJSON(gin.H{
		"ok":       true,
		"content":  out.Content,
		"model":    out.Model,
		"provider": out.Provider,
	}))
}

func (h *Handler) analyzeDocument(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid JSON body"})
		return
	}

	out, err := h.svc.AnalyzeDocument(c.Request.Context(), req.Content, req.NoticeID, req.Provider)
	if err != nil {
		writeError(c, "analyze_document", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": out})
}

func writeError(c *gin.Context, operation string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrEmptyMessages),
		errors.Is(err, domain.ErrUnknownProvider),
		errors.Is(err, domain.ErrMissingContent):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrProviderNotConfigured):
		status = http.StatusServiceUnavailable
	default:
		logging.NewLogger(c.Request.Context()).LogError(operation, err)
	}
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
