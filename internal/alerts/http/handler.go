package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/alerts"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
)

type Source interface {
	Recent(ctx context.Context, n int) ([]alerts.Alert, error)
	Subscribe(ctx context.Context) (<-chan alerts.Alert, error)
}

type Handler struct {
	source    Source
	keepAlive time.Duration
}

func New(source Source) *Handler {
	return &Handler{source: source, keepAlive: 15 * time.Second}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.recent)
	rg.GET("/stream", h.stream)
}

func (h *Handler) recent(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, err := h.source.Recent(c.Request.Context(), n)
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("recent_alerts", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to load alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

// stream pushes every published alert to the client using Server-Sent Events
func (h *Handler) stream(c *gin.Context) {
	ctx := c.Request.Context()

	ch, err := h.source.Subscribe(ctx)
	if err != nil {
		logging.NewLogger(ctx).LogError("alerts_stream", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "realtime channel unavailable"})
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
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering
	c.Status(http.StatusOK)

	fmt.Fprint(c.Writer, "event: ready\ndata: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case a, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(a)
			fmt.Fprintf(c.Writer, "id: %s\nevent: alert\ndata: %s\n\n", a.ID, data)
			flusher.Flush()
		}
	}
}
