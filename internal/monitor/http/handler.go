package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/monitor"
)

type Runner interface {
	Run(ctx context.Context) (monitor.RunSummary, error)
}

type Handler struct {
	job Runner
}

func New(job Runner) *Handler {
	return &Handler{job: job}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/run", h.run)
}

// run triggers a monitor cycle and waits for its summary.
func (h *Handler) run(c *gin.Context) {
	sum, err := h.job.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, monitor.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
			return
		}
		logging.NewLogger(c.Request.Context()).LogError("monitor_manual_run", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "monitor run failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": sum})
}
