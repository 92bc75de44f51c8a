package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/notices/repository"
)

type Store interface {
	Upsert(ctx context.Context, n domain.Notice) (bool, error)
	Get(ctx context.Context, id string) (domain.Notice, error)
	List(ctx context.Context, f repository.Filter) ([]domain.Notice, int, error)
	Delete(ctx context.Context, id string) error
}

type RiskScorer interface {
	Assess(text, noticeID string) (domain.RiskAssessment, error)
}

type Handler struct {
	store  Store
	scorer RiskScorer
}

func New(store Store, scorer RiskScorer) *Handler {
	return &Handler{store: store, scorer: scorer}
}

// Register mounts the notice routes. PNCP control numbers contain a slash
// (CNPJ-1-SEQ/ANO), so the id is a catch-all segment.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", h.save)
	rg.GET("/*id", h.getOrRisk)
	rg.DELETE("/*id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	f := repository.Filter{
		Status: c.Query("status"),
		Org:    c.Query("org"),
		UF:     c.Query("uf"),
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
	}

	items, total, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("list_notices", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to list notices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items, "total": total})
}

func (h *Handler) save(c *gin.Context) {
	var n domain.Notice
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid JSON body"})
		return
	}
	n.ID = strings.TrimSpace(n.ID)
	if n.ID == "" || strings.TrimSpace(n.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "id and title are required"})
		return
	}

	created, err := h.store.Upsert(c.Request.Context(), n)
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("save_notice", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to save notice"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"ok": true, "notice": n, "created": created})
}

func (h *Handler) getOrRisk(c *gin.Context) {
	id := strings.Trim(c.Param("id"), "/")
	if strings.HasSuffix(id, "/risk") {
		h.risk(c, strings.TrimSuffix(id, "/risk"))
		return
	}
	h.get(c, id)
}

func (h *Handler) get(c *gin.Context, id string) {
	n, ok := h.load(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "notice": n})
}

// risk scores the stored notice; the assessment is not persisted.
func (h *Handler) risk(c *gin.Context, id string) {
	n, ok := h.load(c, id)
	if !ok {
		return
	}

	assessment, err := h.scorer.Assess(n.Text(), n.ID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingContent) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": "notice has no text to score"})
			return
		}
		logging.NewLogger(c.Request.Context()).LogError("notice_risk", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to score notice"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "risk": assessment})
}

func (h *Handler) delete(c *gin.Context) {
	id := strings.Trim(c.Param("id"), "/")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "id is required"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNoticeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "notice not found"})
			return
		}
		logging.NewLogger(c.Request.Context()).LogError("delete_notice", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to delete notice"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) load(c *gin.Context, id string) (domain.Notice, bool) {
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "id is required"})
		return domain.Notice{}, false
	}

	n, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNoticeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "notice not found"})
			return domain.Notice{}, false
		}
		logging.NewLogger(c.Request.Context()).LogError("get_notice", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to get notice"})
		return domain.Notice{}, false
	}
	return n, true
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
