package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/watches"
)

type Store interface {
	Create(ctx context.Context, w watches.Watch) (watches.Watch, error)
	List(ctx context.Context) ([]watches.Watch, error)
	Get(ctx context.Context, id string) (watches.Watch, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	store Store
}

func New(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.GET("/:id", h.get)
	rg.DELETE("/:id", h.delete)
}

type createWatchRequest struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	UF       string   `json:"uf"`
	MinValue float64  `json:"min_value"`
}

func (h *Handler) create(c *gin.Context) {
	var req createWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid JSON body"})
		return
	}

	w := watches.Watch{Name: req.Name, Keywords: req.Keywords, UF: req.UF, MinValue: req.MinValue}
	w.Normalize()
	if err := w.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	created, err := h.store.Create(c.Request.Context(), w)
	if err != nil {
		if errors.Is(err, domain.ErrWatchExists) {
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "a watch with this name already exists"})
			return
		}
		logging.NewLogger(c.Request.Context()).LogError("create_watch", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to create watch"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "watch": created})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.store.List(c.Request.Context())
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("list_watches", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to list watches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

func (h *Handler) get(c *gin.Context) {
	w, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get_watch", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "watch": w})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "delete_watch", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) fail(c *gin.Context, operation string, err error) {
	if errors.Is(err, domain.ErrWatchNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "watch not found"})
		return
	}
	logging.NewLogger(c.Request.Context()).LogError(operation, err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
}
