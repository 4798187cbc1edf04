package handler

import (
	"net/http"

	"github.com/GoPolymarket/clawdash/internal/middleware"
	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/pkg/apperrors"
	"github.com/GoPolymarket/clawdash/internal/poll"
	"github.com/GoPolymarket/clawdash/internal/service"
	"github.com/gin-gonic/gin"
)

type OwnerHandler struct {
	svc     *service.DashboardService
	watcher *poll.Watcher
}

func NewOwnerHandler(svc *service.DashboardService, watcher *poll.Watcher) *OwnerHandler {
	return &OwnerHandler{svc: svc, watcher: watcher}
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type pauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

// List returns the owner table with masked keys and configured flags.
func (h *OwnerHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Owners().Profiles())
}

func (h *OwnerHandler) Dashboard(c *gin.Context) {
	owner := c.Param("owner")
	view, err := h.svc.Owner(c.Request.Context(), owner)
	if err != nil {
		fail(c, err, owner)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *OwnerHandler) View(c *gin.Context) {
	owner := c.Param("owner")
	view, err := h.watcher.OwnerView(owner)
	if err != nil {
		fail(c, err, owner)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *OwnerHandler) Facet(facet model.Facet) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.Param("owner")
		value, err := h.svc.OwnerFacet(c.Request.Context(), owner, facet)
		if err != nil {
			fail(c, err, owner)
			return
		}
		c.JSON(http.StatusOK, value)
	}
}

func (h *OwnerHandler) ToggleCron(c *gin.Context) {
	owner, name := c.Param("owner"), c.Param("name")
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest("body must be {\"enabled\": bool}"))
		return
	}
	middleware.AddAuditContext(c, "action", "toggle_cron")
	middleware.AddAuditContext(c, "cron", name)
	middleware.AddAuditContext(c, "enabled", *req.Enabled)

	resp, err := h.svc.ToggleCron(c.Request.Context(), owner, name, *req.Enabled)
	if err != nil {
		fail(c, err, owner)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", resp)
}

func (h *OwnerHandler) RunCron(c *gin.Context) {
	owner, name := c.Param("owner"), c.Param("name")
	middleware.AddAuditContext(c, "action", "run_cron")
	middleware.AddAuditContext(c, "cron", name)

	resp, err := h.svc.RunCron(c.Request.Context(), owner, name)
	if err != nil {
		fail(c, err, owner)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", resp)
}

func (h *OwnerHandler) PauseBot(c *gin.Context) {
	owner, bot := c.Param("owner"), c.Param("bot")
	var req pauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest("body must be {\"paused\": bool}"))
		return
	}
	middleware.AddAuditContext(c, "action", "pause_bot")
	middleware.AddAuditContext(c, "bot", bot)
	middleware.AddAuditContext(c, "paused", *req.Paused)

	resp, err := h.svc.PauseBot(c.Request.Context(), owner, bot, *req.Paused)
	if err != nil {
		fail(c, err, owner)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", resp)
}
