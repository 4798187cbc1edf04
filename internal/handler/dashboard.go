package handler

import (
	"net/http"
	"strconv"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/poll"
	"github.com/GoPolymarket/clawdash/internal/service"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	svc      *service.DashboardService
	activity *service.ActivityLog
	watcher  *poll.Watcher
}

func NewDashboardHandler(svc *service.DashboardService, activity *service.ActivityLog, watcher *poll.Watcher) *DashboardHandler {
	return &DashboardHandler{svc: svc, activity: activity, watcher: watcher}
}

// Dashboard runs one home aggregation round.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	view, err := h.svc.Home(c.Request.Context())
	if err != nil {
		fail(c, err, h.svc.Owners().HomeOwner())
		return
	}
	c.JSON(http.StatusOK, view)
}

// Facet serves a single home facet.
func (h *DashboardHandler) Facet(facet model.Facet) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := h.svc.HomeFacet(c.Request.Context(), facet)
		if err != nil {
			fail(c, err, h.svc.Owners().HomeOwner())
			return
		}
		c.JSON(http.StatusOK, value)
	}
}

// View serves the retained home view kept by the poller.
func (h *DashboardHandler) View(c *gin.Context) {
	view, err := h.watcher.HomeView()
	if err != nil {
		fail(c, err, h.svc.Owners().HomeOwner())
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DashboardHandler) Activity(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	c.JSON(http.StatusOK, h.activity.List(c.Query("view"), limit))
}
