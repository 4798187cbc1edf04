package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/GoPolymarket/clawdash/internal/config"
	"github.com/GoPolymarket/clawdash/internal/middleware"
	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/poll"
	"github.com/GoPolymarket/clawdash/internal/service"
	"github.com/GoPolymarket/clawdash/internal/stream"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface needs. Watcher, Hub and Audit
// are optional.
type Deps struct {
	Config      *config.Config
	Auth        *service.AuthService
	Dashboard   *service.DashboardService
	Activity    *service.ActivityLog
	Watcher     *poll.Watcher
	Hub         *stream.Hub
	Audit       *service.AuditService
	Idempotency middleware.IdempotencyStore
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	if d.Audit != nil {
		r.Use(middleware.AuditMiddleware(d.Audit, cfg.Metrics.Path))
	}
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.SessionGate(d.Auth, cfg.Metrics.Path))

	authHandler := NewAuthHandler(d.Auth, cfg.Auth.CookieSecure)
	dashHandler := NewDashboardHandler(d.Dashboard, d.Activity, d.Watcher)
	ownerHandler := NewOwnerHandler(d.Dashboard, d.Watcher)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "clawdash"})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	r.GET(middleware.LoginPath, authHandler.LoginPage)
	if dir := cfg.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Static("/static", dir)
			index := filepath.Join(dir, "index.html")
			r.GET("/", func(c *gin.Context) {
				if _, err := os.Stat(index); err != nil {
					c.JSON(http.StatusOK, gin.H{"service": "clawdash"})
					return
				}
				c.File(index)
			})
		}
	}

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
	}

	api := r.Group("/api")
	{
		api.GET("/dashboard", dashHandler.Dashboard)
		for _, f := range []model.Facet{
			model.FacetPortfolio, model.FacetPositions, model.FacetTrades,
			model.FacetMarkets, model.FacetBriefing, model.FacetExecutions,
		} {
			api.GET("/"+string(f), dashHandler.Facet(f))
		}
		api.GET("/activity", dashHandler.Activity)

		api.GET("/owners", ownerHandler.List)
		owner := api.Group("/owners/:owner")
		owner.GET("/dashboard", ownerHandler.Dashboard)
		for _, f := range []model.Facet{
			model.FacetStatus, model.FacetTrades, model.FacetLeaderboard,
			model.FacetCrons, model.FacetWallet,
		} {
			owner.GET("/"+string(f), ownerHandler.Facet(f))
		}

		idem := d.Idempotency
		if idem == nil {
			idem = middleware.NewInMemIdempotencyStore(0)
		}
		writes := owner.Group("",
			middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly),
			middleware.RateLimitMiddleware(d.Dashboard.Owners()),
			middleware.IdempotencyMiddleware(idem),
		)
		writes.POST("/crons/:name/toggle", ownerHandler.ToggleCron)
		writes.POST("/crons/:name/run", ownerHandler.RunCron)
		writes.POST("/bots/:bot/pause", ownerHandler.PauseBot)

		if d.Watcher != nil {
			api.GET("/view", dashHandler.View)
			owner.GET("/view", ownerHandler.View)
		}
		if d.Hub != nil {
			api.GET("/stream", gin.WrapF(d.Hub.ServeWS))
		}
		if d.Audit != nil {
			api.GET("/audit", NewAuditHandler(d.Audit).List)
		}
	}

	return r
}
