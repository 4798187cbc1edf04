package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPolymarket/clawdash/internal/config"
	"github.com/GoPolymarket/clawdash/internal/handler"
	"github.com/GoPolymarket/clawdash/internal/middleware"
	"github.com/GoPolymarket/clawdash/internal/pkg/logger"
	"github.com/GoPolymarket/clawdash/internal/poll"
	"github.com/GoPolymarket/clawdash/internal/repository"
	"github.com/GoPolymarket/clawdash/internal/service"
	"github.com/GoPolymarket/clawdash/internal/stream"
	"github.com/GoPolymarket/clawdash/internal/upstream"
	"github.com/GoPolymarket/polymarket-go-sdk"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// 1. Load and validate configuration. Missing account or secret is fatal.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(gin.ReleaseMode)

	// 2. Persistence (Redis > Memory, Postgres > Local File)
	var (
		sessionStore service.SessionStore
		activitySink service.ActivitySink
		redisClient  *repository.RedisClient
		redisSink    *repository.RedisActivitySink
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("Connected to Redis", "addr", cfg.Redis.Addr)
			sessionStore = repository.NewRedisSessionStore(redisClient, cfg.Redis.SessionPrefix)
			redisSink = repository.NewRedisActivitySink(redisClient, cfg.Redis.ActivityListKey, cfg.Redis.ActivityListMax)
			activitySink = redisSink
		} else {
			logger.Error("Failed to connect to Redis, sessions stay in memory", "error", err)
			redisClient = nil
		}
	}

	var (
		auditRepo   service.AuditRepo
		pgAuditRepo *repository.PostgresAuditRepo
	)
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			pgAuditRepo, err = repository.NewPostgresAuditRepo(db)
		}
		if err == nil {
			logger.Info("Connected to PostgreSQL")
			auditRepo = pgAuditRepo
		} else {
			logger.Error("Failed to initialize DB, audit logs will be file-only", "error", err)
			pgAuditRepo = nil
		}
	}

	auditSvc, err := service.NewAuditService(cfg.Audit.Dir, cfg.Audit.BufferSize, auditRepo)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	// 3. Core services
	owners := service.NewOwnerRegistry(cfg)
	authSvc := service.NewAuthService(cfg.Auth, sessionStore)

	client := upstream.NewClient(cfg.Upstream.Timeout)
	simmer := upstream.NewSimmer(client, cfg.Simmer.BaseURL, owners)
	vps := upstream.NewVPS(client, cfg.VPS.BaseURL, cfg.VPS.APIKey, owners)
	var wallet service.WalletAPI
	if cfg.Polymarket.Enabled {
		sdk := polymarket.NewClient()
		wallet = upstream.NewWallet(sdk.Data, owners)
	}

	activity := service.NewActivityLog(cfg.Audit.ActivityBuffer, activitySink)
	if redisSink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		recent, err := redisSink.Recent(ctx, cfg.Audit.ActivityBuffer)
		cancel()
		if err != nil {
			logger.Warn("Failed to restore activity log from Redis", "error", err)
		} else {
			activity.Restore(recent)
		}
	}
	dash := service.NewDashboardService(owners, simmer, vps, wallet, activity, service.DashboardOptions{
		Venue:       cfg.Dashboard.Venue,
		TradeWindow: cfg.Dashboard.TradeWindow,
		DayWindow:   cfg.Dashboard.DayWindow,
	})

	hub := stream.NewHub(cfg.Server.CORSOrigins)
	sched := poll.NewScheduler()

	var watcher *poll.Watcher
	if cfg.Poll.Enabled {
		watcher = poll.NewWatcher(dash, sched, hub, cfg.Poll.FastInterval, cfg.Poll.SlowInterval)
		watcher.Start()
	}

	if pgAuditRepo != nil && cfg.Database.AuditRetentionDays > 0 {
		retention := time.Duration(cfg.Database.AuditRetentionDays) * 24 * time.Hour
		sched.Start("audit-cleanup", 24*time.Hour, func(ctx context.Context) {
			if err := pgAuditRepo.Cleanup(ctx, retention); err != nil {
				logger.Error("Audit cleanup failed", "error", err)
			}
		})
	}

	for _, o := range owners.List() {
		logger.Info("Owner registered", "owner", o.ID, "region", o.Region, "configured", o.Creds.Configured())
	}

	// 4. Router
	r := handler.NewRouter(handler.Deps{
		Config:      cfg,
		Auth:        authSvc,
		Dashboard:   dash,
		Activity:    activity,
		Watcher:     watcher,
		Hub:         hub,
		Audit:       auditSvc,
		Idempotency: middleware.NewInMemIdempotencyStore(10 * time.Minute),
	})

	var h http.Handler = r
	if len(cfg.Server.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", middleware.HeaderIdempotencyKey},
			AllowCredentials: true,
		}).Handler(r)
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("ClawDash started", "port", cfg.Server.Port, "owners", len(owners.List()), "poll", cfg.Poll.Enabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if watcher != nil {
		watcher.Stop()
	}
	sched.StopAll()
	hub.Close()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	activity.Close()
	auditSvc.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("Server exiting")
}
