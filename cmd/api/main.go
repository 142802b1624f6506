package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"projectsmanager/internal/config"
	"projectsmanager/internal/handler"
	"projectsmanager/internal/httpserver"
	"projectsmanager/internal/migrations"
	"projectsmanager/internal/repository"
	"projectsmanager/internal/repository/memory"
	"projectsmanager/internal/service/auth"
	"projectsmanager/internal/service/ownership"
	"projectsmanager/internal/service/project"
	"projectsmanager/internal/service/task"
	"projectsmanager/pkg/circuitbreaker"
	"projectsmanager/pkg/db"
	"projectsmanager/pkg/logger"
	"projectsmanager/pkg/mq"
	"projectsmanager/pkg/outbox"
	redisclient "projectsmanager/pkg/redis"
	"projectsmanager/pkg/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	log.Info("Starting projects-manager api...",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("port", cfg.Server.Port),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	ready := map[string]httpserver.ReadinessCheck{}

	// Storage
	var repos repository.Manager
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn("Using in-memory storage; data is lost on restart")
		repos = memory.NewManager()
	default:
		log.Info("Initializing database connection...")
		pool, err := db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer pool.Close()

		if err := migrations.RunOnPool(ctx, pool, log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
		repos = repository.NewPostgresManager(pool, log)

		if cfg.Outbox.InProcess {
			publisher, err := mq.NewPublisher(cfg.MQ.URL)
			if err != nil {
				log.Fatal("Failed to init MQ publisher", zap.Error(err))
			}
			defer publisher.Close()

			dispatcher := outbox.NewDispatcher(outbox.NewRepository(pool), publisher, log).
				WithInterval(cfg.Outbox.Interval).
				WithBatchSize(cfg.Outbox.BatchSize).
				WithMaxRetries(cfg.Outbox.MaxRetries).
				WithBreaker(circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()))
			go dispatcher.Start(ctx)
			log.Info("Outbox dispatcher started in-process")
		}
	}
	ready["storage"] = repos.Ping

	// Redis backs login throttling; without it login still works unthrottled.
	var limiter auth.AttemptLimiter
	if cfg.Auth.MaxLoginAttempts > 0 && cfg.Redis.Addr != "" {
		rdb := redisclient.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := redisclient.Ping(ctx, rdb); err != nil {
			log.Warn("Redis unavailable; login attempts are counted once it recovers", zap.Error(err))
		}
		limiter = util.NewAttemptCounter(rdb, cfg.Auth.LockoutWindow)
	}

	// Services
	resolver := ownership.NewResolver()
	authService := auth.NewService(repos, auth.Options{
		JWT: util.JWTOptions{
			Secret:   cfg.JWT.Secret,
			TTL:      cfg.JWT.TTL,
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
		},
		Limiter:          limiter,
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
	}, log)
	projectService := project.NewService(repos, resolver, log)
	taskService := task.NewService(repos, resolver, log)

	router := httpserver.NewRouter(httpserver.Dependencies{
		Auth:        handler.NewAuthHandler(authService, log),
		Projects:    handler.NewProjectHandler(projectService, log),
		Tasks:       handler.NewTaskHandler(taskService, log),
		Verifier:    authService,
		Ready:       ready,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully...")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}
