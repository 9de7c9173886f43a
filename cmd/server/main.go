// Package main runs the quizz HTTP server with live results and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quizz-service/backend/config"
	"github.com/quizz-service/backend/internal/auth"
	"github.com/quizz-service/backend/internal/middleware"
	"github.com/quizz-service/backend/internal/quizz"
	"github.com/quizz-service/backend/internal/realtime"
	"github.com/quizz-service/backend/internal/server"
	"github.com/quizz-service/backend/pkg/redis"
	"github.com/quizz-service/backend/pkg/utils"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	registry := quizz.NewRegistry(
		quizz.WithLogger(logger),
		quizz.WithCredentialEncoder(utils.NewPasswordHasher(cfg.Quizz.BcryptCost)),
	)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authenticator := auth.NewAuthenticator(registry, jwtService)

	// Live results fan out through Redis when configured, otherwise stay local.
	var hub *realtime.Hub
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("redis unavailable, live results are single-instance", zap.Error(err))
		} else {
			defer rdb.Close()
			pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
			hub = realtime.NewHub(logger, pubsub, pubsub)
		}
	}
	if hub == nil {
		hub = realtime.NewHub(logger, nil, nil)
	}

	router := server.NewRouter(server.Deps{
		Registry:       registry,
		Auth:           authenticator,
		Hub:            hub,
		VoteLimiter:    middleware.NewUserRateLimiter(cfg.RateLimit.VotesPerSecond, cfg.RateLimit.VoteBurst, logger),
		Logger:         logger,
		CORSOrigins:    cfg.Server.CORSAllowedOrigins,
		TeacherDomains: cfg.Quizz.TeacherEmailDomains,
		AllowReset:     cfg.Quizz.AllowReset,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.Bool("reset_enabled", cfg.Quizz.AllowReset))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
