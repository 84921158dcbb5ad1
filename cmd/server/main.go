package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pty0735/routinely/internal"
	"github.com/pty0735/routinely/internal/api"
	"github.com/pty0735/routinely/internal/auth"
	"github.com/pty0735/routinely/internal/clock"
	"github.com/pty0735/routinely/internal/config"
	"github.com/pty0735/routinely/internal/plan"
	"github.com/pty0735/routinely/internal/service"
	"github.com/pty0735/routinely/internal/storage"
)

func main() {
	cfg := config.Load()

	var zl *zap.Logger
	var err error
	if cfg.Env == "development" {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zl.Sync()
	logger := internal.NewZapLogger(zl.Sugar())

	repos, closer, err := storage.NewRepositories(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer closer.Close()

	var provider auth.Provider
	if cfg.Env == "development" {
		provider = auth.NewLocalAuthProvider(cfg.JWTSecret, logger)
	} else {
		provider = auth.NewRemoteAuthProvider(cfg.AuthServiceURL, logger)
	}

	deps := service.Deps{
		Goals:    repos.Goals,
		Routines: repos.Routines,
		Users:    repos.Users,
		Gen:      plan.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiAPIURL, logger),
		Clock:    clock.NewKST(),
		Log:      logger,
	}

	router := api.NewRouter(api.NewApp(deps), provider, cfg)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("server running on :%s (env=%s, storage=%s)", cfg.Port, cfg.Env, cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
}
