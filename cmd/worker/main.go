package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fixpoint-pos/fixpoint/internal/app"
	"github.com/fixpoint-pos/fixpoint/internal/auth"
	"github.com/fixpoint-pos/fixpoint/internal/employees"
	"github.com/fixpoint-pos/fixpoint/internal/platform/db"
	"github.com/fixpoint-pos/fixpoint/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	keys, err := auth.LoadKeys(cfg.JWTPrivateKeyFile, cfg.JWTPublicKeyFile)
	if err != nil {
		logger.Error("load key material", slog.Any("error", err))
		os.Exit(1)
	}

	employeeService := employees.NewService(employees.NewRepository(pool))
	authService := auth.NewService(auth.NewRepository(pool), employeeService, keys, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTokenPurge, Handler: jobs.NewTokenPurgeHandler(authService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: jobs.NewTokenPurgeTask()},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker", slog.Any("error", err))
		os.Exit(1)
	}
}
