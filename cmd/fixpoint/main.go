package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fixpoint-pos/fixpoint/internal/app"
	"github.com/fixpoint-pos/fixpoint/internal/auth"
	"github.com/fixpoint-pos/fixpoint/internal/employees"
	"github.com/fixpoint-pos/fixpoint/internal/platform/cache"
	"github.com/fixpoint-pos/fixpoint/internal/platform/db"
	"github.com/fixpoint-pos/fixpoint/internal/rbac"
	"github.com/fixpoint-pos/fixpoint/internal/roles"
	"github.com/fixpoint-pos/fixpoint/internal/tickets"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, role cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	keys, err := auth.LoadKeys(cfg.JWTPrivateKeyFile, cfg.JWTPublicKeyFile)
	if err != nil {
		logger.Error("load key material", slog.Any("error", err))
		os.Exit(1)
	}
	if keys == nil {
		logger.Warn("no verification key configured, auth subsystem disabled")
	}

	employeeRepo := employees.NewRepository(pool)
	employeeService := employees.NewService(employeeRepo)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, employeeService, keys, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, logger)

	rbacService := rbac.NewService(rbac.NewRepository(pool), redisClient, cfg.RoleCacheTTL, logger)
	evaluator := rbac.NewEvaluator(rbacService)
	rbacMW := rbac.Middleware{Evaluator: evaluator, Logger: logger}

	roleService := roles.NewService(roles.NewRepository(pool), employeeService, rbacService)
	if err := roleService.Seed(ctx); err != nil {
		logger.Error("seed roles", slog.Any("error", err))
		os.Exit(1)
	}

	ticketService := tickets.NewService(tickets.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthService:      authService,
		AuthHandler:      auth.NewHandler(logger, authService),
		EmployeesHandler: employees.NewHandler(logger, employeeService, rbacMW),
		RolesHandler:     roles.NewHandler(logger, roleService, rbacMW),
		TicketsHandler:   tickets.NewHandler(logger, ticketService, rbacMW),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("fixpoint listening", slog.String("addr", cfg.AppAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
