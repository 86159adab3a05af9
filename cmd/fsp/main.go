package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fsp-portal/fsp-portal/internal/app"
	"github.com/fsp-portal/fsp-portal/internal/attendance"
	"github.com/fsp-portal/fsp-portal/internal/auth"
	"github.com/fsp-portal/fsp-portal/internal/batches"
	"github.com/fsp-portal/fsp-portal/internal/dashboard"
	"github.com/fsp-portal/fsp-portal/internal/identity"
	"github.com/fsp-portal/fsp-portal/internal/observability"
	"github.com/fsp-portal/fsp-portal/internal/platform/cache"
	"github.com/fsp-portal/fsp-portal/internal/platform/db"
	"github.com/fsp-portal/fsp-portal/internal/shared"
	"github.com/fsp-portal/fsp-portal/internal/students"
	"github.com/fsp-portal/fsp-portal/internal/timetables"
	"github.com/fsp-portal/fsp-portal/internal/view"
	"github.com/fsp-portal/fsp-portal/jobs"
	"github.com/fsp-portal/fsp-portal/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret, cfg.IsProduction())

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	notifier := identity.NewNotifier()
	issuer := identity.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	carrier := auth.NewCarrier(redisClient, cfg.AuthCookieName, cfg.TokenTTL, cfg.IsProduction())

	identityRepo := identity.NewRepository(dbpool)
	provider := identity.NewStore(identityRepo)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(logger, provider, issuer, carrier, authRepo, notifier)
	authHandler := auth.NewHandler(logger, authService, templates, csrfManager)
	secureInfo := &auth.SecureInfoHandler{Issuer: issuer}

	shell := dashboard.NewShell(logger, authService, notifier)

	batchesRepo := batches.NewRepository(dbpool)
	batchesService := batches.NewService(batchesRepo)
	batchesHandler := batches.NewHandler(logger, batchesService, templates, csrfManager)

	timetablesRepo := timetables.NewRepository(dbpool)
	timetablesService := timetables.NewService(timetablesRepo)
	timetablesHandler := timetables.NewHandler(logger, timetablesService, batchesService, templates, csrfManager)

	pdfClient := report.NewClient(cfg.GotenbergURL)

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo)
	attendanceHandler := attendance.NewHandler(logger, attendanceService, batchesService, pdfClient, templates, csrfManager)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	studentsService := students.NewService(provider, jobsClient)
	studentsHandler := students.NewHandler(logger, studentsService, templates, csrfManager)

	dashboardHandler := dashboard.NewHandler(logger, batchesService, timetablesService, templates, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		Templates:   templates,
		CSRFManager: csrfManager,
		Guard: auth.Guard{
			CookieName: cfg.AuthCookieName,
			Prefixes:   auth.DefaultProtectedPrefixes,
			Logger:     logger,
		},
		Shell:             shell,
		AuthHandler:       authHandler,
		SecureInfoHandler: secureInfo,
		DashboardHandler:  dashboardHandler,
		StudentsHandler:   studentsHandler,
		BatchesHandler:    batchesHandler,
		TimetablesHandler: timetablesHandler,
		AttendanceHandler: attendanceHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
