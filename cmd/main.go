package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brewbracket/tournament-system/config"
	"github.com/brewbracket/tournament-system/db"
	"github.com/brewbracket/tournament-system/handlers"
	"github.com/brewbracket/tournament-system/live"
	"github.com/brewbracket/tournament-system/middleware"
	"github.com/brewbracket/tournament-system/repositories"
	api "github.com/brewbracket/tournament-system/routes"
	"github.com/brewbracket/tournament-system/services"
	"github.com/brewbracket/tournament-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Duration("confirm_grace_period", cfg.ConfirmGracePeriod),
		slog.Duration("scheduler_interval", cfg.SchedulerInterval),
	)

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.MediaEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		uploader = storage.NewDisabledUploader()
		logger.Warn("R2 configuration missing, match media upload disabled")
	}

	hub := live.NewHub(logger)
	go hub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	submissionRepo := repositories.NewPostgresSubmissionRepository(dbConn)
	disputeRepo := repositories.NewPostgresDisputeRepository(dbConn)
	statsRepo := repositories.NewPostgresStatsRepository(dbConn)
	megaRepo := repositories.NewPostgresMegaScoreRepository(dbConn)
	ledgerRepo := repositories.NewPostgresLedgerRepository(dbConn)
	adminLogRepo := repositories.NewPostgresAdminLogRepository(dbConn)
	appliedRepo := repositories.NewPostgresAppliedUpdateRepository(dbConn)

	aggregates := services.NewAggregateUpdater(teamRepo, statsRepo, megaRepo, ledgerRepo, appliedRepo, logger)
	resolutionService := services.NewResolutionService(
		matchRepo, submissionRepo, disputeRepo, tournamentRepo, teamRepo, eventRepo, userRepo,
		aggregates, hub, logger, cfg.ConfirmGracePeriod,
	)
	adjudicationService := services.NewAdjudicationService(
		disputeRepo, submissionRepo, matchRepo, tournamentRepo, userRepo, adminLogRepo,
		resolutionService, hub, logger,
	)
	authService := services.NewAuthService(userRepo)
	eventService := services.NewEventService(eventRepo)
	teamService := services.NewTeamService(teamRepo, userRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, matchRepo, teamRepo, eventRepo, userRepo, logger)
	matchService := services.NewMatchService(matchRepo, submissionRepo, teamRepo, uploader, logger)
	statsService := services.NewStatsService(statsRepo, megaRepo, ledgerRepo, adminLogRepo, tournamentRepo)
	logger.Info("services initialized")

	// Auto-confirm scheduler. Due times are stored on the submission rows,
	// so a restart picks up where the previous process left off.
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go func() {
		ticker := time.NewTicker(cfg.SchedulerInterval)
		defer ticker.Stop()
		logger.Info("auto-confirm scheduler started", slog.Duration("interval", cfg.SchedulerInterval))

		if err := resolutionService.RunDueAutoConfirms(schedulerCtx); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}
		for {
			select {
			case <-schedulerCtx.Done():
				return
			case <-ticker.C:
				if err := resolutionService.RunDueAutoConfirms(schedulerCtx); err != nil {
					logger.Error("scheduler: periodic run failed", slog.Any("error", err))
				}
			}
		}
	}()

	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	router := chi.NewRouter()
	api.SetupRoutes(router, authenticator, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Event:      handlers.NewEventHandler(eventService),
		Team:       handlers.NewTeamHandler(teamService),
		Tournament: handlers.NewTournamentHandler(tournamentService, statsService),
		Match:      handlers.NewMatchHandler(matchService),
		Resolution: handlers.NewResolutionHandler(resolutionService, matchService),
		Admin:      handlers.NewAdminHandler(adjudicationService, statsService),
		Stats:      handlers.NewStatsHandler(statsService),
		WebSocket:  handlers.NewWebSocketHandler(hub, tournamentService, logger),
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopScheduler()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
