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

	"github.com/Dosada05/kotc-scoreboard/config"
	"github.com/Dosada05/kotc-scoreboard/db"
	"github.com/Dosada05/kotc-scoreboard/handlers"
	"github.com/Dosada05/kotc-scoreboard/realtime"
	"github.com/Dosada05/kotc-scoreboard/repositories"
	api "github.com/Dosada05/kotc-scoreboard/routes"
	"github.com/Dosada05/kotc-scoreboard/services"
	"github.com/Dosada05/kotc-scoreboard/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Аватары игроков (Cloudflare R2), необязательно
	var avatarUploader storage.FileUploader
	if cfg.AvatarsEnabled() {
		avatarUploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
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
		logger.Warn("R2 settings missing, avatar uploads disabled")
	}

	wsHub := realtime.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Репозитории
	transactor := repositories.NewPostgresTransactor(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	cupRepo := repositories.NewPostgresCupRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	leagueRepo := repositories.NewPostgresLeagueRepository(dbConn)

	// Сервисы
	realtimeService := services.NewRealtimeService(wsHub, logger)
	authService := services.NewAuthService(cfg.OperatorPINHash, cfg.JWTSecretKey)
	playerService := services.NewPlayerService(playerRepo, avatarUploader, realtimeService, logger)
	cupService := services.NewCupService(transactor, cupRepo, playerRepo, matchRepo, realtimeService, cfg.CupTitle, logger)
	leagueService := services.NewLeagueService(leagueRepo, matchRepo, playerRepo, realtimeService, logger)
	realtimeService.Attach(cupService, leagueService)
	go realtimeService.Run(ctx)
	logger.Info("services initialized")

	// Изменения, сделанные другими клиентами базы, приходят через NOTIFY
	listener, err := realtime.NewListener(cfg.DatabaseURL, cfg.NotifyChannel, logger)
	if err != nil {
		logger.Warn("postgres listener unavailable, relying on periodic resync", slog.Any("error", err))
	} else {
		defer listener.Close()
		go listener.Run(ctx, realtimeService.HandleTableChange)
		logger.Info("postgres listener started", slog.String("channel", cfg.NotifyChannel))
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	if err := realtimeService.ScheduleResync(scheduler, cfg.ResyncInterval); err != nil {
		logger.Error("failed to schedule resync", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()
	logger.Info("resync scheduler started", slog.Duration("interval", cfg.ResyncInterval))

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.JWTSecretKey, cfg.CORSAllowedOrigins, api.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Player:    handlers.NewPlayerHandler(playerService, leagueService),
		Cup:       handlers.NewCupHandler(cupService),
		League:    handlers.NewLeagueHandler(leagueService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, realtimeService, logger),
		Health:    handlers.NewHealthHandler(dbConn),
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stop()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
