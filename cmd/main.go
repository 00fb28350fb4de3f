package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/Dosada05/robot-tournaments/brackets"
	"github.com/Dosada05/robot-tournaments/config"
	"github.com/Dosada05/robot-tournaments/db"
	"github.com/Dosada05/robot-tournaments/events"
	"github.com/Dosada05/robot-tournaments/handlers"
	"github.com/Dosada05/robot-tournaments/middleware"
	"github.com/Dosada05/robot-tournaments/repositories"
	api "github.com/Dosada05/robot-tournaments/routes"
	"github.com/Dosada05/robot-tournaments/services"
	"github.com/Dosada05/robot-tournaments/storage"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

const (
	dbConnectTimeout = 5 * time.Second
	shutdownTimeout  = 15 * time.Second
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "robot-tournaments",
		Short:         "Single-elimination robot combat tournament server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(logger), migrateCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func migrateCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			dbConn, err := openDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer dbConn.Close()
			logger.Info("migrations applied", slog.String("driver", cfg.DBDriver))
			return nil
		},
	}
}

func serveCmd(logger *slog.Logger) *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("driver", cfg.DBDriver))
			return serve(cmd.Context(), cfg, skipMigrations, logger)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
	return cmd
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	dbConn, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL, dbConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("database connection established")
	if err := db.Migrate(ctx, dbConn, cfg.DBDriver); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return dbConn, nil
}

func serve(ctx context.Context, cfg *config.Config, skipMigrations bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dbConn *sql.DB
	var err error
	if skipMigrations {
		dbConn, err = db.Connect(cfg.DBDriver, cfg.DatabaseURL, dbConnectTimeout)
	} else {
		dbConn, err = openDatabase(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	publishers := []events.Publisher{wsHub}

	if cfg.NATSURL != "" {
		natsConn, natsPublisher, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsConn.Drain()
		publishers = append(publishers, natsPublisher)
		logger.Info("NATS event publisher enabled", slog.String("url", cfg.NATSURL))
	}

	// Архив итоговой сетки в Cloudflare R2 (опционально)
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		publishers = append(publishers, storage.NewBracketArchive(uploader, logger))
		logger.Info("Cloudflare R2 bracket archive enabled", slog.String("bucket", cfg.R2BucketName))
	}
	publisher := events.Fanout(publishers...)

	var shuffler brackets.Shuffler = brackets.NewTimeSeededShuffler()
	if cfg.ShuffleSeed != nil {
		shuffler = brackets.NewSeededShuffler(*cfg.ShuffleSeed)
		logger.Warn("bracket shuffle uses a fixed seed", slog.Uint64("seed", *cfg.ShuffleSeed))
	}

	// Инициализация репозиториев
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	scoreRepo := repositories.NewPostgresScoreRepository(dbConn)
	robotRepo := repositories.NewPostgresRobotStatsRepository(dbConn)
	prizeRepo := repositories.NewPostgresPrizeRepository(dbConn)
	cooldownRepo := repositories.NewPostgresCooldownRepository(dbConn)

	// Инициализация сервисов
	ledger := services.NewScoringLedger(scoreRepo)
	authorizer := services.NewAuthorizer(matchRepo)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, registrationRepo, matchRepo, prizeRepo, publisher, nil, logger)
	registrationService := services.NewRegistrationService(dbConn, tournamentRepo, registrationRepo, cooldownRepo, nil, logger)
	bracketService := services.NewBracketService(dbConn, tournamentRepo, registrationRepo, matchRepo, shuffler, publisher, nil, logger)
	matchService := services.NewMatchService(dbConn, tournamentRepo, matchRepo, registrationRepo, robotRepo, prizeRepo, cooldownRepo, ledger, publisher, nil, logger)

	checkOrigin := func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(cfg.CORSAllowedOrigins) == 0 || origin == "" || slices.Contains(cfg.CORSAllowedOrigins, origin)
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:         middleware.NewAuthenticator(cfg.JWTSecretKey, logger),
		Tournament:   handlers.NewTournamentHandler(tournamentService, bracketService, authorizer),
		Match:        handlers.NewMatchHandler(matchService, authorizer),
		Registration: handlers.NewRegistrationHandler(registrationService),
		Ranking:      handlers.NewRankingHandler(ledger),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, tournamentService, checkOrigin, logger),
	}, api.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	})

	// Настройка и запуск HTTP-сервера
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

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
	return nil
}
