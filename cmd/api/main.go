package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chatline/backend/internal/api"
	"github.com/chatline/backend/internal/auth"
	"github.com/chatline/backend/internal/config"
	"github.com/chatline/backend/internal/domain"
	"github.com/chatline/backend/internal/mail"
	"github.com/chatline/backend/internal/repository"
	"github.com/chatline/backend/internal/storage"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Initialize logger
	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Starting Chatline API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	// Run schema migrations before opening the pool
	if err := repository.Migrate(cfg.Database.URL); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize database
	ctx := context.Background()
	db, err := repository.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Connected to database")

	// Initialize dependencies
	repo := repository.NewPostgresRepository(db)
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessExpiry)
	mailer := mail.NewMailer(cfg.SMTP, logger)

	// Initialize storage
	uploadDir := ""
	var fileStorage storage.FileStorage
	if cfg.Storage.Type == "s3" {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		logger.Info("Using S3 storage", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		uploadDir = "./uploads"
		baseURL := fmt.Sprintf("http://localhost:%s/uploads", cfg.Server.Port)
		if cfg.IsProduction() {
			baseURL = cfg.Storage.PublicURL
		}
		fileStorage, err = storage.NewLocalFileStorage(uploadDir, baseURL)
		if err != nil {
			logger.Fatal("Failed to initialize file storage", zap.Error(err))
		}
		logger.Info("Using local storage", zap.String("dir", uploadDir))
	}

	// Initialize services
	authService := domain.NewAuthService(repo, repo, jwtManager, mailer, logger)
	userService := domain.NewUserService(repo)
	chatService := domain.NewChatService(repo, repo, repo, logger)
	messageService := domain.NewMessageService(repo)

	// Initialize handlers
	authHandler := api.NewAuthHandler(authService, logger)
	userHandler := api.NewUserHandler(userService, fileStorage, logger)
	chatHandler := api.NewChatHandler(chatService, fileStorage, logger)
	messageHandler := api.NewMessageHandler(messageService, logger)
	healthHandler := api.NewHealthHandler(db)

	// Initialize router
	router := api.NewRouter(authHandler, userHandler, chatHandler, messageHandler, healthHandler, jwtManager, uploadDir, logger)
	r := router.Setup()

	// Start cleanup worker
	cleanupCtx, cleanupCancel := context.WithCancel(ctx)
	authService.StartCodeCleanupWorker(cleanupCtx, 1*time.Hour)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Cancel cleanup worker
	cleanupCancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("ENV")
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
