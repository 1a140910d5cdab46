// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"account-service/cmd"
	"account-service/internal/data/repository"
	"account-service/internal/usecase"
	"account-service/internal/wire"
	"account-service/pkg/database"
	"account-service/pkg/notify"
	"account-service/pkg/storage"
	"account-service/pkg/token"
	"account-service/pkg/utils"
	"account-service/pkg/webhook"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)
	if config.App.ExposeOTP {
		logger.Warn("EXPOSE_OTP is enabled, one-time codes are returned in API responses")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	tokens, err := token.NewIssuer(config.JWT)
	if err != nil {
		logger.Fatal("Failed to initialize token issuer", zap.Error(err))
	}

	// Avatar uploads are optional; leave the interface nil so the service reports it.
	var avatars usecase.AvatarUploader
	if config.Storage.Enabled() {
		store, err := storage.NewAvatarStoreFromConfig(ctx, config.Storage)
		if err != nil {
			logger.Fatal("Failed to initialize avatar storage", zap.Error(err))
		}
		avatars = store
	} else {
		logger.Warn("S3 storage not configured, avatar uploads disabled")
	}

	// Wire all dependencies
	app := wire.Wiring(wire.Dependencies{
		Repo:     repository.NewRepository(db, logger),
		Tokens:   tokens,
		Notifier: notify.NewFromConfig(config, logger),
		Avatars:  avatars,
		Relay:    webhook.NewRelayFromConfig(config.Webhook, logger),
	}, config, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
}
