package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/axiestudio/embedded-chat/internal/config"
	"github.com/axiestudio/embedded-chat/internal/database"
	"github.com/axiestudio/embedded-chat/internal/repos"
	"github.com/axiestudio/embedded-chat/internal/server"
	"github.com/axiestudio/embedded-chat/internal/services"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set gin mode based on environment
	switch cfg.App.Env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	logrusLogger, err := utils.NewLogrus(&utils.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := utils.NewAppLogger(logrusLogger)

	logger.Info("Starting embedded chat API", utils.LogFields{
		"version":     server.Version,
		"environment": cfg.App.Env,
		"port":        cfg.App.Port,
	})

	// Initialize database
	dbConn, err := database.Connect(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	defer dbConn.Close()

	migrated, err := database.MigrateEmbedded(dbConn, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if migrated {
		logger.Info("Embedded database schema migrated")
	} else {
		logger.Info("Using schema managed by cmd/migrate")
	}

	// Redis only backs the public slug cache, so it is optional
	var redisClient database.RedisClient
	if cfg.Redis.URL != "" {
		redisClient, err = database.InitializeRedis(cfg.Redis)
		if err != nil {
			logger.Warn("Redis not available, continuing without public config cache", utils.LogFields{
				"error": err.Error(),
			})
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("Redis connected successfully")
		}
	}

	configs := services.NewChatConfigService(repos.NewChatConfigRepo(dbConn.DB()), cfg.Slug, logger)
	if cfg.Security.EncryptionKey != "" {
		box, err := services.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			logger.Fatal("Failed to initialize encryption", err)
		}
		configs.WithEncryption(box)
	} else {
		logger.Warn("ENCRYPTION_KEY not set, workflow API keys are stored unencrypted")
	}
	if redisClient != nil {
		configs.WithCache(services.NewRedisPublicCache(redisClient, cfg.Redis.PublicCacheTTL))
	}

	deps := server.Dependencies{
		Config:  cfg,
		Logger:  logrusLogger,
		Configs: configs,
		Relayer: services.NewRelayClient(cfg.Relay, logger),
		Tokens:  services.NewJWTService(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.JWTExpiry),
		DB:      dbConn,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.App.Port),
		Handler:        server.NewRouter(deps),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("Server starting", utils.LogFields{
			"addr": srv.Addr,
		})

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
		return
	}

	logger.Info("Server stopped gracefully")
}
