package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ecocropai/ecocrop-backend/internal/config"
	"github.com/ecocropai/ecocrop-backend/internal/database"
	"github.com/ecocropai/ecocrop-backend/internal/logger"
	"github.com/ecocropai/ecocrop-backend/internal/server"
	"github.com/ecocropai/ecocrop-backend/internal/server/handlers"
	"github.com/ecocropai/ecocrop-backend/internal/services"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Errorf("Failed to close database: %v", err)
		}
	}()
	logger.Info("Database connection established and migrations completed")

	aiService, err := services.NewAIService(ctx, cfg.AI)
	if err != nil {
		logger.Fatalf("Failed to create AI service: %v", err)
	}
	userService := services.NewUserService(db)
	authService := services.NewAuthService(userService, cfg.Auth)
	analysisService := services.NewAnalysisService(db)
	logger.Info("Services initialized", "ai_provider", cfg.AI.Provider)

	srv := server.New(cfg, handlers.Dependencies{
		UserService:     userService,
		AuthService:     authService,
		AIService:       aiService,
		AnalysisService: analysisService,
	})

	if err := srv.Run(ctx); err != nil {
		logger.Fatalf("Server stopped with error: %v", err)
	}
	logger.Info("Server stopped")
}
