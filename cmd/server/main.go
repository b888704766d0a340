package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Advik16/LegalAI/internal/config"
	"github.com/Advik16/LegalAI/internal/database"
	"github.com/Advik16/LegalAI/internal/handler"
)

func main() {
	// Load .env file if exists
	godotenv.Load()

	// Load configuration
	cfg := config.Load()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Setup router
	r, ingestSvc := handler.SetupRouter(cfg, db, log)

	// Load the index snapshot, or rebuild it from stored chunks
	if err := ingestSvc.EnsureIndex(context.Background()); err != nil {
		log.Fatalf("Failed to prepare vector index: %v", err)
	}

	// Start server
	addr := cfg.Host + ":" + cfg.Port
	log.Infof("Legal AI service starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
