package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Advik16/LegalAI/internal/chunker"
	"github.com/Advik16/LegalAI/internal/config"
	"github.com/Advik16/LegalAI/internal/index"
	"github.com/Advik16/LegalAI/internal/repository"
	"github.com/Advik16/LegalAI/internal/service"
	"github.com/Advik16/LegalAI/internal/streaming"
)

// SetupRouter wires repositories, services and handlers. The returned
// ingest service is handed back so main can load or rebuild the index
// snapshot before serving.
func SetupRouter(cfg *config.Config, db *gorm.DB, log *logrus.Logger) (*gin.Engine, *service.IngestService) {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// Health check endpoints
	r.GET("/health", healthCheck)
	r.GET("/ready", readinessCheck)
	r.GET("/live", livenessCheck)

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":      "Legal AI",
			"version":      "1.0.0",
			"status":       "running",
			"health_check": "/health",
		})
	})

	// Initialize repositories
	chunkRepo := repository.NewChunkRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	// Initialize collaborators
	embeddingSvc := service.NewEmbeddingService(
		cfg.OpenAIAPIKey,
		cfg.OpenAIBaseURL,
		cfg.EmbeddingModel,
		cfg.EmbeddingDimensions,
		log,
	)
	generationSvc := service.NewGenerationService(
		cfg.OpenAIAPIKey,
		cfg.OpenAIBaseURL,
		cfg.ChatModel,
		log,
	)
	idx := index.New(cfg.IndexPath, embeddingSvc, log)
	splitter := chunker.New(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)

	// Initialize services
	chunkSvc := service.NewChunkService(chunkRepo, log)
	conversationSvc := service.NewConversationService(conversationRepo, chunkRepo, log)
	retrievalSvc := service.NewRetrievalService(embeddingSvc, idx, cfg.TopK, log)
	ingestSvc := service.NewIngestService(chunkRepo, embeddingSvc, idx, splitter, log)

	controller := streaming.NewController(generationSvc, chunkSvc, conversationSvc, log)

	// Initialize handlers
	queryHandler := NewQueryHandler(retrievalSvc, controller, log)
	retrieveHandler := NewRetrieveHandler(retrievalSvc)
	documentHandler := NewDocumentHandler(ingestSvc)
	conversationHandler := NewConversationHandler(conversationSvc)

	// Streaming query endpoints
	r.POST("/query/stream", queryHandler.Stream)
	r.POST("/query/chat/stream", queryHandler.ChatStream)

	// Plain retrieval (no generation)
	r.POST("/retrieve", retrieveHandler.Retrieve)

	// API v1
	v1 := r.Group("/v1")
	{
		v1.POST("/documents", documentHandler.Ingest)
		v1.GET("/conversations/:id", conversationHandler.Get)
	}

	return r, ingestSvc
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "legal-ai",
	})
}

func readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

func livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
