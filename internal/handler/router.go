package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/chunker"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/config"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/extract"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/llm"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/repository"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/service"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/vectorstore"
)

func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
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
			"service":      "Portfolio Pulse Document Chat",
			"version":      "1.0.0",
			"status":       "running",
			"health_check": "/health",
		})
	})

	// Model clients are constructed once here; the pipeline only ever sees
	// injected handles.
	chatModel, err := llm.NewChatModel(context.Background(), &llm.ModelConfig{
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		BaseURL: cfg.LLMBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize chat model: %v", err)
	}

	embeddingSvc := service.NewEmbeddingService(
		cfg.EmbeddingAPIKey,
		cfg.EmbeddingBaseURL,
		cfg.EmbeddingModel,
		cfg.EmbeddingDimensions,
		cfg.EmbedBatchSize,
	)
	store := vectorstore.NewPGStore(db, cfg.EmbedBatchSize)

	// Initialize repositories
	fileRepo := repository.NewFileRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// Initialize services
	docChunker := chunker.New(chatModel, chunker.Options{
		MaxChunkSize:     cfg.MaxChunkSize,
		Overlap:          cfg.ChunkOverlap,
		StructurePreview: cfg.StructurePreview,
		EntityTableLimit: cfg.EntityTableLimit,
	})
	ingestSvc := service.NewIngestService(extract.NewExtractor(), docChunker, embeddingSvc, store, fileRepo)
	chatSvc := service.NewChatService(chatModel, embeddingSvc, store, chatRepo, service.ChatOptions{
		TopK:            cfg.TopK,
		ContextBudget:   cfg.ContextBudget,
		ContextChunkCap: cfg.ContextChunkCap,
		MinContextChunk: cfg.MinContextChunk,
	})

	// Initialize handlers
	ingestHandler := NewIngestHandler(ingestSvc)
	chatHandler := NewChatHandler(chatSvc)

	// API v1
	v1 := r.Group("/v1")
	{
		files := v1.Group("/files")
		{
			files.GET("", ingestHandler.List)
			files.POST("", ingestHandler.Ingest)
			files.PUT("/:file_id", ingestHandler.Update)
			files.DELETE("/:file_id", ingestHandler.Delete)
		}

		chat := v1.Group("/chat")
		{
			chat.POST("/ask", chatHandler.Ask)
			chat.GET("/sessions/:session_id/turns", chatHandler.History)
		}
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "docchat",
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
