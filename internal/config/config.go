package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Host    string `mapstructure:"HOST"`
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	// Environment
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Embedding service (OpenAI compatible)
	EmbeddingAPIKey     string `mapstructure:"EMBEDDING_API_KEY"`
	EmbeddingBaseURL    string `mapstructure:"EMBEDDING_BASE_URL"`
	EmbeddingModel      string `mapstructure:"EMBEDDING_MODEL"`
	EmbeddingDimensions int    `mapstructure:"EMBEDDING_DIMENSIONS"`
	EmbedBatchSize      int    `mapstructure:"EMBED_BATCH_SIZE"`

	// Chat model (OpenAI compatible, Gemini gateways included)
	LLMAPIKey  string `mapstructure:"LLM_API_KEY"`
	LLMBaseURL string `mapstructure:"LLM_BASE_URL"`
	LLMModel   string `mapstructure:"LLM_MODEL"`

	// Chunking
	MaxChunkSize     int `mapstructure:"MAX_CHUNK_SIZE"`
	ChunkOverlap     int `mapstructure:"CHUNK_OVERLAP"`
	StructurePreview int `mapstructure:"STRUCTURE_PREVIEW"`
	EntityTableLimit int `mapstructure:"ENTITY_TABLE_LIMIT"`

	// Retrieval
	TopK            int `mapstructure:"TOP_K"`
	ContextBudget   int `mapstructure:"CONTEXT_BUDGET"`
	ContextChunkCap int `mapstructure:"CONTEXT_CHUNK_CAP"`
	MinContextChunk int `mapstructure:"MIN_CONTEXT_CHUNK"`
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "8088")
	viper.SetDefault("GIN_MODE", "release")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "postgres://localhost:5432/portfoliopulse?sslmode=disable")
	viper.SetDefault("EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	viper.SetDefault("EMBEDDING_DIMENSIONS", 1536)
	viper.SetDefault("EMBED_BATCH_SIZE", 100)
	viper.SetDefault("LLM_MODEL", "gpt-4o-mini")
	viper.SetDefault("MAX_CHUNK_SIZE", 1200)
	viper.SetDefault("CHUNK_OVERLAP", 100)
	viper.SetDefault("STRUCTURE_PREVIEW", 1800)
	viper.SetDefault("ENTITY_TABLE_LIMIT", 15)
	viper.SetDefault("TOP_K", 50)
	viper.SetDefault("CONTEXT_BUDGET", 28000)
	viper.SetDefault("CONTEXT_CHUNK_CAP", 8)
	viper.SetDefault("MIN_CONTEXT_CHUNK", 50)

	// .env file is optional
	if _, err := os.Stat(".env"); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}
