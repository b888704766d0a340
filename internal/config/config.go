package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server
	Host        string
	Port        string
	Environment string
	GinMode     string
	LogLevel    string

	// Database
	DatabaseURL string

	// Vector index snapshot directory
	IndexPath string

	// OpenAI-compatible embedding + generation API
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	EmbeddingModel      string
	EmbeddingDimensions int
	ChatModel           string

	// Retrieval
	TopK int

	// Chunking
	ChunkSize    int
	ChunkOverlap int
}

func Load() *Config {
	return &Config{
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/legal_ai?sslmode=disable"),

		IndexPath: getEnv("INDEX_PATH", "./faiss_index"),

		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: int(getEnvInt64("EMBEDDING_DIMENSIONS", 1536)),
		ChatModel:           getEnv("CHAT_MODEL", "gpt-4o-mini"),

		TopK: int(getEnvInt64("TOP_K", 1)),

		ChunkSize:    int(getEnvInt64("CHUNK_SIZE", 750)),
		ChunkOverlap: int(getEnvInt64("CHUNK_OVERLAP", 150)),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
