// Package config loads engine configuration from environment variables,
// optionally layered over a .env file and a collector.yaml override:
// nested structs per concern, getEnvX helpers with defaults, a
// Validate() pass before use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the engine's full configuration.
type Config struct {
	VectorStore VectorStoreConfig `yaml:"vectorStore"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Query       QueryConfig       `yaml:"query"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// VectorStoreConfig configures the Collection Registry's backing store.
type VectorStoreConfig struct {
	Backend        string `yaml:"backend"` // "chroma" or "qdrant"
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"-"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	RetryAttempts  int    `yaml:"retryAttempts"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	APIKey                string `yaml:"-"`
	Model                 string `yaml:"model"`
	RequestTimeoutSeconds int    `yaml:"requestTimeoutSeconds"`
	RateLimitRPM          int    `yaml:"rateLimitRPM"`
}

// ChunkingConfig holds the sliding-window sizes: a single chunk up to
// MaxSize, otherwise windows of TargetSize with OverlapSize overlap. It is
// loaded and validated here; package prepare does not read it and chunks
// with its own fixed 8000/4000/200 constants.
type ChunkingConfig struct {
	TargetSize  int `yaml:"targetSize"`
	MaxSize     int `yaml:"maxSize"`
	OverlapSize int `yaml:"overlapSize"`
}

// QueryConfig holds pagination limits. It is loaded and validated here;
// package query does not read it (its default limit of 20 is fixed in
// Options, and no maximum limit is applied).
type QueryConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxLimit     int `yaml:"maxLimit"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration with its baseline defaults applied.
func Default() *Config {
	return &Config{
		VectorStore: VectorStoreConfig{
			Backend:        "chroma",
			TimeoutSeconds: 30,
			RetryAttempts:  3,
		},
		Embedding: EmbeddingConfig{
			Model:                 "text-embedding-3-small",
			RequestTimeoutSeconds: 60,
			RateLimitRPM:          60,
		},
		Chunking: ChunkingConfig{
			TargetSize:  4000,
			MaxSize:     8000,
			OverlapSize: 200,
		},
		Query: QueryConfig{
			DefaultLimit: 20,
			MaxLimit:     200,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  true,
		},
	}
}

// Load reads a .env file (best-effort; a missing file is not an error),
// an optional collector.yaml override, then environment variables, and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is not an error

	cfg := Default()

	if data, err := os.ReadFile("collector.yaml"); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing collector.yaml: %w", err)
		}
	}

	loadVectorStoreConfig(cfg)
	loadEmbeddingConfig(cfg)
	loadChunkingConfig(cfg)
	loadQueryConfig(cfg)
	loadLoggingConfig(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadVectorStoreConfig(c *Config) {
	c.VectorStore.Backend = getStringEnv("COLLECTOR_VECTOR_BACKEND", c.VectorStore.Backend)
	c.VectorStore.Endpoint = getStringEnv("COLLECTOR_VECTOR_ENDPOINT", c.VectorStore.Endpoint)
	c.VectorStore.APIKey = getStringEnv("COLLECTOR_VECTOR_API_KEY", c.VectorStore.APIKey)
	c.VectorStore.TimeoutSeconds = getIntEnv("COLLECTOR_VECTOR_TIMEOUT_SECONDS", c.VectorStore.TimeoutSeconds)
	c.VectorStore.RetryAttempts = getIntEnv("COLLECTOR_VECTOR_RETRY_ATTEMPTS", c.VectorStore.RetryAttempts)
}

func loadEmbeddingConfig(c *Config) {
	c.Embedding.APIKey = getStringEnv("COLLECTOR_EMBEDDING_API_KEY", c.Embedding.APIKey)
	c.Embedding.Model = getStringEnv("COLLECTOR_EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.RequestTimeoutSeconds = getIntEnv("COLLECTOR_EMBEDDING_TIMEOUT_SECONDS", c.Embedding.RequestTimeoutSeconds)
	c.Embedding.RateLimitRPM = getIntEnv("COLLECTOR_EMBEDDING_RATE_LIMIT_RPM", c.Embedding.RateLimitRPM)
}

func loadChunkingConfig(c *Config) {
	c.Chunking.TargetSize = getIntEnv("COLLECTOR_CHUNK_TARGET_SIZE", c.Chunking.TargetSize)
	c.Chunking.MaxSize = getIntEnv("COLLECTOR_CHUNK_MAX_SIZE", c.Chunking.MaxSize)
	c.Chunking.OverlapSize = getIntEnv("COLLECTOR_CHUNK_OVERLAP_SIZE", c.Chunking.OverlapSize)
}

func loadQueryConfig(c *Config) {
	c.Query.DefaultLimit = getIntEnv("COLLECTOR_QUERY_DEFAULT_LIMIT", c.Query.DefaultLimit)
	c.Query.MaxLimit = getIntEnv("COLLECTOR_QUERY_MAX_LIMIT", c.Query.MaxLimit)
}

func loadLoggingConfig(c *Config) {
	c.Logging.Level = getStringEnv("COLLECTOR_LOG_LEVEL", c.Logging.Level)
	c.Logging.JSON = getBoolEnv("COLLECTOR_LOG_JSON", c.Logging.JSON)
}

// Validate checks the invariants the engine relies on before it opens any
// collection or makes any embedding call.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.VectorStore.Endpoint) == "" {
		return fmt.Errorf("config: vectorStore.endpoint is required")
	}
	if c.VectorStore.Backend != "chroma" && c.VectorStore.Backend != "qdrant" {
		return fmt.Errorf("config: vectorStore.backend must be chroma or qdrant, got %q", c.VectorStore.Backend)
	}
	if c.Chunking.OverlapSize >= c.Chunking.TargetSize {
		return fmt.Errorf("config: chunking.overlapSize must be smaller than chunking.targetSize")
	}
	if c.Query.DefaultLimit <= 0 || c.Query.MaxLimit <= 0 {
		return fmt.Errorf("config: query limits must be positive")
	}
	return nil
}

func getStringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
