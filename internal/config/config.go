package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"propertymatch/internal/extract"
)

// Backends for the corpus and session stores
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Redis      RedisConfig
	Server     ServerConfig
	Corpus     CorpusConfig
	Session    SessionConfig
	Match      MatchConfig
	Index      IndexConfig
	Extraction ExtractionConfig
	Logging    LoggingConfig
	OpenAI     OpenAIConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred over the fields below
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// RedisConfig holds Redis connection configuration for the session store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	Prefix   string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	GinMode         string
	AllowedOrigins  string
	AllowedMethods  string
	AllowedHeaders  string
	MaxUploadMB     int
	ShutdownTimeout time.Duration
}

// CorpusConfig selects where embedded records are persisted
type CorpusConfig struct {
	Backend     string // memory, file or postgres
	Dir         string // directory of the file backend
	SeedDemo    bool   // index the built-in demo properties on startup
	SourcesFile string // YAML list of brochures for the ingest command
}

// SessionConfig selects where conversation state lives
type SessionConfig struct {
	Backend string // memory or redis
	TTL     time.Duration
}

// MatchConfig holds the ranking cut
type MatchConfig struct {
	SimilarityFloor float64
	TopK            int
}

// IndexConfig holds indexing configuration
type IndexConfig struct {
	Concurrency int
}

// ExtractionConfig holds field extraction defaults
type ExtractionConfig struct {
	DefaultLocation string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// OpenAIConfig holds configuration of the OpenAI-compatible embedding API
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingExtraBody  string // JSON merged into the request body (e.g., {"truncate":"NONE"})
	BatchSize           int    // inputs per embeddings request during indexing
	Timeout             int    // seconds
	Enabled             bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "property_match"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
			Prefix:   getEnv("REDIS_SESSION_PREFIX", "pm:session:"),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:         getEnv("GIN_MODE", "release"),
			AllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods:  getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders:  getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
			MaxUploadMB:     getEnvAsInt("MAX_UPLOAD_MB", 32),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Corpus: CorpusConfig{
			Backend:     strings.ToLower(getEnv("CORPUS_BACKEND", BackendFile)),
			Dir:         getEnv("CORPUS_DIR", "data/embeddings"),
			SeedDemo:    getEnvAsBool("CORPUS_SEED_DEMO", true),
			SourcesFile: getEnv("SOURCES_FILE", "sources.yaml"),
		},
		Session: SessionConfig{
			Backend: strings.ToLower(getEnv("SESSION_BACKEND", BackendMemory)),
			TTL:     getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		Match: MatchConfig{
			SimilarityFloor: getEnvAsFloat("MATCH_SIMILARITY_FLOOR", 0.3),
			TopK:            getEnvAsInt("MATCH_TOP_K", 10),
		},
		Index: IndexConfig{
			Concurrency: getEnvAsInt("INDEX_CONCURRENCY", 4),
		},
		Extraction: ExtractionConfig{
			DefaultLocation: getEnv("EXTRACT_DEFAULT_LOCATION", extract.DefaultLocation),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
			EmbeddingExtraBody:  getEnv("OPENAI_EMBEDDING_EXTRA_BODY", ""),
			BatchSize:           getEnvAsInt("OPENAI_BATCH_SIZE", 16),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	switch c.Corpus.Backend {
	case BackendMemory, BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("invalid CORPUS_BACKEND %q (memory, file or postgres)", c.Corpus.Backend)
	}
	switch c.Session.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q (memory or redis)", c.Session.Backend)
	}
	if c.Match.SimilarityFloor < -1 || c.Match.SimilarityFloor >= 1 {
		return fmt.Errorf("MATCH_SIMILARITY_FLOOR must be in [-1, 1), got %v", c.Match.SimilarityFloor)
	}
	if c.Match.TopK <= 0 {
		return fmt.Errorf("MATCH_TOP_K must be positive, got %d", c.Match.TopK)
	}
	if c.Index.Concurrency <= 0 {
		return fmt.Errorf("INDEX_CONCURRENCY must be positive, got %d", c.Index.Concurrency)
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warn().Str("key", key).Float64("default", defaultValue).Msg("invalid float value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Bool("default", defaultValue).Msg("invalid boolean value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Dur("default", defaultValue).Msg("invalid duration value, using default")
		return defaultValue
	}
	return value
}
