package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// MaxRecommendCacheTTL bounds how long a ranked list may be served from cache.
// Workload changes with every assignment, so stale rankings must expire quickly.
const MaxRecommendCacheTTL = 60 * time.Second

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig
	Redis    RedisConfig

	// Scoring / recommendation
	Scoring   ScoringConfig
	Catalog   CatalogConfig
	Recommend RecommendConfig
	API       APIConfig

	// Scheduler
	SnapshotSchedule string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ScoringConfig points at the coefficient file
type ScoringConfig struct {
	ConfigPath string // empty = built-in defaults
}

// CatalogConfig holds the pricing catalog client settings
type CatalogConfig struct {
	BaseURL string // empty = price component disabled
	Timeout time.Duration
}

// RecommendConfig tunes the recommendation service
type RecommendConfig struct {
	CacheTTL         time.Duration // 0 = no caching
	FetchConcurrency int
	DefaultTopK      int
}

// APIConfig holds request rate limiting for the recommendation endpoints
type APIConfig struct {
	RateLimit float64 // requests per second, 0 = unlimited
	RateBurst int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Scoring: ScoringConfig{
			ConfigPath: getEnv("SCORING_CONFIG_PATH", ""),
		},

		Catalog: CatalogConfig{
			BaseURL: getEnv("CATALOG_BASE_URL", ""),
			Timeout: getEnvAsDuration("CATALOG_TIMEOUT", "3s"),
		},

		Recommend: RecommendConfig{
			CacheTTL:         getEnvAsDuration("RECOMMEND_CACHE_TTL", "30s"),
			FetchConcurrency: getEnvAsInt("RECOMMEND_FETCH_CONCURRENCY", 8),
			DefaultTopK:      getEnvAsInt("RECOMMEND_DEFAULT_TOP_K", 5),
		},

		API: APIConfig{
			RateLimit: getEnvAsFloat("API_RATE_LIMIT", 20),
			RateBurst: getEnvAsInt("API_RATE_BURST", 40),
		},

		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "0 0 2 * * *"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	// 캐시 TTL은 60초 이하 (워크로드가 자주 바뀜)
	if c.Recommend.CacheTTL < 0 || c.Recommend.CacheTTL > MaxRecommendCacheTTL {
		return fmt.Errorf("RECOMMEND_CACHE_TTL must be between 0 and %s, got %s",
			MaxRecommendCacheTTL, c.Recommend.CacheTTL)
	}

	if c.Recommend.FetchConcurrency < 1 {
		return fmt.Errorf("RECOMMEND_FETCH_CONCURRENCY must be at least 1")
	}

	if c.API.RateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must not be negative")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
