package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the ContentIQ server.
type Config struct {
	Server    ServerConfig
	TaskStore TaskStoreConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Analysis  AnalysisConfig
	Analyzers AnalyzersConfig
	Storage   StorageConfig
}

type ServerConfig struct {
	Port           int
	Env            string
	MaxUploadBytes int64
}

type TaskStoreConfig struct {
	Backend  string
	Database DatabaseConfig
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	// KeyHashes holds bcrypt hashes of accepted API keys. When empty,
	// authentication is disabled (development mode).
	KeyHashes      []string
	RequestsPerMin int
}

type AnalysisConfig struct {
	Timeout time.Duration
}

type AnalyzersConfig struct {
	AudioEnabled bool
	VideoEnabled bool
	// MaxMediaDurationSeconds caps how much audio/video is processed per
	// task. Content beyond the ceiling is truncated, not rejected.
	MaxMediaDurationSeconds float64
}

// StorageConfig configures optional upload archival to S3-compatible object
// storage. Archival is enabled when Endpoint is non-empty.
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

var validBackends = map[string]bool{
	"memory":   true,
	"postgres": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           envInt("CONTENTIQ_PORT", 8080),
			Env:            envString("CONTENTIQ_ENV", "development"),
			MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 100<<20),
		},
		TaskStore: TaskStoreConfig{
			Backend: envString("TASKSTORE_BACKEND", "memory"),
			Database: DatabaseConfig{
				URL:             os.Getenv("DATABASE_URL"),
				MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			},
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Auth: AuthConfig{
			KeyHashes:      envList("AUTH_KEY_HASHES"),
			RequestsPerMin: envInt("RATE_LIMIT_PER_MIN", 60),
		},
		Analysis: AnalysisConfig{
			Timeout: envDurationSecs("ANALYSIS_TIMEOUT_SECS", 120*time.Second),
		},
		Analyzers: AnalyzersConfig{
			AudioEnabled:            envBool("ANALYZER_AUDIO_ENABLED", true),
			VideoEnabled:            envBool("ANALYZER_VIDEO_ENABLED", true),
			MaxMediaDurationSeconds: envFloat("MEDIA_MAX_DURATION_SECS", 600),
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			Region:    envString("MINIO_REGION", "us-east-1"),
			Bucket:    envString("MINIO_BUCKET", "contentiq-uploads"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !validBackends[c.TaskStore.Backend] {
		return fmt.Errorf("TASKSTORE_BACKEND must be one of memory, postgres; got %q", c.TaskStore.Backend)
	}
	if c.TaskStore.Backend == "postgres" && c.TaskStore.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when TASKSTORE_BACKEND is postgres")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT_SECS must be positive")
	}
	if c.Analyzers.MaxMediaDurationSeconds <= 0 {
		return fmt.Errorf("MEDIA_MAX_DURATION_SECS must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	if c.Storage.Endpoint != "" {
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
		}
	}

	return nil
}

// ArchivalEnabled reports whether uploads should be copied to object storage.
func (c StorageConfig) ArchivalEnabled() bool {
	return c.Endpoint != ""
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
