package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the process bootstrap configuration, loaded from the
// environment. User-facing runtime settings (access URL, targets,
// schedule) live in the persisted config document instead.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	HTTP     HTTPClientConfig
	LogLevel slog.Level
}

type ServerConfig struct {
	Host               string
	Port               string
	Environment        string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	RateLimitPerSecond int
	RateLimitBurst     int
}

type StorageConfig struct {
	// DataDir holds the three JSON documents unless the config
	// document overrides the state/cache paths.
	DataDir    string
	ConfigPath string
	StatePath  string
	CachePath  string
	// CacheTTL bounds response-cache freshness; zero disables caching.
	CacheTTL time.Duration
}

type HTTPClientConfig struct {
	UpstreamTimeout time.Duration
	NotifyTimeout   time.Duration
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")

	config := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getEnv("SERVER_PORT", "8080"),
			Environment:        getEnv("APP_ENV", "development"),
			ReadTimeout:        getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 5),
			RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 10),
		},
		Storage: StorageConfig{
			DataDir:    dataDir,
			ConfigPath: getEnv("CONFIG_PATH", filepath.Join(dataDir, "config.json")),
			StatePath:  getEnv("STATE_PATH", filepath.Join(dataDir, "balance-state.json")),
			CachePath:  getEnv("CACHE_PATH", filepath.Join(dataDir, "response-cache.json")),
			CacheTTL:   getDurationEnv("CACHE_TTL", time.Minute),
		},
		HTTP: HTTPClientConfig{
			UpstreamTimeout: getDurationEnv("UPSTREAM_TIMEOUT", 30*time.Second),
			NotifyTimeout:   getDurationEnv("NOTIFY_TIMEOUT", 15*time.Second),
		},
		LogLevel: getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),
	}

	return config
}

// ListenAddr is the control-plane bind address.
func (c *Config) ListenAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getLogLevelEnv(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return defaultValue
	}
	return level
}
