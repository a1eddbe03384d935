package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Upstream collaborators (tenders API, preferences, chat, speech)
	Upstream UpstreamConfig

	// Listing behaviour of the tender views
	Listing ListingConfig

	// Identity extraction
	Auth AuthConfig

	// Preference mirror worker pool
	Mirror MirrorConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// UpstreamConfig holds the base URLs and timeouts of external collaborators
type UpstreamConfig struct {
	TendersBaseURL     string
	PreferencesBaseURL string
	ChatbotURL         string
	SpeechURL          string
	Timeout            time.Duration
	ChatTimeout        time.Duration
	SpeechTimeout      time.Duration
	StatsTTL           time.Duration
}

// ListingConfig holds tender list settings
type ListingConfig struct {
	PageSize        int
	FetchChunk      int // records fetched when filtering locally
	Timezone        string
	DetailCacheSize int
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string
	DevHeader bool // accept X-User-Email without a token
}

// MirrorConfig holds preference mirror settings
type MirrorConfig struct {
	Workers   int
	QueueSize int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "tender_discovery"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Upstream: UpstreamConfig{
			TendersBaseURL:     strings.TrimRight(getEnv("TENDERS_API_BASE_URL", ""), "/"),
			PreferencesBaseURL: strings.TrimRight(getEnv("PREFERENCES_API_URL", ""), "/"),
			ChatbotURL:         strings.TrimSpace(getEnv("CHATBOT_API_URL", "")),
			SpeechURL:          strings.TrimSpace(getEnv("SPEECH_API_URL", "")),
			Timeout:            getDurationEnv("UPSTREAM_TIMEOUT", 15*time.Second),
			ChatTimeout:        getDurationEnv("CHAT_TIMEOUT", 20*time.Second),
			SpeechTimeout:      getDurationEnv("SPEECH_TIMEOUT", 15*time.Second),
			StatsTTL:           getDurationEnv("STATS_TTL", 5*time.Minute),
		},
		Listing: ListingConfig{
			PageSize:        getIntEnv("PAGE_SIZE", 20),
			FetchChunk:      getIntEnv("FETCH_CHUNK", 400),
			Timezone:        getEnv("LISTING_TIMEZONE", "UTC"),
			DetailCacheSize: getIntEnv("DETAIL_CACHE_SIZE", 1000),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			DevHeader: getBoolEnv("AUTH_DEV_HEADER", false),
		},
		Mirror: MirrorConfig{
			Workers:   getIntEnv("MIRROR_WORKERS", 4),
			QueueSize: getIntEnv("MIRROR_QUEUE_SIZE", 256),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Upstream.TendersBaseURL == "" {
		return fmt.Errorf("TENDERS_API_BASE_URL is required")
	}
	if c.Listing.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive")
	}
	if c.Listing.FetchChunk < c.Listing.PageSize {
		return fmt.Errorf("FETCH_CHUNK must be at least PAGE_SIZE")
	}
	if _, err := time.LoadLocation(c.Listing.Timezone); err != nil {
		return fmt.Errorf("LISTING_TIMEZONE is invalid: %w", err)
	}
	if c.Auth.JWTSecret == "" && !c.Auth.DevHeader {
		return fmt.Errorf("AUTH_JWT_SECRET is required unless AUTH_DEV_HEADER is enabled")
	}
	return nil
}

// Location returns the listing time zone. Validate guarantees it loads.
func (c *ListingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

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

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
