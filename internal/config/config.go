package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// MongoDB Configuration (image attachments)
	Mongo MongoConfig `json:"mongo"`

	// Link-preview fetcher configuration
	Preview PreviewConfig `json:"preview"`

	// Typing-indicator windows
	Typing TypingConfig `json:"typing"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port         string `json:"port"`
	MediaPort    string `json:"media_port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	Environment  string `json:"environment"` // development, staging, production
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

// MongoConfig contains the GridFS image store configuration
type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// PreviewConfig bounds the outbound link-preview fetch
type PreviewConfig struct {
	TimeoutSeconds int   `json:"timeout_seconds"`
	MaxBodyBytes   int64 `json:"max_body_bytes"`
}

// TypingConfig holds the two typing-indicator windows. The cleanup window
// is tighter than the visibility window on purpose: writes scrub rows that
// reads stopped returning a while ago.
type TypingConfig struct {
	VisibilitySeconds int `json:"visibility_seconds"`
	CleanupSeconds    int `json:"cleanup_seconds"`
}

// LoadConfig reads .env (if present) and builds the config from the
// environment with defaults suitable for local development.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnvOrDefault("SERVER_PORT", "8080"),
			MediaPort:    getEnvOrDefault("MEDIA_PORT", "8081"),
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvIntOrDefault("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 15),
			Environment:  getEnvOrDefault("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnvOrDefault("DB_HOST", "localhost"),
			Port:         getEnvOrDefault("DB_PORT", "3306"),
			Username:     getEnvOrDefault("DB_USER", "chathub"),
			Password:     getEnvOrDefault("DB_PASSWORD", "chathub123"),
			DatabaseName: getEnvOrDefault("DB_NAME", "chathub"),
			MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		},
		Mongo: MongoConfig{
			URI:      getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnvOrDefault("MONGO_DB", "chathub_media"),
		},
		Preview: PreviewConfig{
			TimeoutSeconds: getEnvIntOrDefault("PREVIEW_TIMEOUT", 10),
			MaxBodyBytes:   int64(getEnvIntOrDefault("PREVIEW_MAX_BODY", 1<<20)),
		},
		Typing: TypingConfig{
			VisibilitySeconds: getEnvIntOrDefault("TYPING_VISIBILITY_SECONDS", 30),
			CleanupSeconds:    getEnvIntOrDefault("TYPING_CLEANUP_SECONDS", 10),
		},
	}
}

func (cfg *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid value for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
