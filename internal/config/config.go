package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `json:"server" yaml:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database" yaml:"database"`

	// MongoDB holds message attachments (GridFS)
	MongoDB MongoDBConfig `json:"mongodb" yaml:"mongodb"`

	Crypto CryptoConfig `json:"crypto" yaml:"crypto"`

	Auth AuthConfig `json:"auth" yaml:"auth"`

	Chat ChatConfig `json:"chat" yaml:"chat"`

	// Notification Configuration
	Notification NotificationConfig `json:"notification" yaml:"notification"`

	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host         string `json:"host" yaml:"host"`
	HTTPPort     string `json:"http_port" yaml:"http_port"`
	GRPCPort     string `json:"grpc_port" yaml:"grpc_port"`
	MediaPort    string `json:"media_port" yaml:"media_port"`
	MediaBaseURL string `json:"media_base_url" yaml:"media_base_url"`
	ReadTimeout  int    `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int    `json:"write_timeout" yaml:"write_timeout"`
	Environment  string `json:"environment" yaml:"environment"` // development, staging, production
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `json:"host" yaml:"host"`
	Port         string `json:"port" yaml:"port"`
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"password" yaml:"password"`
	DatabaseName string `json:"database_name" yaml:"database_name"`
	MaxOpenConns int    `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns" yaml:"max_idle_conns"`
}

type MongoDBConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
	Bucket   string `json:"bucket" yaml:"bucket"`
}

// CryptoConfig holds the at-rest message key. PreviousKeys are only used to decrypt.
type CryptoConfig struct {
	EncryptionKey string   `json:"-" yaml:"encryption_key"`
	PreviousKeys  []string `json:"-" yaml:"previous_keys"`
}

type AuthConfig struct {
	JWTSecret     string `json:"-" yaml:"jwt_secret"`
	TokenTTLHours int    `json:"token_ttl_hours" yaml:"token_ttl_hours"`
}

type ChatConfig struct {
	HistoryLimit       int    `json:"history_limit" yaml:"history_limit"`
	DefaultEmoji       string `json:"default_emoji" yaml:"default_emoji"`
	MaxAttachmentBytes int64  `json:"max_attachment_bytes" yaml:"max_attachment_bytes"`
}

// NotificationConfig contains notification system configuration
type NotificationConfig struct {
	Workers           int  `json:"workers" yaml:"workers"`                         // Number of worker goroutines
	ChannelBufferSize int  `json:"channel_buffer_size" yaml:"channel_buffer_size"` // Channel buffer size
	Enabled           bool `json:"enabled" yaml:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
	Enabled           bool    `json:"enabled" yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level"`             // debug, info, warn, error
	Format     string `json:"format" yaml:"format"`           // json, console
	OutputPath string `json:"output_path" yaml:"output_path"` // stdout, stderr, or file path
}

// LoadConfig reads .env (if present), then an optional YAML file named by CONFIG_FILE,
// then lets environment variables override both.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := defaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			log.Printf("Config file %s ignored: %v", path, err)
		}
	}

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.HTTPPort = getEnv("HTTP_PORT", cfg.Server.HTTPPort)
	cfg.Server.GRPCPort = getEnv("GRPC_PORT", cfg.Server.GRPCPort)
	cfg.Server.MediaPort = getEnv("MEDIA_SERVER_PORT", cfg.Server.MediaPort)
	cfg.Server.ReadTimeout = getEnvAsInt("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsInt("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.Environment = getEnv("ENVIRONMENT", cfg.Server.Environment)
	cfg.Server.MediaBaseURL = getEnv("MEDIA_BASE_URL",
		fmt.Sprintf("http://%s:%s/media/", cfg.Server.Host, cfg.Server.MediaPort))

	cfg.Database.Host = getEnv("MYSQL_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("MYSQL_PORT", cfg.Database.Port)
	cfg.Database.Username = getEnv("MYSQL_USERNAME", cfg.Database.Username)
	cfg.Database.Password = getEnv("MYSQL_PASSWORD", cfg.Database.Password)
	cfg.Database.DatabaseName = getEnv("MYSQL_DATABASE", cfg.Database.DatabaseName)
	cfg.Database.MaxOpenConns = getEnvAsInt("MYSQL_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvAsInt("MYSQL_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)

	cfg.MongoDB.Host = getEnv("MONGO_HOST", cfg.MongoDB.Host)
	cfg.MongoDB.Port = getEnv("MONGO_PORT", cfg.MongoDB.Port)
	cfg.MongoDB.Username = getEnv("MONGO_USERNAME", cfg.MongoDB.Username)
	cfg.MongoDB.Password = getEnv("MONGO_PASSWORD", cfg.MongoDB.Password)
	cfg.MongoDB.Database = getEnv("MONGO_DATABASE", cfg.MongoDB.Database)
	cfg.MongoDB.Bucket = getEnv("MONGO_BUCKET", cfg.MongoDB.Bucket)

	cfg.Crypto.EncryptionKey = getEnv("CHAT_ENCRYPTION_KEY", cfg.Crypto.EncryptionKey)
	if prev := os.Getenv("CHAT_ENCRYPTION_PREVIOUS_KEYS"); prev != "" {
		cfg.Crypto.PreviousKeys = splitList(prev)
	}

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTLHours = getEnvAsInt("JWT_TTL_HOURS", cfg.Auth.TokenTTLHours)

	cfg.Chat.HistoryLimit = getEnvAsInt("CHAT_HISTORY_LIMIT", cfg.Chat.HistoryLimit)
	cfg.Chat.DefaultEmoji = getEnv("CHAT_DEFAULT_EMOJI", cfg.Chat.DefaultEmoji)
	cfg.Chat.MaxAttachmentBytes = int64(getEnvAsInt("CHAT_MAX_ATTACHMENT_BYTES", int(cfg.Chat.MaxAttachmentBytes)))

	cfg.Notification.Workers = getEnvAsInt("NOTIF_WORKERS", cfg.Notification.Workers)
	cfg.Notification.ChannelBufferSize = getEnvAsInt("NOTIF_BUFFER_SIZE", cfg.Notification.ChannelBufferSize)
	cfg.Notification.Enabled = getEnvAsBool("NOTIF_ENABLED", cfg.Notification.Enabled)

	cfg.RateLimit.RequestsPerSecond = getEnvAsFloat("RATE_LIMIT_RPS", cfg.RateLimit.RequestsPerSecond)
	cfg.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.OutputPath = getEnv("LOG_OUTPUT", cfg.Logging.OutputPath)

	return cfg
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			HTTPPort:     "7003",
			GRPCPort:     "7013",
			MediaPort:    "8080",
			ReadTimeout:  15,
			WriteTimeout: 15,
			Environment:  "development",
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "3306",
			Username:     "gochat",
			Password:     "gochat123",
			DatabaseName: "gochat",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		MongoDB: MongoDBConfig{
			Host:     "localhost",
			Port:     "27017",
			Username: "admin",
			Password: "admin123",
			Database: "gochat",
			Bucket:   "chat_attachments",
		},
		Auth: AuthConfig{
			JWTSecret:     "change-me",
			TokenTTLHours: 24,
		},
		Chat: ChatConfig{
			HistoryLimit:       50,
			DefaultEmoji:       "👍",
			MaxAttachmentBytes: 25 << 20,
		},
		Notification: NotificationConfig{
			Workers:           5,
			ChannelBufferSize: 1000,
			Enabled:           true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
			Enabled:           true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}

func (cfg *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Username == "" && cfg.MongoDB.Password == "" {
		return fmt.Sprintf("mongodb://%s:%s/%s", cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=admin",
		cfg.MongoDB.Username,
		cfg.MongoDB.Password,
		cfg.MongoDB.Host,
		cfg.MongoDB.Port,
		cfg.MongoDB.Database,
	)
}

func (cfg *Config) IsDevelopment() bool {
	return cfg.Server.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
