package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName    string          `mapstructure:"APP_NAME"`
	Env        string          `mapstructure:"ENV"` // "development" or "production"
	Log        LogConfig       `mapstructure:"LOG"`
	Server     ServerConfig    `mapstructure:"SERVER"`
	Database   DatabaseConfig  `mapstructure:"DATABASE"`
	Auth       AuthConfig      `mapstructure:"AUTH"`
	Redis      RedisConfig     `mapstructure:"REDIS"`
	Kafka      KafkaConfig     `mapstructure:"KAFKA"`
	Chat       ChatConfig      `mapstructure:"CHAT"`
	RateLimits RateLimitConfig `mapstructure:"RATE_LIMITS"`
}

// LogConfig holds configuration for structured logging.
type LogConfig struct {
	Level      string `mapstructure:"LEVEL"`
	Filename   string `mapstructure:"FILENAME"`
	MaxSizeMB  int    `mapstructure:"MAX_SIZE_MB"`
	MaxBackups int    `mapstructure:"MAX_BACKUPS"`
	MaxAgeDays int    `mapstructure:"MAX_AGE_DAYS"`
	Compress   bool   `mapstructure:"COMPRESS"`
}

// ServerConfig holds configuration for the HTTP API server.
type ServerConfig struct {
	Host           string        `mapstructure:"HOST"`
	Port           string        `mapstructure:"PORT"`
	ReadTimeout    time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"WRITE_TIMEOUT"`
	MaxHeaderBytes int           `mapstructure:"MAX_HEADER_BYTES"`
	CORS           CORSConfig    `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// DatabaseConfig holds configuration for the database.
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"`
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
}

// AuthConfig holds configuration for session authentication.
// JWTSecretKey intentionally has no default: main refuses to start without one.
type AuthConfig struct {
	JWTSecretKey string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry    time.Duration `mapstructure:"JWT_EXPIRY"`
}

// RedisConfig holds configuration for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// KafkaConfig holds configuration for the notification event producer.
// An empty broker list disables event publishing entirely.
type KafkaConfig struct {
	Brokers            []string `mapstructure:"BROKERS"`
	ClientID           string   `mapstructure:"CLIENT_ID"`
	NotificationsTopic string   `mapstructure:"NOTIFICATIONS_TOPIC"`
	Protocol           string   `mapstructure:"PROTOCOL"`
}

// ChatConfig holds credentials for the external chat-identity provider.
type ChatConfig struct {
	APIKey    string `mapstructure:"API_KEY"`
	APISecret string `mapstructure:"API_SECRET"`
	BaseURL   string `mapstructure:"BASE_URL"`
}

// RateLimitConfig holds settings for the login attempt limiter.
type RateLimitConfig struct {
	LoginMaxAttempts int           `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	LoginWindow      time.Duration `mapstructure:"LOGIN_WINDOW"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	v.SetDefault("APP_NAME", "streamify")
	v.SetDefault("ENV", "development")

	// Log Defaults
	v.SetDefault("LOG.LEVEL", "info")
	v.SetDefault("LOG.FILENAME", "./logs/apiserver.log")
	v.SetDefault("LOG.MAX_SIZE_MB", 50)
	v.SetDefault("LOG.MAX_BACKUPS", 5)
	v.SetDefault("LOG.MAX_AGE_DAYS", 30)
	v.SetDefault("LOG.COMPRESS", true)

	// Server Defaults
	v.SetDefault("SERVER.HOST", "0.0.0.0")
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.MAX_HEADER_BYTES", 1<<20) // 1 MB
	v.SetDefault("SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"})
	v.SetDefault("SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length"})
	v.SetDefault("SERVER.CORS.ALLOW_CREDENTIALS", true) // session cookie must survive the CORS hop
	v.SetDefault("SERVER.CORS.MAX_AGE", 300)

	// Database Defaults
	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "streamify_db")
	v.SetDefault("DATABASE.SSL_MODE", "disable")

	// Auth Defaults. The empty secret default only registers the key so the
	// environment variable binds; main refuses to start on an empty secret.
	v.SetDefault("AUTH.JWT_SECRET_KEY", "")
	v.SetDefault("AUTH.JWT_EXPIRY", 7*24*time.Hour)

	// Redis Defaults
	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	// Kafka Defaults
	v.SetDefault("KAFKA.BROKERS", []string{})
	v.SetDefault("KAFKA.CLIENT_ID", "streamify-apiserver")
	v.SetDefault("KAFKA.NOTIFICATIONS_TOPIC", "streamify-notifications")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")

	// Chat provider defaults. Key and secret register empty so their
	// environment variables bind.
	v.SetDefault("CHAT.API_KEY", "")
	v.SetDefault("CHAT.API_SECRET", "")
	v.SetDefault("CHAT.BASE_URL", "https://chat.stream-io-api.com")

	// Rate limit defaults
	v.SetDefault("RATE_LIMITS.LOGIN_MAX_ATTEMPTS", 10)
	v.SetDefault("RATE_LIMITS.LOGIN_WINDOW", time.Minute)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return
		}
		// Config file not found; defaults plus environment are enough.
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}
