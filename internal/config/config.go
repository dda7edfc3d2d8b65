// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/validation"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	YouTube  YouTubeConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Sync     SyncConfig
	Logging  LoggingConfig
	Server   ServerConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	// AdminAPIKeys guard the refresh-trigger endpoints. When empty, those
	// endpoints reject every request.
	AdminAPIKeys []string
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RedisConfig contains cache connection configuration.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// YouTubeConfig contains the upstream API configuration.
type YouTubeConfig struct {
	APIKey    string
	ChannelID string
}

// SyncConfig contains refresh tuning knobs.
type SyncConfig struct {
	// ChannelRefreshInterval is how stale channel metadata may get before an
	// incremental refresh re-fetches it.
	ChannelRefreshInterval time.Duration
	// MaxPlaylistPages bounds pagination so a misbehaving upstream cannot
	// keep a refresh running forever.
	MaxPlaylistPages int
	// RefreshOnStartup runs a refresh when the server boots.
	RefreshOnStartup bool
}

// RabbitMQConfig contains the optional event publisher configuration.
// Publishing is disabled when Host is empty.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Host       string
	User       string
	Password   string
	Exchange   string
	RoutingKey string
	Port       int
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.YouTube.APIKey == "" {
		return nil, fmt.Errorf("youtube.apikey is required (APP_YOUTUBE_APIKEY)")
	}
	if cfg.YouTube.ChannelID == "" {
		return nil, fmt.Errorf("youtube.channelid is required (APP_YOUTUBE_CHANNELID)")
	}
	if err := validation.ValidateChannelID(cfg.YouTube.ChannelID); err != nil {
		return nil, fmt.Errorf("youtube.channelid: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.adminapikeys", []string{})

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "channelboard")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// YouTube (no usable defaults; Load rejects empty values)
	viper.SetDefault("youtube.apikey", "")
	viper.SetDefault("youtube.channelid", "")

	// Redis
	viper.SetDefault("redis.url", "redis://localhost:6379")
	viper.SetDefault("redis.cachettl", 24*time.Hour)

	// Sync
	viper.SetDefault("sync.channelrefreshinterval", 24*time.Hour)
	viper.SetDefault("sync.maxplaylistpages", 400)
	viper.SetDefault("sync.refreshonstartup", true)

	// RabbitMQ (optional)
	viper.SetDefault("rabbitmq.host", "")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "channelboard.events")
	viper.SetDefault("rabbitmq.routingkey", "refresh.completed")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
