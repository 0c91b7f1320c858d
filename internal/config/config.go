package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Provider ProviderConfig `mapstructure:"provider"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Token    TokenConfig    `mapstructure:"token"`
	Notifier NotifierConfig `mapstructure:"notifier"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// ProviderConfig holds settings for the wallet-bridge provider adapter and
// the network enforcement gate.
type ProviderConfig struct {
	RPCURL       string        `mapstructure:"rpc_url"`
	WSURL        string        `mapstructure:"ws_url"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	EventDelay   time.Duration `mapstructure:"event_delay"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
}

// BackendConfig holds settings for the chat backend adapter.
type BackendConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	UserCacheTTL     time.Duration `mapstructure:"user_cache_ttl"`
	UserCacheCleanup time.Duration `mapstructure:"user_cache_cleanup"`
}

// TokenConfig holds identity token issuance settings. The secret is expected
// to arrive via SECUREMESSENGER_TOKEN_SECRET rather than the config file.
type TokenConfig struct {
	Secret string `mapstructure:"secret"`
}

// NotifierConfig holds notification lifetime settings.
type NotifierConfig struct {
	IntegrityTTL time.Duration `mapstructure:"integrity_ttl"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	ErrorTTL     time.Duration `mapstructure:"error_ttl"`
	RemovalGrace time.Duration `mapstructure:"removal_grace"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "secure-messenger")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("provider.rpc_url", "http://127.0.0.1:8545")
	v.SetDefault("provider.ws_url", "")
	v.SetDefault("provider.probe_timeout", "5s")
	v.SetDefault("provider.event_delay", "500ms")
	v.SetDefault("provider.settle_delay", "1s")
	v.SetDefault("backend.base_url", "https://chat.stream-io-api.com")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.request_timeout", "10s")
	v.SetDefault("backend.user_cache_ttl", "30s")
	v.SetDefault("backend.user_cache_cleanup", "1m")
	v.SetDefault("token.secret", "")
	v.SetDefault("notifier.integrity_ttl", "10s")
	v.SetDefault("notifier.default_ttl", "5s")
	v.SetDefault("notifier.error_ttl", "8s")
	v.SetDefault("notifier.removal_grace", "500ms")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Printf("Warning: Config file not found in %s or '.', using defaults/env vars\n", configPath)
		}
	}

	v.SetEnvPrefix("SECUREMESSENGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c ProviderConfig) GetProbeTimeout() time.Duration {
	return c.ProbeTimeout
}

func (c BackendConfig) GetUserCacheTTL() time.Duration {
	return c.UserCacheTTL
}

func (c BackendConfig) GetUserCacheCleanup() time.Duration {
	return c.UserCacheCleanup
}
