// Package config loads application configuration for the cmd layer from a
// YAML file with environment variable overrides. Library packages take their
// settings as structs; this package only exists so the proxy binary can be
// configured without code changes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tallykit/tallygate/pkg/logging"
	"github.com/tallykit/tallygate/pkg/transport"
)

// Config is the application configuration for the diagnostic proxy.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// GatewayConfig configures the transport client.
type GatewayConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	TimeoutSeconds         int    `yaml:"timeout_seconds"`
	RetryCount             int    `yaml:"retry_count"`
	RetryDelaySeconds      int    `yaml:"retry_delay_seconds"`
	AutoDiscover           bool   `yaml:"auto_discover"`
	MonitorIntervalSeconds int    `yaml:"monitor_interval_seconds"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	MaxSize           int `yaml:"max_size"`
	DefaultTTLSeconds int `yaml:"default_ttl_seconds"`

	// RedisAddr switches the cache to Redis when set (host:port).
	RedisAddr string `yaml:"redis_addr"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ServerConfig configures the proxy HTTP server.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the configuration used when no file or env is present.
func Default() Config {
	return Config{
		Gateway: GatewayConfig{
			Host:                   "localhost",
			Port:                   9000,
			TimeoutSeconds:         30,
			RetryCount:             3,
			RetryDelaySeconds:      1,
			MonitorIntervalSeconds: 30,
		},
		Cache: CacheConfig{
			MaxSize:           100,
			DefaultTTLSeconds: 300,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment variable overrides. A missing file is not an error; the
// defaults plus env apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides config fields from TALLY_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TALLY_HOST"); v != "" {
		cfg.Gateway.Host = v
	}
	if v := envInt("TALLY_PORT"); v > 0 {
		cfg.Gateway.Port = v
	}
	if v := envInt("TALLY_TIMEOUT_SECONDS"); v > 0 {
		cfg.Gateway.TimeoutSeconds = v
	}
	if v := envInt("TALLY_RETRY_COUNT"); v > 0 {
		cfg.Gateway.RetryCount = v
	}
	if v := os.Getenv("TALLY_AUTO_DISCOVER"); v != "" {
		cfg.Gateway.AutoDiscover = v == "true" || v == "1"
	}
	if v := envInt("TALLY_CACHE_MAX_SIZE"); v > 0 {
		cfg.Cache.MaxSize = v
	}
	if v := os.Getenv("TALLY_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("TALLY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TALLY_LOG_PRETTY"); v != "" {
		cfg.Logging.Pretty = v == "true" || v == "1"
	}
	if v := os.Getenv("TALLY_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// TransportConfig converts the gateway section to a transport.Config.
func (c Config) TransportConfig() transport.Config {
	cfg := transport.DefaultConfig()
	cfg.Host = c.Gateway.Host
	cfg.Port = c.Gateway.Port
	cfg.Timeout = time.Duration(c.Gateway.TimeoutSeconds) * time.Second
	cfg.RetryCount = c.Gateway.RetryCount
	cfg.RetryDelay = time.Duration(c.Gateway.RetryDelaySeconds) * time.Second
	cfg.AutoDiscover = c.Gateway.AutoDiscover
	return cfg
}

// LogConfig converts the logging section to a logging.Config.
func (c Config) LogConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = logging.LogLevel(c.Logging.Level)
	lc.Pretty = c.Logging.Pretty
	return lc
}
