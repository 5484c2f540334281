/*
Package config manages the TOML config for the city search service.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure.
type Config struct {
	Redis  RedisConfig  `toml:"redis"`
	Server ServerConfig `toml:"server"`
	Loader LoaderConfig `toml:"loader"`
}

// RedisConfig has connection options for the backing store.
type RedisConfig struct {
	Addr             string `toml:"addr"`
	DB               int    `toml:"db"`
	PoolSize         int    `toml:"pool_size"`
	MaxRetries       int    `toml:"max_retries"`
	RetryDelayMS     int    `toml:"retry_delay_ms"`
	ConnectTimeoutMS int    `toml:"connect_timeout_ms"`
}

// ServerConfig has HTTP serving and query validation options.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	DefaultLimit int    `toml:"default_limit"`
	MaxLimit     int    `toml:"max_limit"`
	MaxQueryLen  int    `toml:"max_query_len"`
	HotCacheSize int    `toml:"hot_cache_size"`
}

// LoaderConfig has bulk load options.
type LoaderConfig struct {
	BatchSize int `toml:"batch_size"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			Addr:             "localhost:6379",
			DB:               0,
			PoolSize:         50,
			MaxRetries:       5,
			RetryDelayMS:     2000,
			ConnectTimeoutMS: 5000,
		},
		Server: ServerConfig{
			Addr:         ":5000",
			DefaultLimit: 10,
			MaxLimit:     100,
			MaxQueryLen:  60,
			HotCacheSize: 4096,
		},
		Loader: LoaderConfig{
			BatchSize: 1000,
		},
	}
}

// RetryDelay returns the startup retry delay as a duration.
func (c RedisConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// ConnectTimeout returns the dial timeout as a duration.
func (c RedisConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}

// Load reads the config at path over the defaults. An empty path or a
// missing file yields the defaults; a file that exists but cannot be parsed
// is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Debugf("no config file at %s, using defaults", path)
		cfg.applyEnv()
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	log.Debugf("loaded config from %s", path)
	cfg.applyEnv()
	return cfg, nil
}

// Init loads config from path, creating a default file first when none
// exists.
func Init(path string) (*Config, error) {
	if path == "" {
		return Load("")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(DefaultConfig(), path); err != nil {
			log.Warnf("could not create default config at %s: %v", path, err)
			return Load("")
		}
		log.Debugf("created default config file at %s", path)
	}
	return Load(path)
}

// Save writes cfg as TOML to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// applyEnv lets container environments point at the store without a config
// file, matching the REDIS_HOST/REDIS_PORT convention.
func (c *Config) applyEnv() {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
		return
	}
	host := os.Getenv("REDIS_HOST")
	port := os.Getenv("REDIS_PORT")
	if host == "" && port == "" {
		return
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	c.Redis.Addr = host + ":" + port
}
