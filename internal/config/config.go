// Package config holds the environment-driven configuration for the
// guided-flow service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration settings for the guided-flow service
type Config struct {
	// API server
	APIHost  string
	APIPort  int
	LogLevel string

	// Snapshot store
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Completed-flow archive; empty disables archiving
	ArchiveBucketURL string
	ArchivePrefix    string

	// Simulated backend
	BackendDelay time.Duration

	ShutdownTimeout time.Duration
}

const (
	DefaultAPIHost         = "0.0.0.0"
	DefaultAPIPort         = 8080
	MaxTCPPort             = 65535
	DefaultRedisEndpoint   = "localhost:6379"
	DefaultRedisDB         = 0
	DefaultRedisPrefix     = "guideflow"
	DefaultArchivePrefix   = "flows/"
	DefaultBackendDelay    = 1200 * time.Millisecond
	MaxBackendDelay        = time.Minute
	DefaultShutdownTimeout = 10 * time.Second
)

var (
	ErrInvalidAPIPort      = errors.New("invalid API port")
	ErrInvalidBackendDelay = errors.New("backend delay out of range")
)

// NewDefaultConfig creates a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:         DefaultAPIHost,
		APIPort:         DefaultAPIPort,
		LogLevel:        "info",
		RedisAddr:       DefaultRedisEndpoint,
		RedisDB:         DefaultRedisDB,
		RedisPrefix:     DefaultRedisPrefix,
		ArchivePrefix:   DefaultArchivePrefix,
		BackendDelay:    DefaultBackendDelay,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	if host := os.Getenv("API_HOST"); host != "" {
		c.APIHost = host
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.RedisAddr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.RedisPassword = password
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		c.RedisPrefix = prefix
	}
	if bucketURL := os.Getenv("ARCHIVE_BUCKET_URL"); bucketURL != "" {
		c.ArchiveBucketURL = bucketURL
	}
	if prefix := os.Getenv("ARCHIVE_PREFIX"); prefix != "" {
		c.ArchivePrefix = prefix
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt("REDIS_DB", &c.RedisDB, -1, 15); err != nil {
		return err
	}

	if raw := os.Getenv("BACKEND_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid BACKEND_DELAY: %q", raw)
		}
		c.BackendDelay = d
	}
	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.BackendDelay < 0 || c.BackendDelay > MaxBackendDelay {
		return fmt.Errorf("%w: %s", ErrInvalidBackendDelay, c.BackendDelay)
	}
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]. Returns an error if
// the value cannot be parsed or falls outside the valid range.
func loadEnvInt[T ~int](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
