package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/aescanero/dago-templates/internal/namemap"
)

// Config holds all configuration for the template engine and the tmpl CLI
type Config struct {
	// Template cache: -1 unlimited, 0 disabled, N keeps N templates
	CacheSize int `env:"TMPL_CACHE_SIZE" envDefault:"-1"`

	// Syntax
	VarStart string `env:"TMPL_VAR_START" envDefault:"~%"`
	VarEnd   string `env:"TMPL_VAR_END" envDefault:"%"`
	TagStart string `env:"TMPL_TAG_START" envDefault:"~%%"`
	TagEnd   string `env:"TMPL_TAG_END" envDefault:"%"`

	// Data access
	NullIsUndefined bool `env:"TMPL_NULL_IS_UNDEFINED" envDefault:"false"`
	CELPaths        bool `env:"TMPL_CEL_PATHS" envDefault:"false"`
	// identity, snake, screaming-snake, kebab, camel or lower-camel
	NameMapper string `env:"TMPL_NAME_MAPPER" envDefault:"identity"`

	// Redis template store; disabled when RedisAddr is empty
	RedisAddr     string        `env:"TMPL_REDIS_ADDR" envDefault:""`
	RedisPassword string        `env:"TMPL_REDIS_PASS" envDefault:""`
	RedisDB       int           `env:"TMPL_REDIS_DB" envDefault:"0"`
	RedisPrefix   string        `env:"TMPL_REDIS_PREFIX" envDefault:"tmpl:"`
	RedisTimeout  time.Duration `env:"TMPL_REDIS_TIMEOUT" envDefault:"2s"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// DotEnvFile is read before the environment when it exists. Variables
// already set in the environment win.
const DotEnvFile = ".env"

// Load loads configuration from the .env file and environment variables
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CacheSize < -1 {
		return fmt.Errorf("TMPL_CACHE_SIZE must be -1, 0 or positive")
	}

	if c.VarStart == "" || c.VarEnd == "" || c.TagStart == "" || c.TagEnd == "" {
		return fmt.Errorf("TMPL_VAR_START, TMPL_VAR_END, TMPL_TAG_START and TMPL_TAG_END must not be empty")
	}

	if c.VarStart == c.TagStart {
		return fmt.Errorf("TMPL_VAR_START and TMPL_TAG_START must differ")
	}

	if _, ok := namemap.ByName(c.NameMapper); !ok {
		return fmt.Errorf("TMPL_NAME_MAPPER must be one of: identity, snake, screaming-snake, kebab, camel, lower-camel")
	}

	if c.RedisAddr != "" && c.RedisTimeout <= 0 {
		return fmt.Errorf("TMPL_REDIS_TIMEOUT must be positive")
	}

	if c.RedisDB < 0 {
		return fmt.Errorf("TMPL_REDIS_DB must be non-negative")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// RedisEnabled reports whether templates may be loaded from Redis
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{CacheSize=%d, VarStart=%q, VarEnd=%q, TagStart=%q, TagEnd=%q, "+
			"NullIsUndefined=%v, CELPaths=%v, NameMapper=%s, RedisAddr=%s, RedisDB=%d, RedisPrefix=%s, LogLevel=%s}",
		c.CacheSize,
		c.VarStart,
		c.VarEnd,
		c.TagStart,
		c.TagEnd,
		c.NullIsUndefined,
		c.CELPaths,
		c.NameMapper,
		c.RedisAddr,
		c.RedisDB,
		c.RedisPrefix,
		c.LogLevel,
	)
}
