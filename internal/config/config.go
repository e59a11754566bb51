package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the server settings. Values come from the optional TOML file
// named by FORMDESK_CONFIG, then environment variables on top.
type Config struct {
	MongoURI  string `toml:"mongo_uri"`
	MongoDB   string `toml:"mongo_db"`
	RedisAddr string `toml:"redis_uri"`
	Port      string `toml:"port"`

	// PublicBaseURL prefixes the link sent to each recipient
	PublicBaseURL string `toml:"public_base_url"`

	// ComplianceThreshold is the minimum score percentage for a compliant instance
	ComplianceThreshold int `toml:"compliance_threshold"`

	LogLevel    string   `toml:"log_level"`
	CORSOrigins []string `toml:"cors_allowed_origins"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		MongoURI:            "mongodb://localhost:27017",
		MongoDB:             "formdesk",
		RedisAddr:           "localhost:6379",
		Port:                "8080",
		PublicBaseURL:       "http://localhost:3000",
		ComplianceThreshold: 75,
		LogLevel:            "info",
		CORSOrigins:         []string{"*"},
	}
}

// Load builds the configuration from FORMDESK_CONFIG and the environment
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("FORMDESK_CONFIG"); path != "" {
		if err := cfg.loadTOML(path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadTOML(path string) error {
	_, err := toml.DecodeFile(path, c)
	return err
}

func (c *Config) applyEnv() error {
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDB = getEnv("MONGO_DB", c.MongoDB)
	c.RedisAddr = strings.TrimPrefix(getEnv("REDIS_URI", c.RedisAddr), "redis://")
	c.Port = getEnv("PORT", c.Port)
	c.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", c.PublicBaseURL), "/")
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("COMPLIANCE_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COMPLIANCE_THRESHOLD: %w", err)
		}
		c.ComplianceThreshold = n
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}
	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.ComplianceThreshold < 0 || c.ComplianceThreshold > 100 {
		return fmt.Errorf("compliance threshold %d out of range 0-100", c.ComplianceThreshold)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// NewLogger builds a production zap logger at the configured level
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
