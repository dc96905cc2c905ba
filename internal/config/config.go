// Package config holds the application configuration: YAML file first,
// environment variables override.
package config

import (
	"fmt"

	pkgconfig "github.com/rishabh7970/OneBox-For-Emails/pkg/config"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

// StoreConfig selects the message-store backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"` // memory | redis | postgres
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type ClassifierConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

type SchedulerConfig struct {
	Concurrency int `yaml:"concurrency"`
	MaxAttempts int `yaml:"max_attempts"`
}

type SyncConfig struct {
	FailureThreshold int `yaml:"failure_threshold"`
	IntervalSeconds  int `yaml:"interval_seconds"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Sync       SyncConfig       `yaml:"sync"`

	// SecretKey derives the credential sealing key. Required outside the
	// memory backend demo setup.
	SecretKey string `yaml:"secret_key"`
}

// Load reads the YAML config file and applies environment overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(pkgconfig.ConfigFile(), cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Port = pkgconfig.GetEnv("PORT", c.Server.Port)
	c.Store.Backend = pkgconfig.GetEnv("STORE_BACKEND", c.Store.Backend)
	c.Store.Redis.Addr = pkgconfig.GetEnv("REDIS_ADDR", c.Store.Redis.Addr)
	c.Store.Redis.Password = pkgconfig.GetEnv("REDIS_PASSWORD", c.Store.Redis.Password)
	c.Store.Postgres.URL = pkgconfig.GetEnv("DATABASE_URL", c.Store.Postgres.URL)
	c.Classifier.APIKey = pkgconfig.GetEnv("OPENAI_API_KEY", c.Classifier.APIKey)
	c.Classifier.BaseURL = pkgconfig.GetEnv("CLASSIFIER_BASE_URL", c.Classifier.BaseURL)
	c.Classifier.Model = pkgconfig.GetEnv("CLASSIFIER_MODEL", c.Classifier.Model)
	c.Scheduler.Concurrency = pkgconfig.GetEnvInt("CLASSIFY_CONCURRENCY", c.Scheduler.Concurrency)
	c.Scheduler.MaxAttempts = pkgconfig.GetEnvInt("CLASSIFY_MAX_ATTEMPTS", c.Scheduler.MaxAttempts)
	c.Sync.FailureThreshold = pkgconfig.GetEnvInt("SYNC_FAILURE_THRESHOLD", c.Sync.FailureThreshold)
	c.Sync.IntervalSeconds = pkgconfig.GetEnvInt("SYNC_INTERVAL_SECONDS", c.Sync.IntervalSeconds)
	c.SecretKey = pkgconfig.GetEnv("SECRET_KEY", c.SecretKey)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Scheduler.Concurrency <= 0 {
		c.Scheduler.Concurrency = 5
	}
	if c.Scheduler.MaxAttempts <= 0 {
		c.Scheduler.MaxAttempts = 3
	}
	if c.Sync.FailureThreshold <= 0 {
		c.Sync.FailureThreshold = 3
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = 30
	}
	if c.Classifier.MaxRetries <= 0 {
		c.Classifier.MaxRetries = 2
	}
	if c.SecretKey == "" {
		// memory-backend development fallback; production sets SECRET_KEY
		c.SecretKey = "onebox-dev-secret"
	}
}
