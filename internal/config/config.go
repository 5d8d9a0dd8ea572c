package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/trogers1052/finance-eye/internal/retry"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Retry  RetryConfig  `yaml:"retry"`
	Cache  CacheConfig  `yaml:"cache"`
	Redis  RedisConfig  `yaml:"redis"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// RetryConfig controls backoff for rate-limited upstream calls
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// CacheConfig holds cache lifetimes
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	InfoTTL       time.Duration `yaml:"info_ttl"`
	PurgeSchedule string        `yaml:"purge_schedule"`
}

// RedisConfig enables the shared cache when Addr is set
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig enables fetch events and invalidations when Brokers is set
type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	InvalidationTopic string   `yaml:"invalidation_topic"`
	GroupID           string   `yaml:"group_id"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	hostname, _ := os.Hostname()
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Retry: RetryConfig{
			MaxAttempts: 4,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:           time.Hour,
			InfoTTL:       24 * time.Hour,
			PurgeSchedule: "@every 5m",
		},
		Kafka: KafkaConfig{
			Topic:             "financeeye-events",
			InvalidationTopic: "financeeye-invalidations",
			GroupID:           "financeeye-" + hostname,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// at path, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)

	var err error
	if c.Retry.MaxAttempts, err = getEnvInt("RETRY_MAX_ATTEMPTS", c.Retry.MaxAttempts); err != nil {
		return err
	}
	if c.Retry.BaseDelay, err = getEnvDuration("RETRY_BASE_DELAY", c.Retry.BaseDelay); err != nil {
		return err
	}
	if c.Retry.MaxDelay, err = getEnvDuration("RETRY_MAX_DELAY", c.Retry.MaxDelay); err != nil {
		return err
	}
	if c.Cache.TTL, err = getEnvDuration("CACHE_TTL", c.Cache.TTL); err != nil {
		return err
	}
	if c.Cache.InfoTTL, err = getEnvDuration("INFO_CACHE_TTL", c.Cache.InfoTTL); err != nil {
		return err
	}
	c.Cache.PurgeSchedule = getEnv("CACHE_PURGE_SCHEDULE", c.Cache.PurgeSchedule)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.InvalidationTopic = getEnv("KAFKA_INVALIDATION_TOPIC", c.Kafka.InvalidationTopic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	return nil
}

// Validate checks that all values are usable
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("server.port must be a valid port, got %q", c.Server.Port)
	}
	if err := c.RetryPolicy().Validate(); err != nil {
		return err
	}
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay must be positive")
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry.max_delay must not be below retry.base_delay")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.InfoTTL <= 0 {
		return fmt.Errorf("cache.info_ttl must be positive")
	}
	if c.Cache.PurgeSchedule == "" {
		return fmt.Errorf("cache.purge_schedule is required")
	}
	if c.KafkaEnabled() && (c.Kafka.Topic == "" || c.Kafka.InvalidationTopic == "") {
		return fmt.Errorf("kafka.topic and kafka.invalidation_topic are required when brokers are set")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// RetryPolicy converts the retry section for the data access layer
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		MaxDelay:    c.Retry.MaxDelay,
	}
}

// Address returns the HTTP listen address
func (s *ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// RedisEnabled reports whether the shared cache is configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// KafkaEnabled reports whether event publishing is configured
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
