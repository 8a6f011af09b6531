// Package config provides Redis configuration for the distributed outreach
// queue.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// RedisConfig holds Redis connection and queue parameters.
type RedisConfig struct {
	Host            string
	Port            int
	Password        string
	DB              int
	Workers         int
	RetryInterval   time.Duration
	MaxRetries      int
	RetentionPeriod time.Duration
	QueuePriorities map[string]int
}

const (
	defaultHost          = "localhost"
	defaultPort          = 6379
	defaultDB            = 0
	defaultWorkers       = 4
	defaultRetryInterval = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetentionDays = 7

	minPort          = 1
	maxPort          = 65535
	minDB            = 0
	maxDB            = 15
	minWorkers       = 1
	maxWorkers       = 100
	minRetryInterval = time.Second
	maxRetryInterval = time.Hour
	minMaxRetries    = 1
	maxMaxRetries    = 10
	minRetentionDays = 1
	maxRetentionDays = 365
)

// DefaultQueuePriorities defines the priority weights for task queues.
var DefaultQueuePriorities = map[string]int{
	"critical": 6,
	"default":  3,
	"low":      1,
}

// NewRedisConfig creates a Redis configuration from environment variables.
// REDIS_URL wins over the individual REDIS_* parameters when set.
func NewRedisConfig() (*RedisConfig, error) {
	cfg := &RedisConfig{
		Host:            getEnvOrDefault("REDIS_HOST", defaultHost),
		Password:        os.Getenv("REDIS_PASSWORD"),
		Workers:         defaultWorkers,
		RetryInterval:   defaultRetryInterval,
		MaxRetries:      defaultMaxRetries,
		RetentionPeriod: defaultRetentionDays * 24 * time.Hour,
		QueuePriorities: make(map[string]int),
	}

	for queue, priority := range DefaultQueuePriorities {
		cfg.QueuePriorities[queue] = priority
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		if err := cfg.applyURL(redisURL); err != nil {
			return nil, err
		}

		return cfg, nil
	}

	port, err := validateRange("port", getEnvOrDefault("REDIS_PORT", strconv.Itoa(defaultPort)), minPort, maxPort)
	if err != nil {
		return nil, err
	}

	cfg.Port = port

	db, err := validateRange("DB", getEnvOrDefault("REDIS_DB", strconv.Itoa(defaultDB)), minDB, maxDB)
	if err != nil {
		return nil, err
	}

	cfg.DB = db

	workers, err := validateRange("workers", getEnvOrDefault("REDIS_WORKERS", strconv.Itoa(defaultWorkers)), minWorkers, maxWorkers)
	if err != nil {
		return nil, err
	}

	cfg.Workers = workers

	interval, err := validateRetryInterval(getEnvOrDefault("REDIS_RETRY_INTERVAL", defaultRetryInterval.String()))
	if err != nil {
		return nil, err
	}

	cfg.RetryInterval = interval

	retries, err := validateRange("max retries", getEnvOrDefault("REDIS_MAX_RETRIES", strconv.Itoa(defaultMaxRetries)), minMaxRetries, maxMaxRetries)
	if err != nil {
		return nil, err
	}

	cfg.MaxRetries = retries

	days, err := validateRange("retention days", getEnvOrDefault("REDIS_RETENTION_DAYS", strconv.Itoa(defaultRetentionDays)), minRetentionDays, maxRetentionDays)
	if err != nil {
		return nil, err
	}

	cfg.RetentionPeriod = time.Duration(days) * 24 * time.Hour

	return cfg, nil
}

func (c *RedisConfig) applyURL(redisURL string) error {
	parsedURL, err := url.Parse(redisURL)
	if err != nil {
		return fmt.Errorf("invalid Redis URL: %w", err)
	}

	if host := parsedURL.Hostname(); host != "" {
		c.Host = host
	}

	c.Port = defaultPort

	if port := parsedURL.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid port in Redis URL: %w", err)
		}

		c.Port = p
	}

	if password, ok := parsedURL.User.Password(); ok {
		c.Password = password
	}

	if path := strings.TrimPrefix(parsedURL.Path, "/"); path != "" {
		db, err := strconv.Atoi(path)
		if err != nil {
			return fmt.Errorf("invalid database number in Redis URL: %w", err)
		}

		c.DB = db
	}

	return nil
}

// GetRedisAddr returns the formatted Redis address.
func (c *RedisConfig) GetRedisAddr() string {
	host := c.Host
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}

	return fmt.Sprintf("%s:%d", host, c.Port)
}

func validateRange(name, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", name, err)
	}

	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be between %d and %d", name, lo, hi)
	}

	return v, nil
}

func validateRetryInterval(interval string) (time.Duration, error) {
	d, err := time.ParseDuration(interval)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %w", err)
	}

	if d < minRetryInterval || d > maxRetryInterval {
		return 0, fmt.Errorf("retry interval must be between %v and %v", minRetryInterval, maxRetryInterval)
	}

	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}
