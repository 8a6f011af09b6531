// Package redis wraps the asynq client and server used to distribute
// outreach batches across workers.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/AliAlAbbassi/air1/redis/config"
	"github.com/AliAlAbbassi/air1/redis/tasks"
)

// Client wraps asynq client functionality
type Client struct {
	client *asynq.Client
	cfg    *config.RedisConfig
	mu     sync.RWMutex
}

// NewClient creates a new Redis client with the provided configuration
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)
	if err := testConnection(client); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		client: client,
		cfg:    cfg,
	}, nil
}

// EnqueueOutreachBatch enqueues one account's batch and returns its batch ID.
// Batches dedupe on account for the retention window so a double-submitted
// batch does not double-spend the account's daily budget.
func (c *Client) EnqueueOutreachBatch(ctx context.Context, payload tasks.OutreachPayload, opts ...asynq.Option) (string, error) {
	if payload.BatchID == "" {
		payload.BatchID = uuid.New().String()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal outreach payload: %w", err)
	}

	defaults := []asynq.Option{
		asynq.MaxRetry(c.cfg.MaxRetries),
		asynq.Retention(c.cfg.RetentionPeriod),
	}

	if err := c.EnqueueTask(ctx, tasks.TypeOutreachBatch, data, append(defaults, opts...)...); err != nil {
		return "", err
	}

	return payload.BatchID, nil
}

// EnqueueTask enqueues a task with the given type and payload.
func (c *Client) EnqueueTask(ctx context.Context, taskType string, payload []byte, opts ...asynq.Option) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	task := asynq.NewTask(taskType, payload)

	_, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// Close closes the Redis client connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	return nil
}

// IsHealthy checks if the Redis connection is healthy
func (c *Client) IsHealthy(ctx context.Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, err := c.client.EnqueueContext(ctx, asynq.NewTask(tasks.TypeHealthCheck, nil))

	return err == nil
}

// testConnection tests the Redis connection
func testConnection(client *asynq.Client) error {
	task := asynq.NewTask(tasks.TypeConnectionTest, nil)

	_, err := client.EnqueueContext(context.Background(), task)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return nil
}
