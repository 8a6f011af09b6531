// Package redisrunner runs a long-lived worker consuming outreach batches
// from Redis.
package redisrunner

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/models"
	"github.com/AliAlAbbassi/air1/pacer"
	"github.com/AliAlAbbassi/air1/redis"
	"github.com/AliAlAbbassi/air1/redis/config"
	"github.com/AliAlAbbassi/air1/redis/tasks"
	"github.com/AliAlAbbassi/air1/runner"
)

type redisRunner struct {
	cfg      *runner.Config
	redisCfg *config.RedisConfig
	log      *zap.Logger
	server   *redis.Server
	client   *redis.Client
	mux      *asynq.ServeMux
	outreach *runner.Outreach
	wg       sync.WaitGroup
	done     chan struct{}
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeRedis {
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	if cfg.RedisURL != "" {
		if err := os.Setenv("REDIS_URL", cfg.RedisURL); err != nil {
			return nil, fmt.Errorf("failed to set Redis URL: %w", err)
		}
	}

	redisCfg, err := config.NewRedisConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis config: %w", err)
	}

	log := runner.NewLogger(cfg.Debug)

	ans := &redisRunner{
		cfg:      cfg,
		redisCfg: redisCfg,
		log:      log,
		done:     make(chan struct{}),
	}

	return ans, nil
}

func (r *redisRunner) Run(ctx context.Context) error {
	var err error

	r.outreach, err = runner.NewOutreach(ctx, r.cfg, r.log)
	if err != nil {
		return err
	}

	r.client, err = redis.NewClient(r.redisCfg)
	if err != nil {
		return fmt.Errorf("failed to create Redis client: %w", err)
	}

	r.server, err = redis.NewServer(r.redisCfg, r.log)
	if err != nil {
		return fmt.Errorf("failed to create Redis server: %w", err)
	}

	handler := tasks.NewHandler(
		tasks.RunnerFunc(r.runBatch),
		tasks.WithLogger(r.log),
	)

	r.mux = asynq.NewServeMux()
	r.mux.HandleFunc(tasks.TypeOutreachBatch, handler.ProcessTask)
	r.mux.HandleFunc(tasks.TypeHealthCheck, handler.ProcessTask)
	r.mux.HandleFunc(tasks.TypeConnectionTest, handler.ProcessTask)

	r.log.Info("starting outreach worker", zap.Int("workers", r.redisCfg.Workers))

	if err := r.server.Start(r.mux); err != nil {
		return err
	}

	r.wg.Add(1)

	go r.monitorHealth(ctx)

	<-ctx.Done()

	return nil
}

// runBatch executes one queued batch and persists every outcome.
func (r *redisRunner) runBatch(ctx context.Context, batch pacer.Batch) (models.BatchSummary, error) {
	handles, skipped, err := r.outreach.FilterContacted(ctx, batch.AccountID, batch.Handles)
	if err != nil {
		return models.BatchSummary{}, err
	}

	if skipped > 0 {
		r.log.Info("skipping already contacted handles",
			zap.String("account_id", batch.AccountID),
			zap.Int("count", skipped))
	}

	batch.Handles = handles

	run := r.outreach.Scheduler.RunBatch(ctx, batch)

	for outcome := range run.Outcomes() {
		r.outreach.Persist(ctx, batch.AccountID, outcome)
	}

	return run.Summary(), run.Err()
}

func (r *redisRunner) Close(ctx context.Context) error {
	close(r.done)
	r.wg.Wait()

	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.Error("failed to shut down Redis server", zap.Error(err))
		}
	}

	if r.client != nil {
		if err := r.client.Close(); err != nil {
			r.log.Error("failed to close Redis client", zap.Error(err))
		}
	}

	if r.outreach != nil {
		return r.outreach.Close()
	}

	return nil
}

func (r *redisRunner) monitorHealth(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			if !r.client.IsHealthy(ctx) {
				r.log.Warn("Redis connection is not healthy")
			}
		}
	}
}
