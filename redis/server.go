package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/redis/config"
)

// Server wraps asynq server functionality
type Server struct {
	server *asynq.Server
	cfg    *config.RedisConfig
	log    *zap.Logger
	mu     sync.RWMutex
}

// NewServer creates a new Redis server with the provided configuration
func NewServer(cfg *config.RedisConfig, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			// One worker is one account-batch at a time; a batch is long
			// running, so concurrency stays low.
			Concurrency: cfg.Workers,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				if n >= cfg.MaxRetries {
					log.Warn("task exhausted retries",
						zap.String("type", task.Type()),
						zap.Error(err))

					return -1 * time.Second
				}

				delay := time.Duration(1<<uint(n)) * time.Second
				if delay > cfg.RetryInterval {
					delay = cfg.RetryInterval
				}

				log.Info("task retry scheduled",
					zap.String("type", task.Type()),
					zap.Int("attempt", n),
					zap.Duration("delay", delay),
					zap.Error(err))

				return delay
			},
			Queues:         cfg.QueuePriorities,
			StrictPriority: true,
		},
	)

	return &Server{
		server: srv,
		cfg:    cfg,
		log:    log,
	}, nil
}

// Start starts the server with the provided handler
func (s *Server) Start(mux *asynq.ServeMux) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.server.Start(mux); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server, letting in-flight batches reach
// a terminal state.
func (s *Server) Shutdown(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.server.Shutdown()

	return nil
}
