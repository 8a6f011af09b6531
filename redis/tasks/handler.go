// Package tasks provides Redis task handling for distributed outreach runs.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/models"
	"github.com/AliAlAbbassi/air1/pacer"
)

// BatchRunner runs one account's batch to completion. Implemented by
// pacer.Scheduler via RunnerFunc in the wiring.
type BatchRunner interface {
	Run(ctx context.Context, batch pacer.Batch) (models.BatchSummary, error)
}

// RunnerFunc adapts a function to the BatchRunner interface.
type RunnerFunc func(ctx context.Context, batch pacer.Batch) (models.BatchSummary, error)

func (f RunnerFunc) Run(ctx context.Context, batch pacer.Batch) (models.BatchSummary, error) {
	return f(ctx, batch)
}

// TaskHandler handles processing of Redis tasks
type TaskHandler interface {
	ProcessTask(ctx context.Context, task *asynq.Task) error
}

var _ TaskHandler = (*Handler)(nil)

// Handler implements TaskHandler interface
type Handler struct {
	runner      BatchRunner
	taskTimeout time.Duration
	log         *zap.Logger
}

// HandlerOption is a function that configures a Handler
type HandlerOption func(*Handler)

// WithTaskTimeout sets the timeout for task processing
func WithTaskTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		h.taskTimeout = timeout
	}
}

// WithLogger sets the handler's logger
func WithLogger(log *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.log = log
	}
}

// NewHandler creates a new task handler with the provided options
func NewHandler(runner BatchRunner, opts ...HandlerOption) *Handler {
	h := &Handler{
		runner:      runner,
		taskTimeout: 2 * time.Hour,
		log:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// ProcessTask processes a task based on its type
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	ctx, cancel := context.WithTimeout(ctx, h.taskTimeout)
	defer cancel()

	switch task.Type() {
	case TypeOutreachBatch:
		return h.processOutreachTask(ctx, task)
	case TypeHealthCheck:
		return nil
	case TypeConnectionTest:
		return nil
	default:
		return fmt.Errorf("unknown task type: %s", task.Type())
	}
}
