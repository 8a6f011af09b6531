package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/models"
	"github.com/AliAlAbbassi/air1/pacer"
)

func (p *OutreachPayload) validate() error {
	if p.AccountID == "" {
		return errors.New("account_id is required")
	}

	if len(p.Handles) == 0 {
		return errors.New("at least one handle is required")
	}

	return nil
}

// processOutreachTask runs one account's batch. Malformed payloads and dead
// sessions are not retried: re-running the same task cannot fix either, and
// retrying on an expired session would spend attempts that all fail the same
// way.
func (h *Handler) processOutreachTask(ctx context.Context, task *asynq.Task) error {
	var payload OutreachPayload

	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal outreach payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := payload.validate(); err != nil {
		return fmt.Errorf("invalid outreach payload: %v: %w", err, asynq.SkipRetry)
	}

	log := h.log.With(
		zap.String("batch_id", payload.BatchID),
		zap.String("account_id", payload.AccountID),
	)

	log.Info("processing outreach batch", zap.Int("handles", len(payload.Handles)))

	summary, err := h.runner.Run(ctx, pacer.Batch{
		AccountID:  payload.AccountID,
		Handles:    payload.Handles,
		Message:    payload.Message,
		StartAt:    payload.StartAt,
		MaxActions: payload.MaxActions,
	})
	if err != nil {
		if errors.Is(err, models.ErrAuthExpired) {
			log.Error("batch aborted, session expired", zap.Error(err))

			return fmt.Errorf("session expired for account %s: %w", payload.AccountID, asynq.SkipRetry)
		}

		return fmt.Errorf("failed to run outreach batch: %w", err)
	}

	log.Info("outreach batch finished",
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("rate_limited", summary.RateLimited),
		zap.Int("skipped", summary.Skipped),
	)

	return nil
}
