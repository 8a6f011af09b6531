// Package pacer runs outreach batches with randomized inter-attempt delays
// so actions do not land on a fixed automation-shaped interval.
package pacer

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/config"
	"github.com/AliAlAbbassi/air1/deduper"
	"github.com/AliAlAbbassi/air1/exiter"
	"github.com/AliAlAbbassi/air1/models"
)

// Attempter performs one connection attempt. Implemented by
// outreach.Executor.
type Attempter interface {
	Attempt(ctx context.Context, accountID, handle, message string) (models.Outcome, error)
}

// Batch is one account's run over a list of target handles.
type Batch struct {
	AccountID string
	Handles   []string
	// Message is the optional connection note sent with every invitation.
	Message string
	// StartAt skips the first N handles, for resuming from a checkpoint.
	StartAt int
	// MaxActions caps countable outcomes for this batch; zero means only
	// the daily budget limits the run.
	MaxActions int
}

// Scheduler drives batches sequentially per account. One account means one
// logical worker: the platform's anti-automation heuristics and the single
// credential both assume serialized use.
type Scheduler struct {
	attempter Attempter
	delayMin  time.Duration
	delayMax  time.Duration
	log       *zap.Logger
}

func New(attempter Attempter, cfg *config.OutreachConfig, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}

	return &Scheduler{
		attempter: attempter,
		delayMin:  cfg.ProfileDelayMin,
		delayMax:  cfg.ProfileDelayMax,
		log:       log,
	}
}

// Run is one in-flight batch. Outcomes arrive lazily on Outcomes(); after the
// channel closes, Err reports the fatal error if one aborted the batch and
// Summary the aggregate counts.
type Run struct {
	outcomes <-chan models.Outcome
	monitor  exiter.Exiter
}

func (r *Run) Outcomes() <-chan models.Outcome { return r.outcomes }

func (r *Run) Err() error { return r.monitor.Err() }

func (r *Run) Summary() models.BatchSummary { return r.monitor.Summary() }

// RunBatch starts the batch and returns immediately. Handles are attempted in
// input order. Per-item failures become that item's Outcome and the batch
// continues; session expiry aborts the remaining handles. Cancellation is
// checked between attempts only, so every budget reservation reaches a
// terminal state before the run stops.
func (s *Scheduler) RunBatch(ctx context.Context, batch Batch) *Run {
	outcomes := make(chan models.Outcome)
	monitor := exiter.New()
	monitor.SetMaxActions(batch.MaxActions)

	ctx, cancel := context.WithCancel(ctx)
	monitor.SetCancelFunc(cancel)

	go func() {
		defer close(outcomes)
		defer cancel()

		s.runLoop(ctx, batch, monitor, outcomes)
	}()

	return &Run{outcomes: outcomes, monitor: monitor}
}

func (s *Scheduler) runLoop(ctx context.Context, batch Batch, monitor exiter.Exiter, outcomes chan<- models.Outcome) {
	dedup := deduper.New()

	handles := batch.Handles
	if batch.StartAt > 0 && batch.StartAt < len(handles) {
		handles = handles[batch.StartAt:]
	} else if batch.StartAt >= len(handles) {
		return
	}

	first := true

	for _, handle := range handles {
		if ctx.Err() != nil {
			return
		}

		if !dedup.AddIfNotExists(ctx, handle) {
			s.log.Debug("duplicate handle skipped", zap.String("handle", handle))
			monitor.RecordSkipped()

			continue
		}

		if !first {
			if !s.pause(ctx) {
				return
			}
		}

		first = false

		outcome, err := s.attempter.Attempt(ctx, batch.AccountID, handle, batch.Message)
		if err != nil {
			s.log.Error("batch aborted",
				zap.String("account_id", batch.AccountID),
				zap.String("handle", handle),
				zap.Error(err))
			monitor.Fatal(err)

			return
		}

		// Deliver before recording: Record may trip the max-actions
		// cancel, and the outcome that tripped it still belongs to the
		// consumer.
		select {
		case outcomes <- outcome:
			monitor.Record(outcome)
		case <-ctx.Done():
			monitor.Record(outcome)

			return
		}

		// A throttled account stays throttled: stop for the rest of the
		// day instead of burning the remaining handles.
		if outcome.Classification == models.ClassificationRateLimited {
			s.log.Warn("account rate limited, stopping batch",
				zap.String("account_id", batch.AccountID),
				zap.String("evidence", outcome.RawEvidence))

			return
		}
	}
}

// pause sleeps a random duration inside the configured range. Returns false
// when the context was cancelled while waiting.
func (s *Scheduler) pause(ctx context.Context) bool {
	d := s.delayMin
	if spread := s.delayMax - s.delayMin; spread > 0 {
		d += time.Duration(rand.Int63n(int64(spread) + 1))
	}

	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
