package pacer

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AliAlAbbassi/air1/models"
)

// Result is the terminal state of one account's batch.
type Result struct {
	Summary models.BatchSummary
	Err     error
}

// RunAccounts runs one batch per account concurrently. Accounts are
// independent sessions, so one account's session expiry or throttling never
// stops the others; each batch runs to its own end. The returned error is the
// first fatal error any batch hit, after all batches finished.
func (s *Scheduler) RunAccounts(ctx context.Context, batches []Batch) (map[string]Result, error) {
	results := make(map[string]Result, len(batches))

	var mu sync.Mutex

	g := errgroup.Group{}

	for _, batch := range batches {
		g.Go(func() error {
			run := s.RunBatch(ctx, batch)

			// Drain so the producer never blocks.
			for range run.Outcomes() {
			}

			mu.Lock()
			results[batch.AccountID] = Result{
				Summary: run.Summary(),
				Err:     run.Err(),
			}
			mu.Unlock()

			return run.Err()
		})
	}

	err := g.Wait()

	return results, err
}
