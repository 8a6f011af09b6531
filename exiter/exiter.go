// Package exiter tracks batch progress and decides when a run must stop
// early: the configured action limit was reached or a fatal error surfaced.
package exiter

import (
	"context"
	"sync"

	"github.com/AliAlAbbassi/air1/models"
)

type Exiter interface {
	SetCancelFunc(context.CancelFunc)
	SetMaxActions(int)
	Record(models.Outcome)
	RecordSkipped()
	Fatal(err error)
	Err() error
	Summary() models.BatchSummary
}

type exiter struct {
	mu         sync.Mutex
	summary    models.BatchSummary
	maxActions int
	fatal      error
	cancelled  bool
	cancelFunc context.CancelFunc
}

func New() Exiter {
	return &exiter{}
}

func (e *exiter) SetCancelFunc(fn context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelFunc = fn
}

// SetMaxActions caps countable outcomes for the batch; zero means no cap
// beyond the daily budget.
func (e *exiter) SetMaxActions(val int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.maxActions = val
}

// Record counts one outcome and triggers cancellation once enough countable
// actions have been taken.
func (e *exiter) Record(o models.Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.summary.Add(o)

	countable := e.summary.Succeeded + e.summary.Duplicates
	if e.maxActions > 0 && countable >= e.maxActions {
		e.cancelLocked()
	}
}

func (e *exiter) RecordSkipped() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.summary.Skipped++
}

// Fatal records the error that aborts the batch and cancels the run. Only
// the first fatal error is kept.
func (e *exiter) Fatal(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fatal == nil {
		e.fatal = err
	}

	e.cancelLocked()
}

func (e *exiter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.fatal
}

func (e *exiter) Summary() models.BatchSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.summary
}

// cancelLocked fires the cancel func synchronously so that by the time
// Record or Fatal returns, the run context is already done and the caller's
// next ctx check stops the batch. A CancelFunc never re-enters the exiter,
// so calling it under the mutex cannot deadlock.
func (e *exiter) cancelLocked() {
	if e.cancelled || e.cancelFunc == nil {
		return
	}

	e.cancelled = true

	e.cancelFunc()
}
