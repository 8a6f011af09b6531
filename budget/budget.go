// Package budget tracks per-account daily action usage against configured
// caps. Reservation is optimistic: the executor reserves a unit before the
// network write and releases it when the classified outcome shows the action
// did not count against the platform's own limits.
package budget

import (
	"context"
	"sync"
	"time"

	"github.com/AliAlAbbassi/air1/models"
)

// Tracker reserves and releases daily budget units. Reserve returns false
// when the cap for the (account, action, date) key is exhausted. Reservation
// must be atomic with respect to concurrent attempts on the same key.
type Tracker interface {
	Reserve(ctx context.Context, accountID string, action models.ActionType) (bool, error)
	Release(ctx context.Context, accountID string, action models.ActionType) error
	Used(ctx context.Context, accountID string, action models.ActionType) (int, error)
}

type key struct {
	accountID string
	action    models.ActionType
	date      string
}

var _ Tracker = (*Memory)(nil)

// Memory is the in-process tracker: one counter per (account, action, date)
// key behind a single mutex. Date rollover needs no reset because the key
// changes at midnight.
type Memory struct {
	mu       sync.Mutex
	counters map[key]int
	caps     map[models.ActionType]int
	now      func() time.Time
}

// NewMemory creates a tracker with the given caps. A zero or missing cap
// means the action is not permitted at all.
func NewMemory(caps map[models.ActionType]int) *Memory {
	copied := make(map[models.ActionType]int, len(caps))
	for k, v := range caps {
		copied[k] = v
	}

	return &Memory{
		counters: make(map[key]int),
		caps:     copied,
		now:      time.Now,
	}
}

// WithClock overrides the clock, for date-rollover tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) key(accountID string, action models.ActionType) key {
	return key{
		accountID: accountID,
		action:    action,
		date:      m.now().UTC().Format("2006-01-02"),
	}
}

func (m *Memory) Reserve(_ context.Context, accountID string, action models.ActionType) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(accountID, action)
	if m.counters[k] >= m.caps[action] {
		return false, nil
	}

	m.counters[k]++

	return true, nil
}

func (m *Memory) Release(_ context.Context, accountID string, action models.ActionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(accountID, action)
	if m.counters[k] > 0 {
		m.counters[k]--
	}

	return nil
}

func (m *Memory) Used(_ context.Context, accountID string, action models.ActionType) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counters[m.key(accountID, action)], nil
}
