// Package deduper prevents the same profile handle from being attempted
// twice within a batch run.
package deduper

import (
	"context"
	"strings"
	"sync"
)

type Deduper interface {
	// AddIfNotExists returns true when the handle was not seen before.
	AddIfNotExists(ctx context.Context, handle string) bool
}

func New() Deduper {
	return &handleSet{
		seen: make(map[string]struct{}),
		mux:  &sync.Mutex{},
	}
}

var _ Deduper = (*handleSet)(nil)

type handleSet struct {
	mux  *sync.Mutex
	seen map[string]struct{}
}

func (d *handleSet) AddIfNotExists(_ context.Context, handle string) bool {
	key := Normalize(handle)

	d.mux.Lock()
	defer d.mux.Unlock()

	if _, ok := d.seen[key]; ok {
		return false
	}

	d.seen[key] = struct{}{}

	return true
}

// Normalize strips the variations under which the same profile shows up in
// input lists: case, surrounding whitespace, a full profile URL instead of
// the bare slug, and a trailing slash. Everything that journals or compares
// handles keys on this form.
func Normalize(handle string) string {
	key := strings.ToLower(strings.TrimSpace(handle))

	if idx := strings.Index(key, "/in/"); idx >= 0 {
		key = key[idx+len("/in/"):]
	}

	return strings.TrimSuffix(key, "/")
}
