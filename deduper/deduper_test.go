package deduper

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddIfNotExists(t *testing.T) {
	ctx := context.Background()
	d := New()

	assert.True(t, d.AddIfNotExists(ctx, "jane-doe-1"))
	assert.False(t, d.AddIfNotExists(ctx, "jane-doe-1"))
	assert.True(t, d.AddIfNotExists(ctx, "john-doe-2"))
}

func TestNormalizesHandleVariants(t *testing.T) {
	ctx := context.Background()
	d := New()

	assert.True(t, d.AddIfNotExists(ctx, "jane-doe-1"))
	assert.False(t, d.AddIfNotExists(ctx, "Jane-Doe-1"))
	assert.False(t, d.AddIfNotExists(ctx, "  jane-doe-1  "))
	assert.False(t, d.AddIfNotExists(ctx, "https://www.linkedin.com/in/jane-doe-1/"))
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	d := New()

	var (
		wg   sync.WaitGroup
		wins atomic.Int64
	)

	for i := 0; i < 32; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if d.AddIfNotExists(ctx, "jane-doe-1") {
				wins.Add(1)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, int64(1), wins.Load())
}
