package exiter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AliAlAbbassi/air1/models"
)

func TestExiterSummary(t *testing.T) {
	e := New()

	e.Record(models.Outcome{Classification: models.ClassificationSuccess})
	e.Record(models.Outcome{Classification: models.ClassificationDuplicate})
	e.Record(models.Outcome{Classification: models.ClassificationInvalidRequest})
	e.Record(models.Outcome{Classification: models.ClassificationRateLimited})
	e.Record(models.Outcome{Classification: models.ClassificationUnknown})
	e.RecordSkipped()

	s := e.Summary()
	assert.Equal(t, 5, s.Attempted)
	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.Duplicates)
	assert.Equal(t, 1, s.Invalid)
	assert.Equal(t, 1, s.RateLimited)
	assert.Equal(t, 1, s.Unknown)
	assert.Equal(t, 1, s.Skipped)
}

func TestExiterMaxActionsCancels(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e.SetCancelFunc(cancel)
	e.SetMaxActions(2)

	e.Record(models.Outcome{Classification: models.ClassificationSuccess})
	// Non-countable outcomes do not advance toward the limit.
	e.Record(models.Outcome{Classification: models.ClassificationInvalidRequest})
	assert.NoError(t, ctx.Err())

	// The limit-reaching Record must cancel before returning, so the very
	// next context check in the caller stops the batch.
	e.Record(models.Outcome{Classification: models.ClassificationDuplicate})
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestExiterFatal(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e.SetCancelFunc(cancel)

	first := errors.New("session expired")
	e.Fatal(first)
	e.Fatal(errors.New("later error"))

	assert.Equal(t, first, e.Err())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
