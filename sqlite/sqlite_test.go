package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AliAlAbbassi/air1/models"
	"github.com/AliAlAbbassi/air1/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "outreach.db"))
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate(context.Background()))

	return store
}

func TestCredentialRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cred := models.Credential{
		AccountID:  "acc-1",
		Scope:      models.ScopeWrite,
		Token:      "li-at-token",
		CSRFToken:  `"ajax:123"`,
		ObtainedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.SaveCredential(ctx, cred))

	got, found, err := store.Lookup(ctx, "acc-1", models.ScopeWrite)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, cred, got)
}

func TestLookupMissingCredential(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.Lookup(context.Background(), "acc-1", models.ScopeWrite)
	require.NoError(t, err)
	require.False(t, found)
}

func TestLookupScopesAreDistinct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCredential(ctx, models.Credential{
		AccountID: "acc-1",
		Scope:     models.ScopeRead,
		Token:     "read-token",
	}))

	_, found, err := store.Lookup(ctx, "acc-1", models.ScopeWrite)
	require.NoError(t, err)
	require.False(t, found)
}

func TestSaveCredentialUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCredential(ctx, models.Credential{
		AccountID: "acc-1",
		Scope:     models.ScopeWrite,
		Token:     "stale",
	}))

	require.NoError(t, store.SaveCredential(ctx, models.Credential{
		AccountID: "acc-1",
		Scope:     models.ScopeWrite,
		Token:     "fresh",
		CSRFToken: `"ajax:456"`,
	}))

	got, found, err := store.Lookup(ctx, "acc-1", models.ScopeWrite)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "fresh", got.Token)
	require.Equal(t, `"ajax:456"`, got.CSRFToken)
}

func TestAttemptJournal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	outcomes := []models.Outcome{
		{Handle: "alice", HTTPStatus: 201, Classification: models.ClassificationSuccess, Timestamp: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)},
		{Handle: "bob", HTTPStatus: 422, Classification: models.ClassificationDuplicate, RawEvidence: "already connected", Timestamp: time.Date(2026, 8, 30, 10, 1, 0, 0, time.UTC)},
		{Handle: "carol", HTTPStatus: 429, Classification: models.ClassificationRateLimited, Timestamp: time.Date(2026, 8, 30, 10, 2, 0, 0, time.UTC)},
	}

	for _, o := range outcomes {
		require.NoError(t, store.RecordAttempt(ctx, "acc-1", o))
	}

	got, err := store.SelectAttempts(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "carol", got[0].Handle)
	require.Equal(t, "alice", got[2].Handle)
	require.Equal(t, models.ClassificationDuplicate, got[1].Classification)
	require.Equal(t, "already connected", got[1].RawEvidence)
}

func TestSelectAttemptsScopedToAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordAttempt(ctx, "acc-1", models.Outcome{
		Handle: "alice", Classification: models.ClassificationSuccess,
	}))
	require.NoError(t, store.RecordAttempt(ctx, "acc-2", models.Outcome{
		Handle: "bob", Classification: models.ClassificationSuccess,
	}))

	got, err := store.SelectAttempts(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alice", got[0].Handle)
}

func TestAttemptedHandlesOnlyCountsConnections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []models.Outcome{
		{Handle: "alice", Classification: models.ClassificationSuccess},
		{Handle: "bob", Classification: models.ClassificationDuplicate},
		{Handle: "carol", Classification: models.ClassificationInvalidRequest},
		{Handle: "dave", Classification: models.ClassificationRateLimited},
		{Handle: "erin", Classification: models.ClassificationUnknown},
	}

	for _, o := range seed {
		require.NoError(t, store.RecordAttempt(ctx, "acc-1", o))
	}

	got, err := store.AttemptedHandles(ctx, "acc-1")
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"alice": true, "bob": true}, got)
}

func TestGetAttemptCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []models.Classification{
		models.ClassificationSuccess,
		models.ClassificationSuccess,
		models.ClassificationDuplicate,
		models.ClassificationUnknown,
	}

	for i, c := range seed {
		require.NoError(t, store.RecordAttempt(ctx, "acc-1", models.Outcome{
			Handle:         "handle",
			Classification: c,
			Timestamp:      time.Date(2026, 8, 30, 10, i, 0, 0, time.UTC),
		}))
	}

	counts, err := store.GetAttemptCounts(ctx, "acc-1")
	require.NoError(t, err)
	require.Equal(t, 2, counts[models.ClassificationSuccess])
	require.Equal(t, 1, counts[models.ClassificationDuplicate])
	require.Equal(t, 1, counts[models.ClassificationUnknown])
	require.Zero(t, counts[models.ClassificationRateLimited])
}
