package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"github.com/AliAlAbbassi/air1/models"
)

func TestContactRepository(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("Skipping PostgreSQL contact repository test: PG_TEST_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	defer db.Close()

	repo, err := NewContactRepository(db)
	require.NoError(t, err)

	ctx := context.Background()
	accountID := uuid.New().String()

	t.Run("EmptyLedger", func(t *testing.T) {
		exists, err := repo.HasExistingConnection(ctx, accountID, "alice")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("RecordAndCheck", func(t *testing.T) {
		err := repo.RecordContact(ctx, accountID, models.Outcome{
			Handle:         "alice",
			HTTPStatus:     201,
			Classification: models.ClassificationSuccess,
			Timestamp:      time.Now().UTC(),
		})
		require.NoError(t, err)

		exists, err := repo.HasExistingConnection(ctx, accountID, "alice")
		require.NoError(t, err)
		require.True(t, exists)
	})

	t.Run("RecordDuplicateClassification", func(t *testing.T) {
		err := repo.RecordContact(ctx, accountID, models.Outcome{
			Handle:         "bob",
			HTTPStatus:     422,
			Classification: models.ClassificationDuplicate,
			Timestamp:      time.Now().UTC(),
		})
		require.NoError(t, err)

		exists, err := repo.HasExistingConnection(ctx, accountID, "bob")
		require.NoError(t, err)
		require.True(t, exists)
	})

	t.Run("RecordIsIdempotent", func(t *testing.T) {
		err := repo.RecordContact(ctx, accountID, models.Outcome{
			Handle:         "alice",
			HTTPStatus:     422,
			Classification: models.ClassificationDuplicate,
			Timestamp:      time.Now().UTC(),
		})
		require.NoError(t, err)

		contacts, err := repo.SelectContacts(ctx, accountID, 0)
		require.NoError(t, err)
		require.Len(t, contacts, 2)
	})

	t.Run("RefusesNonConnectionEvidence", func(t *testing.T) {
		for _, c := range []models.Classification{
			models.ClassificationInvalidRequest,
			models.ClassificationRateLimited,
			models.ClassificationUnknown,
		} {
			err := repo.RecordContact(ctx, accountID, models.Outcome{
				Handle:         "carol",
				Classification: c,
			})
			require.ErrorIs(t, err, ErrNotConnectionEvidence)
		}

		exists, err := repo.HasExistingConnection(ctx, accountID, "carol")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("AccountsAreIsolated", func(t *testing.T) {
		exists, err := repo.HasExistingConnection(ctx, uuid.New().String(), "alice")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteContact(ctx, accountID, "bob"))

		exists, err := repo.HasExistingConnection(ctx, accountID, "bob")
		require.NoError(t, err)
		require.False(t, exists)

		require.Error(t, repo.DeleteContact(ctx, accountID, "bob"))
	})
}

func TestRecordContactRefusalNeedsNoDatabase(t *testing.T) {
	repo := &ContactRepository{}

	err := repo.RecordContact(context.Background(), "acc-1", models.Outcome{
		Handle:         "alice",
		Classification: models.ClassificationInvalidRequest,
	})
	require.ErrorIs(t, err, ErrNotConnectionEvidence)
}
