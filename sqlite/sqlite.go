// Package sqlite persists session credentials and the attempt journal for
// single-machine deployments.
package sqlite

import (
	"context"
	"errors"
	"time"

	driver "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AliAlAbbassi/air1/models"
	"github.com/AliAlAbbassi/air1/session"
)

var _ session.CredentialSource = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	db, err := gorm.Open(driver.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	ans := Store{
		db: db,
	}

	return &ans, nil
}

func (s *Store) AutoMigrate(_ context.Context) error {
	dbos := []any{
		&credential{},
		&attempt{},
	}

	return s.db.AutoMigrate(dbos...)
}

// Lookup returns the stored credential for an account and scope.
func (s *Store) Lookup(ctx context.Context, accountID string, scope models.CredentialScope) (models.Credential, bool, error) {
	var dbo credential

	err := s.db.WithContext(ctx).
		First(&dbo, "account_id = ? AND scope = ?", accountID, string(scope)).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Credential{}, false, nil
		}

		return models.Credential{}, false, err
	}

	return dbo.toModelsCredential(), true, nil
}

// SaveCredential upserts a credential on (account, scope). The operator runs
// this after refreshing a session out-of-band.
func (s *Store) SaveCredential(ctx context.Context, cred models.Credential) error {
	if cred.ObtainedAt.IsZero() {
		cred.ObtainedAt = time.Now().UTC()
	}

	dbo := credentialFromModels(cred)

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "scope"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "csrf_token", "obtained_at"}),
		}).
		Create(&dbo).Error
}

// RecordAttempt appends one outcome to the journal.
func (s *Store) RecordAttempt(ctx context.Context, accountID string, o models.Outcome) error {
	dbo := attemptFromOutcome(accountID, o)
	if dbo.CreatedAt.IsZero() {
		dbo.CreatedAt = time.Now().UTC()
	}

	return s.db.WithContext(ctx).Create(&dbo).Error
}

// SelectAttempts returns an account's journal, newest first.
func (s *Store) SelectAttempts(ctx context.Context, accountID string) ([]models.Outcome, error) {
	var dbos []attempt

	db := s.db.WithContext(ctx)
	db = db.Order("created_at DESC, _id DESC")

	if err := db.Find(&dbos, "account_id = ?", accountID).Error; err != nil {
		return nil, err
	}

	ans := make([]models.Outcome, len(dbos))
	for i, dbo := range dbos {
		ans[i] = dbo.toModelsOutcome()
	}

	return ans, nil
}

// AttemptedHandles returns handles that already have a terminal contact, so a
// resumed run can skip them. Only outcomes that prove an existing or created
// connection count.
func (s *Store) AttemptedHandles(ctx context.Context, accountID string) (map[string]bool, error) {
	var handles []string

	err := s.db.WithContext(ctx).Model(&attempt{}).
		Where("account_id = ? AND classification IN ?", accountID, []string{
			string(models.ClassificationSuccess),
			string(models.ClassificationDuplicate),
		}).
		Distinct().
		Pluck("handle", &handles).
		Error
	if err != nil {
		return nil, err
	}

	ans := make(map[string]bool, len(handles))
	for _, h := range handles {
		ans[h] = true
	}

	return ans, nil
}

// GetAttemptCounts aggregates the journal per classification for one account.
func (s *Store) GetAttemptCounts(ctx context.Context, accountID string) (map[models.Classification]int, error) {
	var results []classificationCount

	err := s.db.WithContext(ctx).Model(&attempt{}).
		Select("classification, COUNT(1) as count").
		Where("account_id = ?", accountID).
		Group("classification").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	ans := make(map[models.Classification]int, len(results))
	for _, result := range results {
		ans[models.Classification(result.Classification)] = result.Count
	}

	return ans, nil
}
