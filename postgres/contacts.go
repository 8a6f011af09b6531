// Package postgres keeps the cross-machine contact ledger. Multiple workers
// sharing accounts consult it before spending budget on a handle that some
// other worker already reached.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"github.com/AliAlAbbassi/air1/models"
)

// ErrNotConnectionEvidence is returned when a caller tries to record an
// outcome that does not prove the connection exists. Only created or
// already-existing connections belong in the ledger; a failed attempt says
// nothing about the relationship.
var ErrNotConnectionEvidence = errors.New("outcome is not evidence of a connection")

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) (*ContactRepository, error) {
	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createSchema(db); err != nil {
		return nil, err
	}

	return &ContactRepository{db: db}, nil
}

// HasExistingConnection reports whether a connection with the handle is
// already on record for the account.
func (repo *ContactRepository) HasExistingConnection(ctx context.Context, accountID, handle string) (bool, error) {
	const q = `SELECT EXISTS (
	               SELECT 1 FROM contacts WHERE account_id = $1 AND handle = $2
	           )`

	var exists bool

	err := repo.db.QueryRowContext(ctx, q, accountID, handle).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check contact: %w", err)
	}

	return exists, nil
}

// RecordContact stores a proven connection. Outcomes whose classification does
// not prove the connection exists are refused.
func (repo *ContactRepository) RecordContact(ctx context.Context, accountID string, o models.Outcome) error {
	if !o.Classification.ConnectionExists() {
		return fmt.Errorf("%w: %s classified %s", ErrNotConnectionEvidence, o.Handle, o.Classification)
	}

	ts := o.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	const q = `INSERT INTO contacts (account_id, handle, classification, http_status, contacted_at)
	           VALUES ($1, $2, $3, $4, $5)
	           ON CONFLICT (account_id, handle) DO NOTHING`

	_, err := repo.db.ExecContext(ctx, q, accountID, o.Handle, string(o.Classification), o.HTTPStatus, ts)
	if err != nil {
		return fmt.Errorf("failed to record contact: %w", err)
	}

	return nil
}

// SelectContacts returns the account's recorded connections, newest first.
func (repo *ContactRepository) SelectContacts(ctx context.Context, accountID string, limit int) ([]models.Outcome, error) {
	q := `SELECT handle, classification, http_status, contacted_at
	      FROM contacts WHERE account_id = $1 ORDER BY contacted_at DESC`

	args := []interface{}{accountID}

	if limit > 0 {
		q += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := repo.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select contacts: %w", err)
	}

	defer rows.Close()

	var ans []models.Outcome

	for rows.Next() {
		var (
			o              models.Outcome
			classification string
		)

		if err := rows.Scan(&o.Handle, &classification, &o.HTTPStatus, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}

		o.Classification = models.Classification(classification)

		ans = append(ans, o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ans, nil
}

// DeleteContact removes a handle from the ledger, for when the operator
// withdraws an invitation out-of-band.
func (repo *ContactRepository) DeleteContact(ctx context.Context, accountID, handle string) error {
	const q = `DELETE FROM contacts WHERE account_id = $1 AND handle = $2`

	result, err := repo.db.ExecContext(ctx, q, accountID, handle)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("contact %s not found for account %s", handle, accountID)
	}

	return nil
}

// createSchema ensures the required database schema exists
func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS contacts (
			account_id TEXT NOT NULL,
			handle TEXT NOT NULL,
			classification TEXT NOT NULL,
			http_status INT NOT NULL,
			contacted_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (account_id, handle)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create contacts table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_contacts_contacted_at ON contacts(account_id, contacted_at)`)
	if err != nil {
		return fmt.Errorf("failed to create contacted_at index: %w", err)
	}

	return nil
}
