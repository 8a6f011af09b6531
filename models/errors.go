package models

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthExpired is the sentinel wrapped by AuthExpiredError; use
	// errors.Is against this to detect the fatal case.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrBudgetExhausted is returned when a reservation is denied.
	ErrBudgetExhausted = errors.New("daily action budget exhausted")
)

// ResolutionError means a handle does not correspond to any reachable profile
// or every resolution strategy failed. Recoverable: skip the item.
type ResolutionError struct {
	Handle string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %q: %v", e.Handle, e.Err)
	}

	return fmt.Sprintf("resolve %q: no strategy produced an identifier", e.Handle)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// UnresolvedIdentityError means resolution produced an identifier kind the
// invitation endpoint rejects. Recoverable: skip and flag for manual follow-up.
type UnresolvedIdentityError struct {
	Handle string
	Kind   IdentityKind
}

func (e *UnresolvedIdentityError) Error() string {
	return fmt.Sprintf("handle %q resolved to %s, invitations require %s", e.Handle, e.Kind, KindMemberID)
}

// AuthExpiredError means the session credential is dead. Fatal for the run.
// Remediation is out-of-band: refresh the li_at cookie for the account.
type AuthExpiredError struct {
	AccountID string
	Scope     CredentialScope
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("session expired for account %s (scope %s): refresh the stored credential and rerun", e.AccountID, e.Scope)
}

func (e *AuthExpiredError) Unwrap() error { return ErrAuthExpired }
