// Package outreach orchestrates single connection attempts: resolution,
// budget reservation, submission and classification. It never persists
// outcomes; the caller alone decides what a returned Outcome means for the
// CRM.
package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/budget"
	"github.com/AliAlAbbassi/air1/linkedin"
	"github.com/AliAlAbbassi/air1/models"
	"github.com/AliAlAbbassi/air1/session"
)

// IdentityResolver resolves a handle with the account's read credential.
type IdentityResolver interface {
	Resolve(ctx context.Context, cred models.Credential, handle string) (models.ProfileIdentity, error)
}

// Submitter performs the invitation write. Implemented by linkedin.Client.
type Submitter interface {
	SendInvitation(ctx context.Context, cred models.Credential, identity models.ProfileIdentity, message string) (int, []byte, error)
}

// Executor runs one connection attempt end to end. Exactly zero or one
// network write happens per Attempt call.
type Executor struct {
	resolver   IdentityResolver
	submitter  Submitter
	budget     budget.Tracker
	guard      *session.Guard
	classifier *linkedin.Classifier
	log        *zap.Logger
	now        func() time.Time
}

func NewExecutor(
	resolver IdentityResolver,
	submitter Submitter,
	tracker budget.Tracker,
	guard *session.Guard,
	classifier *linkedin.Classifier,
	log *zap.Logger,
) *Executor {
	if log == nil {
		log = zap.NewNop()
	}

	return &Executor{
		resolver:   resolver,
		submitter:  submitter,
		budget:     tracker,
		guard:      guard,
		classifier: classifier,
		log:        log,
		now:        time.Now,
	}
}

// Attempt submits one connection request for a handle. Recoverable problems
// are encoded in the returned Outcome; a non-nil error is fatal for the run
// (session expiry) and the credential has already been invalidated.
func (e *Executor) Attempt(ctx context.Context, accountID, handle, message string) (models.Outcome, error) {
	readCred, err := e.guard.Current(ctx, accountID, models.ScopeRead)
	if err != nil {
		return models.Outcome{}, err
	}

	identity, err := e.resolver.Resolve(ctx, readCred, handle)
	if err != nil {
		return e.recover(accountID, handle, err)
	}

	// The invitation endpoint rejects the opaque kind with an ambiguous 422;
	// fail fast instead of submitting and guessing afterwards.
	if !identity.Connectable() {
		e.log.Warn("handle resolved to non-connectable identity, flag for manual follow-up",
			zap.String("handle", handle),
			zap.String("kind", identity.Kind.String()))

		return e.outcome(handle, 0, models.ClassificationInvalidRequest,
			(&models.UnresolvedIdentityError{Handle: handle, Kind: identity.Kind}).Error()), nil
	}

	reserved, err := e.budget.Reserve(ctx, accountID, models.ActionConnections)
	if err != nil {
		return models.Outcome{}, fmt.Errorf("budget reservation failed: %w", err)
	}

	if !reserved {
		return e.outcome(handle, 0, models.ClassificationRateLimited, models.ErrBudgetExhausted.Error()), nil
	}

	// The reservation must reach a terminal state: kept for countable
	// outcomes, released for everything else.
	keep := false
	defer func() {
		if !keep {
			if relErr := e.budget.Release(context.WithoutCancel(ctx), accountID, models.ActionConnections); relErr != nil {
				e.log.Error("failed to release budget reservation", zap.Error(relErr))
			}
		}
	}()

	writeCred, err := e.guard.Current(ctx, accountID, models.ScopeWrite)
	if err != nil {
		return models.Outcome{}, err
	}

	status, body, err := e.submitter.SendInvitation(ctx, writeCred, identity, message)
	if err != nil {
		out, rerr := e.recover(accountID, handle, err)
		return out, rerr
	}

	classification, evidence := e.classifier.Classify(status, body)
	keep = classification.Countable()

	e.log.Info("connection attempt classified",
		zap.String("account_id", accountID),
		zap.String("handle", handle),
		zap.Int("status", status),
		zap.String("classification", string(classification)))

	return e.outcome(handle, status, classification, evidence), nil
}

// recover maps an attempt error to a per-item outcome, or passes it through
// as fatal. Session expiry invalidates the credential for the whole run.
func (e *Executor) recover(accountID, handle string, err error) (models.Outcome, error) {
	var authErr *models.AuthExpiredError
	if errors.As(err, &authErr) {
		e.guard.Invalidate(authErr.AccountID, authErr.Scope)
		return models.Outcome{}, err
	}

	var unresolved *models.UnresolvedIdentityError
	if errors.As(err, &unresolved) {
		return e.outcome(handle, 0, models.ClassificationInvalidRequest, unresolved.Error()), nil
	}

	var resErr *models.ResolutionError
	if errors.As(err, &resErr) {
		return e.outcome(handle, 0, models.ClassificationUnknown, resErr.Error()), nil
	}

	// Transport-level failure, including timeouts: nothing was confirmed
	// written, so the outcome must never look like a success.
	e.log.Warn("connection attempt failed in transport",
		zap.String("account_id", accountID),
		zap.String("handle", handle),
		zap.Error(err))

	return e.outcome(handle, 0, models.ClassificationUnknown, err.Error()), nil
}

func (e *Executor) outcome(handle string, status int, classification models.Classification, evidence string) models.Outcome {
	return models.Outcome{
		Handle:         handle,
		HTTPStatus:     status,
		Classification: classification,
		RawEvidence:    evidence,
		Timestamp:      e.now().UTC(),
	}
}
