// Package session owns authenticated credentials and detects their expiry.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/models"
)

// CredentialSource supplies persisted session credentials. The sqlite store
// implements this; tests use a static map.
type CredentialSource interface {
	Lookup(ctx context.Context, accountID string, scope models.CredentialScope) (models.Credential, bool, error)
}

type credentialKey struct {
	accountID string
	scope     models.CredentialScope
}

// Guard holds the current credential per account and scope. Once any caller
// reports an expiry signal the credential is dead for every subsequent caller
// in the run; nothing retries with it.
type Guard struct {
	source CredentialSource
	log    *zap.Logger

	mu      sync.Mutex
	cache   map[credentialKey]models.Credential
	invalid map[credentialKey]bool
}

func NewGuard(source CredentialSource, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}

	return &Guard{
		source:  source,
		log:     log,
		cache:   make(map[credentialKey]models.Credential),
		invalid: make(map[credentialKey]bool),
	}
}

// Current returns the credential for an account and scope. It fails with
// *models.AuthExpiredError when the credential is absent or has been marked
// invalid during this run.
func (g *Guard) Current(ctx context.Context, accountID string, scope models.CredentialScope) (models.Credential, error) {
	k := credentialKey{accountID: accountID, scope: scope}

	g.mu.Lock()
	if g.invalid[k] {
		g.mu.Unlock()
		return models.Credential{}, &models.AuthExpiredError{AccountID: accountID, Scope: scope}
	}

	if cred, ok := g.cache[k]; ok {
		g.mu.Unlock()
		return cred, nil
	}
	g.mu.Unlock()

	cred, found, err := g.source.Lookup(ctx, accountID, scope)
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to look up credential: %w", err)
	}

	if !found || cred.Token == "" {
		return models.Credential{}, &models.AuthExpiredError{AccountID: accountID, Scope: scope}
	}

	cred.AccountID = accountID
	cred.Scope = scope

	g.mu.Lock()
	// Another caller may have invalidated while we were loading.
	if g.invalid[k] {
		g.mu.Unlock()
		return models.Credential{}, &models.AuthExpiredError{AccountID: accountID, Scope: scope}
	}

	g.cache[k] = cred
	g.mu.Unlock()

	return cred, nil
}

// Invalidate marks the credential dead for the rest of the run and drops it
// from the cache. The operator refreshes it out-of-band.
func (g *Guard) Invalidate(accountID string, scope models.CredentialScope) {
	k := credentialKey{accountID: accountID, scope: scope}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.invalid[k] {
		g.log.Warn("credential marked invalid",
			zap.String("account_id", accountID),
			zap.String("scope", string(scope)))
	}

	g.invalid[k] = true
	delete(g.cache, k)
}

// StaticSource is a fixed in-memory credential source.
type StaticSource map[string]map[models.CredentialScope]models.Credential

func (s StaticSource) Lookup(_ context.Context, accountID string, scope models.CredentialScope) (models.Credential, bool, error) {
	scoped, ok := s[accountID]
	if !ok {
		return models.Credential{}, false, nil
	}

	cred, ok := scoped[scope]

	return cred, ok, nil
}
