package linkedin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AliAlAbbassi/air1/config"
	"github.com/AliAlAbbassi/air1/fetchers"
	"github.com/AliAlAbbassi/air1/models"
)

const profileHTMLWithMember = `<html><body><code>
{"data":{"objectUrn":"urn:li:member:12345","publicIdentifier":"jane-doe-1"},"trackingId":"abc123XYZ=="}
</code></body></html>`

const profileHTMLFsdOnly = `<html><body><code>
{"data":{"entityUrn":"urn:li:fsd_profile:ACoAAB98765","publicIdentifier":"jane-doe-1"}}
</code></body></html>`

type fakeFetcher struct {
	page  fetchers.Page
	err   error
	calls int
}

func (f *fakeFetcher) FetchPage(_ context.Context, _ models.Credential, _ string) (fetchers.Page, error) {
	f.calls++

	if f.err != nil {
		return fetchers.Page{}, f.err
	}

	return f.page, nil
}

func testConfig(baseURL string) *config.OutreachConfig {
	return &config.OutreachConfig{
		BaseURL:     baseURL,
		UserAgent:   "test-agent",
		HTTPTimeout: 5 * time.Second,
	}
}

func testCred() models.Credential {
	return models.Credential{
		AccountID: "acct-1",
		Scope:     models.ScopeRead,
		Token:     "li-at-token",
		CSRFToken: `"ajax:123"`,
	}
}

func TestResolvePageStrategyYieldsMemberID(t *testing.T) {
	fetcher := &fakeFetcher{page: fetchers.Page{StatusCode: 200, Body: []byte(profileHTMLWithMember)}}
	resolver := NewResolver(nil, fetcher, []string{config.StrategyRenderedPage}, nil)

	identity, err := resolver.Resolve(context.Background(), testCred(), "jane-doe-1")
	require.NoError(t, err)

	assert.Equal(t, models.KindMemberID, identity.Kind)
	assert.Equal(t, "12345", identity.CanonicalID)
	assert.Equal(t, "abc123XYZ==", identity.TrackingID)
	assert.True(t, identity.Connectable())
}

func TestResolvePageStrategyNeverReturnsOpaque(t *testing.T) {
	// A page exposing only the fsd_profile token must fail the rendered-page
	// strategy rather than hand back an identifier the invitation endpoint
	// rejects.
	fetcher := &fakeFetcher{page: fetchers.Page{StatusCode: 200, Body: []byte(profileHTMLFsdOnly)}}
	resolver := NewResolver(nil, fetcher, []string{config.StrategyRenderedPage}, nil)

	_, err := resolver.Resolve(context.Background(), testCred(), "jane-doe-1")

	var resErr *models.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "jane-doe-1", resErr.Handle)
}

func TestResolveFallsBackToLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/blended", r.URL.Path)
		assert.Equal(t, "jane-doe-1", r.URL.Query().Get("keywords"))
		assert.Equal(t, "ajax:123", r.Header.Get("Csrf-Token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements":[{"elements":[{"publicIdentifier":"jane-doe-1","targetUrn":"urn:li:fsd_profile:ACoAAB98765"}]}]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	fetcher := &fakeFetcher{page: fetchers.Page{StatusCode: 200, Body: []byte("<html><body>nothing here</body></html>")}}
	resolver := NewResolver(client, fetcher, []string{config.StrategyRenderedPage, config.StrategyLookupAPI}, nil)

	identity, err := resolver.Resolve(context.Background(), testCred(), "jane-doe-1")
	require.NoError(t, err)

	assert.Equal(t, models.KindOpaqueProfileID, identity.Kind)
	assert.Equal(t, "ACoAAB98765", identity.CanonicalID)
	assert.False(t, identity.Connectable())
}

func TestResolveCachesPerRun(t *testing.T) {
	fetcher := &fakeFetcher{page: fetchers.Page{StatusCode: 200, Body: []byte(profileHTMLWithMember)}}
	resolver := NewResolver(nil, fetcher, []string{config.StrategyRenderedPage}, nil)

	_, err := resolver.Resolve(context.Background(), testCred(), "jane-doe-1")
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), testCred(), "jane-doe-1")
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
}

func TestResolveUnknownHandle(t *testing.T) {
	fetcher := &fakeFetcher{page: fetchers.Page{StatusCode: 404}}
	resolver := NewResolver(nil, fetcher, []string{config.StrategyRenderedPage}, nil)

	_, err := resolver.Resolve(context.Background(), testCred(), "no-such-person")

	var resErr *models.ResolutionError
	assert.ErrorAs(t, err, &resErr)
}

func TestResolvePropagatesAuthExpiry(t *testing.T) {
	fetcher := &fakeFetcher{err: &models.AuthExpiredError{AccountID: "acct-1", Scope: models.ScopeRead}}
	resolver := NewResolver(nil, fetcher, []string{config.StrategyRenderedPage, config.StrategyLookupAPI}, nil)

	_, err := resolver.Resolve(context.Background(), testCred(), "jane-doe-1")

	assert.True(t, errors.Is(err, models.ErrAuthExpired))
	// The lookup strategy must not run with a dead credential.
	assert.Equal(t, 1, fetcher.calls)
}
