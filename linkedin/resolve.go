package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/config"
	"github.com/AliAlAbbassi/air1/fetchers"
	"github.com/AliAlAbbassi/air1/models"
)

const (
	profileURLFormat = "https://www.linkedin.com/in/%s/"

	// contextWindow bounds how far from the handle occurrence we look for an
	// embedded URN. Identifiers for other members appear all over the page.
	contextWindow = 2000
)

var (
	memberURNRe = regexp.MustCompile(`urn:li:member:(\d+)`)
	fsdURNRe    = regexp.MustCompile(`urn:li:fsd_profile:([A-Za-z0-9_-]+)`)
	trackingRe  = regexp.MustCompile(`(?i)trackingId(?:&quot;|["':=\s]){1,8}([A-Za-z0-9+/=_-]{3,})`)

	errStrategyMiss = errors.New("strategy produced no identifier")
)

// Resolver turns a profile handle into a canonical platform identifier.
// Strategies run in configured priority order; results are cached for the
// lifetime of the resolver because resolution costs a page fetch.
type Resolver struct {
	client  *Client
	fetcher fetchers.PageFetcher
	order   []string
	log     *zap.Logger

	mu    sync.Mutex
	cache map[string]models.ProfileIdentity
}

// NewResolver creates a resolver using the given page fetcher for the
// rendered-page strategy and the Voyager client for the lookup strategy.
func NewResolver(client *Client, fetcher fetchers.PageFetcher, order []string, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}

	return &Resolver{
		client:  client,
		fetcher: fetcher,
		order:   order,
		log:     log,
		cache:   make(map[string]models.ProfileIdentity),
	}
}

// Resolve resolves a handle to a ProfileIdentity. The rendered-page strategy
// is preferred because only the numeric member identifier it yields is
// accepted by the invitation endpoint; the lookup API reliably answers but
// only with the opaque kind. Session expiry aborts resolution immediately.
func (r *Resolver) Resolve(ctx context.Context, cred models.Credential, handle string) (models.ProfileIdentity, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return models.ProfileIdentity{}, &models.ResolutionError{Handle: handle, Err: errors.New("empty handle")}
	}

	r.mu.Lock()
	if identity, ok := r.cache[handle]; ok {
		r.mu.Unlock()
		return identity, nil
	}
	r.mu.Unlock()

	var lastErr error

	for _, name := range r.order {
		var (
			identity models.ProfileIdentity
			err      error
		)

		switch name {
		case config.StrategyRenderedPage:
			identity, err = r.resolveFromPage(ctx, cred, handle)
		case config.StrategyLookupAPI:
			identity, err = r.resolveFromLookup(ctx, cred, handle)
		default:
			continue
		}

		if err == nil {
			r.mu.Lock()
			r.cache[handle] = identity
			r.mu.Unlock()

			r.log.Debug("handle resolved",
				zap.String("handle", handle),
				zap.String("kind", identity.Kind.String()),
				zap.String("strategy", name))

			return identity, nil
		}

		var authErr *models.AuthExpiredError
		if errors.As(err, &authErr) {
			return models.ProfileIdentity{}, err
		}

		var resErr *models.ResolutionError
		if errors.As(err, &resErr) {
			return models.ProfileIdentity{}, err
		}

		lastErr = err
	}

	return models.ProfileIdentity{}, &models.ResolutionError{Handle: handle, Err: lastErr}
}

// resolveFromPage extracts the numeric member identifier embedded in the
// public profile HTML. It never settles for the opaque kind: when only an
// fsd_profile token is present the strategy fails and the lookup strategy
// decides what the caller gets.
func (r *Resolver) resolveFromPage(ctx context.Context, cred models.Credential, handle string) (models.ProfileIdentity, error) {
	page, err := r.fetcher.FetchPage(ctx, cred, fmt.Sprintf(profileURLFormat, url.PathEscape(handle)))
	if err != nil {
		return models.ProfileIdentity{}, err
	}

	if page.StatusCode == http.StatusNotFound {
		return models.ProfileIdentity{}, &models.ResolutionError{Handle: handle, Err: errors.New("profile not found")}
	}

	if page.StatusCode != http.StatusOK {
		return models.ProfileIdentity{}, fmt.Errorf("profile page returned status %d", page.StatusCode)
	}

	for _, segment := range pageSegments(page.Body, handle) {
		if m := memberURNRe.FindStringSubmatch(segment); m != nil {
			return models.ProfileIdentity{
				Handle:      handle,
				CanonicalID: m[1],
				Kind:        models.KindMemberID,
				TrackingID:  extractTrackingID(segment),
			}, nil
		}
	}

	return models.ProfileIdentity{}, errStrategyMiss
}

// pageSegments returns the slices of the page worth scanning, most specific
// first: code blocks mentioning the handle (the embedded JSON payloads live in
// <code> elements), then a window around each raw occurrence of the handle.
func pageSegments(body []byte, handle string) []string {
	var segments []string

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		doc.Find("code").Each(func(_ int, s *goquery.Selection) {
			if text := s.Text(); strings.Contains(text, handle) {
				segments = append(segments, text)
			}
		})
	}

	text := string(body)
	offset := 0

	for {
		idx := strings.Index(text[offset:], handle)
		if idx < 0 {
			break
		}

		idx += offset
		start := max(0, idx-contextWindow)
		end := min(len(text), idx+contextWindow)
		segments = append(segments, text[start:end])
		offset = idx + len(handle)
	}

	return segments
}

func extractTrackingID(segment string) string {
	m := trackingRe.FindStringSubmatch(segment)
	if m == nil {
		return ""
	}

	switch strings.ToLower(m[1]) {
	case "true", "false", "null", "undefined", "0", "1":
		return ""
	}

	return m[1]
}

type blendedSearchResponse struct {
	Elements []struct {
		Elements []struct {
			PublicIdentifier string `json:"publicIdentifier"`
			TargetUrn        string `json:"targetUrn"`
		} `json:"elements"`
	} `json:"elements"`
}

// resolveFromLookup queries the blended-search endpoint. It reliably answers
// with the opaque profile identifier, which read endpoints accept but the
// invitation endpoint rejects.
func (r *Resolver) resolveFromLookup(ctx context.Context, cred models.Credential, handle string) (models.ProfileIdentity, error) {
	params := url.Values{}
	params.Set("keywords", handle)
	params.Set("filters", "List(resultType->PEOPLE)")
	params.Set("count", "3")
	params.Set("origin", "SWITCH_SEARCH_VERTICAL")

	status, body, err := r.client.get(ctx, cred, "/search/blended", params)
	if err != nil {
		return models.ProfileIdentity{}, err
	}

	if status == http.StatusNotFound {
		return models.ProfileIdentity{}, &models.ResolutionError{Handle: handle, Err: errors.New("profile not found")}
	}

	if status != http.StatusOK {
		return models.ProfileIdentity{}, fmt.Errorf("search returned status %d", status)
	}

	var parsed blendedSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.ProfileIdentity{}, fmt.Errorf("failed to parse search response: %w", err)
	}

	for _, module := range parsed.Elements {
		for _, result := range module.Elements {
			match := result.PublicIdentifier == handle ||
				(result.PublicIdentifier == "" && strings.Contains(result.TargetUrn, ":fsd_profile:"))
			if !match {
				continue
			}

			if m := fsdURNRe.FindStringSubmatch(result.TargetUrn); m != nil {
				return models.ProfileIdentity{
					Handle:      handle,
					CanonicalID: m[1],
					Kind:        models.KindOpaqueProfileID,
				}, nil
			}
		}
	}

	return models.ProfileIdentity{}, errStrategyMiss
}
