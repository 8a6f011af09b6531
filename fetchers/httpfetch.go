package fetchers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AliAlAbbassi/air1/models"
)

const maxRedirects = 10

var _ PageFetcher = (*httpFetch)(nil)

var errLoginRedirect = errors.New("redirected to login")

type httpFetch struct {
	client    *http.Client
	userAgent string
}

// NewHTTP creates the default page fetcher. Redirects are followed up to a
// bound; a redirect into a login or interstitial path, or a redirect loop,
// means the session cookie is dead.
func NewHTTP(timeout time.Duration, userAgent string) PageFetcher {
	f := &httpFetch{userAgent: userAgent}

	f.client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}

			if isLoginURL(req.URL.Path) {
				return errLoginRedirect
			}

			return nil
		},
	}

	return f
}

func (f *httpFetch) FetchPage(ctx context.Context, cred models.Credential, pageURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("accept", "text/html,application/xhtml+xml")
	req.AddCookie(&http.Cookie{Name: "li_at", Value: cred.Token})

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, errLoginRedirect) || strings.Contains(err.Error(), "stopped after") {
			return Page{}, &models.AuthExpiredError{AccountID: cred.AccountID, Scope: cred.Scope}
		}

		return Page{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if isLoginURL(resp.Request.URL.Path) {
		return Page{}, &models.AuthExpiredError{AccountID: cred.AccountID, Scope: cred.Scope}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("failed to read page body: %w", err)
	}

	return Page{
		StatusCode: resp.StatusCode,
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

func isLoginURL(path string) bool {
	lowered := strings.ToLower(path)

	for _, marker := range []string{"/login", "/uas/", "/checkpoint", "/authwall"} {
		if strings.Contains(lowered, marker) {
			return true
		}
	}

	return false
}
