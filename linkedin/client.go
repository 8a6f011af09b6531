// Package linkedin implements the Voyager protocol client: identity
// resolution, invitation submission and response classification.
package linkedin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/config"
	"github.com/AliAlAbbassi/air1/models"
)

// loginPathMarkers identify redirect targets that mean the session is dead.
var loginPathMarkers = []string{"/login", "/uas/", "/checkpoint", "/authwall"}

// Client talks to the Voyager API. It never follows redirects: a 3xx toward a
// login path is a session-expiry signal, not a navigation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	log        *zap.Logger
}

// NewClient creates a Voyager client from the outreach configuration.
func NewClient(cfg *config.OutreachConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		log:       log,
	}
}

// IsAuthRedirect reports whether a status/location pair is a session-expiry
// signal: a 3xx pointing at a login or interstitial path.
func IsAuthRedirect(status int, location string) bool {
	if status < 300 || status > 399 {
		return false
	}

	loc := strings.ToLower(location)
	for _, marker := range loginPathMarkers {
		if strings.Contains(loc, marker) {
			return true
		}
	}

	return false
}

func (c *Client) get(ctx context.Context, cred models.Credential, path string, params url.Values) (int, []byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, cred)
}

func (c *Client) post(ctx context.Context, cred models.Credential, path string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("accept", "application/vnd.linkedin.normalized+json+2.1")
	req.Header.Set("content-type", "application/json")

	return c.do(req, cred)
}

func (c *Client) do(req *http.Request, cred models.Credential) (int, []byte, error) {
	c.decorate(req, cred)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "stopped after") || strings.Contains(err.Error(), "too many redirects") {
			return 0, nil, &models.AuthExpiredError{AccountID: cred.AccountID, Scope: cred.Scope}
		}

		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if IsAuthRedirect(resp.StatusCode, resp.Header.Get("Location")) {
		c.log.Warn("voyager call redirected to login",
			zap.String("account_id", cred.AccountID),
			zap.String("location", resp.Header.Get("Location")))

		return 0, nil, &models.AuthExpiredError{AccountID: cred.AccountID, Scope: cred.Scope}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// decorate applies the session cookies and the browser-shaped headers the
// Voyager API expects. The Csrf-Token header must equal the JSESSIONID cookie
// value with its quotes stripped.
func (c *Client) decorate(req *http.Request, cred models.Credential) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("x-li-lang", "en_US")
	req.Header.Set("x-restli-protocol-version", "2.0.0")

	if req.Header.Get("accept") == "" {
		req.Header.Set("accept", "*/*")
	}

	req.AddCookie(&http.Cookie{Name: "li_at", Value: cred.Token})

	if cred.CSRFToken != "" {
		req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: cred.CSRFToken})
		req.Header.Set("Csrf-Token", strings.Trim(cred.CSRFToken, `"`))
	}
}
