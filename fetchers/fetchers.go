// Package fetchers fetches rendered profile pages for identity resolution.
package fetchers

import (
	"context"

	"github.com/AliAlAbbassi/air1/models"
)

// Page is one fetched profile page.
type Page struct {
	StatusCode int
	Body       []byte
	FinalURL   string
}

// PageFetcher retrieves a profile page using the account's read credential.
// Implementations must surface session expiry as *models.AuthExpiredError.
type PageFetcher interface {
	FetchPage(ctx context.Context, cred models.Credential, pageURL string) (Page, error)
}
