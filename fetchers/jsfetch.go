package fetchers

import (
	"context"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/AliAlAbbassi/air1/models"
)

var _ PageFetcher = (*jsFetch)(nil)

// NewJS creates a Playwright-backed page fetcher for environments where the
// profile page needs full rendering before the embedded identifiers appear.
func NewJS(headless bool) (PageFetcher, error) {
	if err := playwright.Install(); err != nil {
		return nil, err
	}

	const poolSize = 4

	ans := jsFetch{
		headless: headless,
		pool:     make(chan *browser, poolSize),
	}

	return &ans, nil
}

type jsFetch struct {
	headless bool
	pool     chan *browser
}

func (o *jsFetch) getBrowser(ctx context.Context) (*browser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ans := <-o.pool:
		return ans, nil
	default:
		return newBrowser(o.headless)
	}
}

func (o *jsFetch) putBrowser(ctx context.Context, b *browser) {
	select {
	case <-ctx.Done():
		b.Close()
	case o.pool <- b:
	default:
		b.Close()
	}
}

func (o *jsFetch) FetchPage(ctx context.Context, cred models.Credential, pageURL string) (Page, error) {
	b, err := o.getBrowser(ctx)
	if err != nil {
		return Page{}, err
	}

	defer o.putBrowser(ctx, b)

	if err := b.ctx.AddCookies([]playwright.OptionalCookie{
		{
			Name:     "li_at",
			Value:    cred.Token,
			Domain:   playwright.String(".linkedin.com"),
			Path:     playwright.String("/"),
			Secure:   playwright.Bool(true),
			HttpOnly: playwright.Bool(true),
			SameSite: playwright.SameSiteAttributeLax,
		},
	}); err != nil {
		return Page{}, err
	}

	page, err := b.ctx.NewPage()
	if err != nil {
		return Page{}, err
	}

	defer page.Close()

	pageResponse, err := page.Goto(pageURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		if strings.Contains(err.Error(), "ERR_TOO_MANY_REDIRECTS") {
			return Page{}, &models.AuthExpiredError{AccountID: cred.AccountID, Scope: cred.Scope}
		}

		return Page{}, err
	}

	finalURL := page.URL()
	if isLoginURL(finalURL) {
		return Page{}, &models.AuthExpiredError{AccountID: cred.AccountID, Scope: cred.Scope}
	}

	content, err := page.Content()
	if err != nil {
		return Page{}, err
	}

	return Page{
		StatusCode: pageResponse.Status(),
		Body:       []byte(content),
		FinalURL:   finalURL,
	}, nil
}

type browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	ctx     playwright.BrowserContext
}

func (o *browser) Close() {
	_ = o.ctx.Close()
	_ = o.browser.Close()
	_ = o.pw.Stop()
}

func newBrowser(headless bool) (*browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, err
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			`--no-default-browser-check`,
		},
	}

	br, err := pw.Chromium.Launch(opts)
	if err != nil {
		return nil, err
	}

	const defaultWidth, defaultHeight = 1440, 900

	bctx, err := br.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  defaultWidth,
			Height: defaultHeight,
		},
	})
	if err != nil {
		return nil, err
	}

	ans := browser{
		pw:      pw,
		browser: br,
		ctx:     bctx,
	}

	return &ans, nil
}
