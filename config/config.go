// Package config provides outreach configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AliAlAbbassi/air1/models"
)

// Strategy names accepted in OUTREACH_RESOLUTION_ORDER.
const (
	StrategyRenderedPage = "rendered_page"
	StrategyLookupAPI    = "lookup_api"
)

// OutreachConfig holds daily caps, pacing delays and protocol options.
type OutreachConfig struct {
	BaseURL     string
	UserAgent   string
	HTTPTimeout time.Duration

	// DailyCaps maps action types to their per-account daily limits.
	DailyCaps map[models.ActionType]int

	// ProfileDelayMin/Max bound the randomized pause between profile-level
	// actions; PageDelayMin/Max bound pauses between pagination steps.
	ProfileDelayMin time.Duration
	ProfileDelayMax time.Duration
	PageDelayMin    time.Duration
	PageDelayMax    time.Duration

	// DuplicatePhrases is the allow-list matched case-insensitively against
	// 422 bodies. A known precision risk: platform copy changes and
	// localization are not covered, and phrases must not be guessed.
	DuplicatePhrases []string

	// ResolutionOrder lists strategy names in priority order.
	ResolutionOrder []string
}

const (
	defaultBaseURL     = "https://www.linkedin.com/voyager/api"
	defaultUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultHTTPTimeout = 30 * time.Second

	defaultConnectionsCap  = 25
	defaultMessagesCap     = 40
	defaultInMailsCap      = 10
	defaultProfileViewsCap = 100

	defaultProfileDelayMin = 5 * time.Second
	defaultProfileDelayMax = 15 * time.Second
	defaultPageDelayMin    = 2 * time.Second
	defaultPageDelayMax    = 5 * time.Second

	minCap = 0
	maxCap = 1000

	minDelay = 0
	maxDelay = 10 * time.Minute
)

// DefaultDuplicatePhrases are the known already-connected markers in 422
// bodies. Matched case-insensitively.
var DefaultDuplicatePhrases = []string{
	"already connected",
	"pending invitation",
	"invitation is pending",
	"already a connection",
}

// NewOutreachConfig builds a configuration from the environment, applying
// defaults and clamping out-of-range values.
func NewOutreachConfig() (*OutreachConfig, error) {
	cfg := &OutreachConfig{
		BaseURL:     envString("OUTREACH_BASE_URL", defaultBaseURL),
		UserAgent:   envString("OUTREACH_USER_AGENT", defaultUserAgent),
		HTTPTimeout: envDuration("OUTREACH_HTTP_TIMEOUT", defaultHTTPTimeout),
		DailyCaps: map[models.ActionType]int{
			models.ActionConnections:  clampInt(envInt("OUTREACH_CAP_CONNECTIONS", defaultConnectionsCap), minCap, maxCap),
			models.ActionMessages:     clampInt(envInt("OUTREACH_CAP_MESSAGES", defaultMessagesCap), minCap, maxCap),
			models.ActionInMails:      clampInt(envInt("OUTREACH_CAP_INMAILS", defaultInMailsCap), minCap, maxCap),
			models.ActionProfileViews: clampInt(envInt("OUTREACH_CAP_PROFILE_VIEWS", defaultProfileViewsCap), minCap, maxCap),
		},
		ProfileDelayMin:  clampDuration(envDuration("OUTREACH_PROFILE_DELAY_MIN", defaultProfileDelayMin), minDelay, maxDelay),
		ProfileDelayMax:  clampDuration(envDuration("OUTREACH_PROFILE_DELAY_MAX", defaultProfileDelayMax), minDelay, maxDelay),
		PageDelayMin:     clampDuration(envDuration("OUTREACH_PAGE_DELAY_MIN", defaultPageDelayMin), minDelay, maxDelay),
		PageDelayMax:     clampDuration(envDuration("OUTREACH_PAGE_DELAY_MAX", defaultPageDelayMax), minDelay, maxDelay),
		DuplicatePhrases: envList("OUTREACH_DUPLICATE_PHRASES", DefaultDuplicatePhrases),
		ResolutionOrder:  envList("OUTREACH_RESOLUTION_ORDER", []string{StrategyRenderedPage, StrategyLookupAPI}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *OutreachConfig) Validate() error {
	if c.ProfileDelayMax < c.ProfileDelayMin {
		return fmt.Errorf("profile delay max %s is below min %s", c.ProfileDelayMax, c.ProfileDelayMin)
	}

	if c.PageDelayMax < c.PageDelayMin {
		return fmt.Errorf("page delay max %s is below min %s", c.PageDelayMax, c.PageDelayMin)
	}

	for _, name := range c.ResolutionOrder {
		if name != StrategyRenderedPage && name != StrategyLookupAPI {
			return fmt.Errorf("unknown resolution strategy %q", name)
		}
	}

	if len(c.ResolutionOrder) == 0 {
		return fmt.Errorf("resolution order is empty")
	}

	return nil
}

// Cap returns the configured daily cap for an action type, zero when unset.
func (c *OutreachConfig) Cap(action models.ActionType) int {
	return c.DailyCaps[action]
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}

	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return parsed
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}

	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}

	return parsed
}

func envList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return def
	}

	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
