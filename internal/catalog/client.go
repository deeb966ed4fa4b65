// Package catalog implements the authenticated, rate-limited client for the
// OpenSubtitles REST API. It hides authentication, request pacing and quota
// bookkeeping from callers: search and download just return results or
// typed errors from the apperrors package.
package catalog

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/MichaelYagi/plex-sub-downloader/internal/cache"
	"github.com/MichaelYagi/plex-sub-downloader/internal/config"
	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
)

// minRequestInterval is the minimum spacing between consecutive outbound
// calls, measured from the start of the previous call. The catalog bans
// clients that poll faster.
const minRequestInterval = time.Second

// Client is the interface for querying the subtitle catalog.
type Client interface {
	// Login authenticates with the configured credentials and stores the
	// session token. Invalid credentials surface as *apperrors.ErrAuthentication;
	// there is no automatic retry.
	Login(ctx context.Context) error

	// Search returns the candidates matching the query. A 406 from the
	// catalog means "no matches" and yields an empty, non-nil slice;
	// errors mean the search itself failed.
	Search(ctx context.Context, query models.SearchQuery) ([]models.SubtitleCandidate, error)

	// Download fetches the subtitle bytes for a file ID, logging in first
	// when no session is held. A stale token is refreshed at most once.
	Download(ctx context.Context, fileID int64) ([]byte, error)

	// RemainingQuota reports the server-advised remaining daily downloads.
	// The boolean is false while the counter is unknown.
	RemainingQuota() (int, bool)

	// AllowedDownloads reports the account's daily download cap as stated
	// by the last successful login. False until a login has happened.
	AllowedDownloads() (int, bool)

	// Close releases the search cache.
	Close() error
}

// client implements the Client interface
type client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	username    string
	password    string
	userAgent   string
	searchCache cache.Cache

	// minInterval is minRequestInterval in production; tests shorten it.
	minInterval time.Duration

	// session guards the token, the advisory quota counter and the pacing
	// clock. The catalog enforces its limits per credential, so these stay
	// correct even if callers ever issue requests concurrently.
	sessionMu        sync.Mutex
	token            string
	allowedDownloads int
	remaining        int
	hasQuota         bool
	lastRequest      time.Time
}

// Options carries the catalog-specific settings for NewClient.
type Options struct {
	BaseURL   string
	APIKey    string
	Username  string
	Password  string
	UserAgent string
	// SearchCache, when non-nil, memoizes search responses keyed by the
	// canonical query string.
	SearchCache cache.Cache
}

// NewClient creates a catalog client. The HTTP transport decodes
// compressed responses transparently.
func NewClient(cfg *config.Config, opts Options) Client {
	timeout := 30 * time.Second
	if cfg.ClientTimeout != "" {
		if parsedTimeout, err := time.ParseDuration(cfg.ClientTimeout); err != nil {
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("timeout", cfg.ClientTimeout).Msg("Invalid timeout duration, using default 30s")
		} else {
			timeout = parsedTimeout
		}
	}

	baseTransport := http.DefaultTransport.(*http.Transport).Clone()
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: newCompressionTransport(baseTransport),
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	return &client{
		httpClient:  httpClient,
		baseURL:     opts.BaseURL,
		apiKey:      opts.APIKey,
		username:    opts.Username,
		password:    opts.Password,
		userAgent:   userAgent,
		searchCache: opts.SearchCache,
		minInterval: minRequestInterval,
	}
}

// pace blocks until at least minRequestInterval has passed since the start
// of the previous outbound call, then claims the pacing slot. Returns early
// with the context error on cancellation.
func (c *client) pace(ctx context.Context) error {
	for {
		c.sessionMu.Lock()
		now := time.Now()
		wait := c.minInterval - now.Sub(c.lastRequest)
		if c.lastRequest.IsZero() || wait <= 0 {
			c.lastRequest = now
			c.sessionMu.Unlock()
			return nil
		}
		c.sessionMu.Unlock()

		if err := sleepWithContext(ctx, wait); err != nil {
			return err
		}
	}
}

// sleepWithContext blocks for d, returning early if the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// setHeaders applies the headers the catalog requires on every call.
func (c *client) setHeaders(req *http.Request) {
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
}

func (c *client) currentToken() string {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.token
}

func (c *client) clearToken() {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	c.token = ""
}

// RemainingQuota reports the advisory remaining-downloads counter.
func (c *client) RemainingQuota() (int, bool) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.remaining, c.hasQuota
}

func (c *client) setRemaining(remaining int) {
	c.sessionMu.Lock()
	c.remaining = remaining
	c.hasQuota = true
	c.sessionMu.Unlock()
}

// Close releases the search cache, if any.
func (c *client) Close() error {
	if c.searchCache != nil {
		return c.searchCache.Close()
	}
	return nil
}
