// Package status implements the configuration and connectivity
// diagnostic run before committing to a full traversal.
package status

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MichaelYagi/plex-sub-downloader/internal/apperrors"
	"github.com/MichaelYagi/plex-sub-downloader/internal/catalog"
	"github.com/MichaelYagi/plex-sub-downloader/internal/config"
	"github.com/MichaelYagi/plex-sub-downloader/internal/library"
	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
)

// Result is the outcome of a diagnostic run. Issues are fatal for the
// selected method; warnings are not.
type Result struct {
	Info     []string
	Warnings []string
	Issues   []string
}

// OK reports whether the setup can run.
func (r Result) OK() bool {
	return len(r.Issues) == 0
}

// Render formats the result for terminal output.
func (r Result) Render() string {
	var b strings.Builder
	rule := strings.Repeat("-", 80)

	writeSection := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString(title + "\n" + rule + "\n")
		for _, line := range lines {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	writeSection("Info", r.Info)
	writeSection("Warnings", r.Warnings)
	writeSection("Issues", r.Issues)

	if r.OK() {
		b.WriteString("Status: ready\n")
	} else {
		b.WriteString("Status: configuration has issues, fix the items above\n")
	}
	return b.String()
}

// Checker probes configuration, the media server and the catalog.
// Collaborator constructors are injectable so checks stay testable.
type Checker struct {
	cfg        *config.Config
	newServer  func(cfg *config.Config) (library.MediaServer, error)
	newCatalog func(cfg *config.Config) (catalog.Client, error)
}

func NewChecker(cfg *config.Config) *Checker {
	return &Checker{
		cfg: cfg,
		newServer: func(cfg *config.Config) (library.MediaServer, error) {
			timeout, err := cfg.ParsedClientTimeout()
			if err != nil {
				return nil, err
			}
			return library.NewPlex(cfg.Plex.URL, cfg.Plex.Token, timeout)
		},
		newCatalog: func(cfg *config.Config) (catalog.Client, error) {
			return catalog.NewClient(cfg, catalog.Options{
				BaseURL:   cfg.OpenSubtitles.BaseURL,
				APIKey:    cfg.OpenSubtitles.APIKey,
				Username:  cfg.OpenSubtitles.Username,
				Password:  cfg.OpenSubtitles.Password,
				UserAgent: cfg.UserAgent,
			}), nil
		},
	}
}

// Run executes every check and never aborts early: a broken media server
// must not hide a broken catalog key.
func (c *Checker) Run(ctx context.Context) Result {
	var r Result
	c.checkConfig(&r)
	c.checkMediaServer(ctx, &r)
	if c.cfg.Method == string(models.MethodLocal) {
		c.checkCatalog(ctx, &r)
	} else {
		r.Info = append(r.Info, "ℹ Using the library's built-in subtitle download (catalog credentials not required)")
	}
	return r
}

func (c *Checker) checkConfig(r *Result) {
	if _, err := os.Stat(".env"); err == nil {
		r.Info = append(r.Info, "✓ .env file found")
	} else {
		r.Warnings = append(r.Warnings, "⚠ .env file not found (using system environment variables)")
	}

	r.Info = append(r.Info, fmt.Sprintf("✓ Download method: %s", c.cfg.Method))

	if c.cfg.Plex.URL != "" {
		r.Info = append(r.Info, fmt.Sprintf("✓ Plex URL: %s", c.cfg.Plex.URL))
	} else {
		r.Issues = append(r.Issues, "✗ Plex URL is not set")
	}
	if c.cfg.Plex.Token != "" {
		r.Info = append(r.Info, fmt.Sprintf("✓ Plex token: %s", mask(c.cfg.Plex.Token)))
	} else {
		r.Issues = append(r.Issues, "✗ Plex token is not set")
	}

	if c.cfg.Method == string(models.MethodLocal) {
		if c.cfg.OpenSubtitles.APIKey != "" {
			r.Info = append(r.Info, fmt.Sprintf("✓ Catalog API key: %s", mask(c.cfg.OpenSubtitles.APIKey)))
		} else {
			r.Issues = append(r.Issues, "✗ Catalog API key is not set (required for local method)")
		}
		if c.cfg.OpenSubtitles.Username != "" {
			r.Info = append(r.Info, fmt.Sprintf("✓ Catalog username: %s", c.cfg.OpenSubtitles.Username))
		} else {
			r.Issues = append(r.Issues, "✗ Catalog username is not set (required for local method)")
		}
		if c.cfg.OpenSubtitles.Password != "" {
			r.Info = append(r.Info, "✓ Catalog password is set")
		} else {
			r.Issues = append(r.Issues, "✗ Catalog password is not set (required for local method)")
		}
	}

	if len(c.cfg.Languages) > 0 {
		r.Info = append(r.Info, fmt.Sprintf("✓ Subtitle languages: %s", strings.Join(c.cfg.Languages, ", ")))
		for _, lang := range c.cfg.Languages {
			if len(lang) != 2 {
				r.Warnings = append(r.Warnings, fmt.Sprintf("⚠ Language code %q should be 2 letters (ISO 639-1)", lang))
			}
		}
	} else {
		r.Warnings = append(r.Warnings, "⚠ No subtitle languages configured, defaulting to 'en'")
	}
}

func (c *Checker) checkMediaServer(ctx context.Context, r *Result) {
	server, err := c.newServer(c.cfg)
	if err != nil {
		r.Issues = append(r.Issues, fmt.Sprintf("✗ Cannot configure Plex connection: %v", err))
		return
	}

	sections, err := server.Sections(ctx)
	if err != nil {
		r.Issues = append(r.Issues, fmt.Sprintf("✗ Failed to connect to Plex: %v", err))
		return
	}

	var movies, shows int
	for _, section := range sections {
		switch section.Type {
		case "movie":
			movies++
		case "show":
			shows++
		}
	}
	if movies+shows == 0 {
		r.Warnings = append(r.Warnings, "⚠ No movie or TV show libraries found")
		return
	}
	r.Info = append(r.Info, fmt.Sprintf("✓ Found %d movie and %d TV show libraries", movies, shows))
	for _, section := range sections {
		if section.Traversable() {
			r.Info = append(r.Info, fmt.Sprintf("  - %s (%s)", section.Title, section.Type))
		}
	}
}

func (c *Checker) checkCatalog(ctx context.Context, r *Result) {
	if c.cfg.OpenSubtitles.APIKey == "" {
		return
	}

	client, err := c.newCatalog(c.cfg)
	if err != nil {
		r.Issues = append(r.Issues, fmt.Sprintf("✗ Cannot configure catalog client: %v", err))
		return
	}
	defer client.Close()

	// A throwaway search validates the API key without consuming quota.
	_, err = client.Search(ctx, models.SearchQuery{Query: "test", Languages: []string{"en"}})
	switch {
	case err == nil:
		r.Info = append(r.Info, "✓ Catalog API key is valid")
	case errors.Is(err, &apperrors.ErrAuthentication{}):
		r.Issues = append(r.Issues, "✗ Catalog API key is invalid")
		return
	case errors.Is(err, &apperrors.ErrRateLimited{}):
		r.Warnings = append(r.Warnings, "⚠ Catalog rate limit exceeded, wait before retrying")
	default:
		r.Issues = append(r.Issues, fmt.Sprintf("✗ Failed to reach the catalog: %v", err))
		return
	}

	if c.cfg.OpenSubtitles.Username == "" || c.cfg.OpenSubtitles.Password == "" {
		return
	}
	if err := client.Login(ctx); err != nil {
		if errors.Is(err, &apperrors.ErrAuthentication{}) {
			r.Issues = append(r.Issues, "✗ Catalog login failed: invalid username or password")
		} else {
			r.Warnings = append(r.Warnings, fmt.Sprintf("⚠ Catalog login could not be verified: %v", err))
		}
		return
	}
	r.Info = append(r.Info, fmt.Sprintf("✓ Logged in to the catalog as %s", c.cfg.OpenSubtitles.Username))
	if allowed, ok := client.AllowedDownloads(); ok {
		r.Info = append(r.Info, fmt.Sprintf("  Daily download limit: %d", allowed))
	}
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
