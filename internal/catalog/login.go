package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MichaelYagi/plex-sub-downloader/internal/apperrors"
	"github.com/MichaelYagi/plex-sub-downloader/internal/config"
	"github.com/MichaelYagi/plex-sub-downloader/internal/metrics"
)

// Login authenticates against the catalog and stores the session token.
// Bad credentials are a terminal *apperrors.ErrAuthentication; the caller
// decides whether to continue without download capability.
func (c *client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return apperrors.NewAuthenticationError("no username/password configured")
	}

	logger := config.GetLogger()
	logger.Info().Str("username", c.username).Msg("Logging in to subtitle catalog")

	payload, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return fmt.Errorf("encode login request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		if err := c.pace(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create login request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("login request failed: %w", err)
		}
		metrics.CatalogRequestsTotal.WithLabelValues("login", strconv.Itoa(resp.StatusCode)).Inc()

		switch resp.StatusCode {
		case http.StatusOK:
			var body loginResponse
			err := json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode login response: %w", err)
			}
			c.sessionMu.Lock()
			c.token = body.Token
			c.allowedDownloads = body.User.AllowedDownloads
			c.sessionMu.Unlock()
			logger.Info().
				Str("level", body.User.Level).
				Int("allowed_downloads", body.User.AllowedDownloads).
				Msg("Successfully logged in")
			return nil

		case http.StatusUnauthorized:
			resp.Body.Close()
			return apperrors.NewAuthenticationError("invalid username or password")

		case http.StatusTooManyRequests:
			wait, retryErr := c.rateLimitWait(ctx, resp, attempt)
			if retryErr != nil {
				return retryErr
			}
			logger.Warn().Dur("wait", wait).Msg("Login rate limited, retrying once")
			continue

		default:
			status := resp.StatusCode
			resp.Body.Close()
			logger.Error().Int("status", status).Msg("Login failed")
			return &apperrors.ErrUnexpectedStatus{Endpoint: "login", StatusCode: status}
		}
	}
}

// AllowedDownloads reports the account's daily download cap as stated by
// the last successful login. False until a login has happened.
func (c *client) AllowedDownloads() (int, bool) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.allowedDownloads, c.token != ""
}
