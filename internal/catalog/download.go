package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/MichaelYagi/plex-sub-downloader/internal/apperrors"
	"github.com/MichaelYagi/plex-sub-downloader/internal/config"
	"github.com/MichaelYagi/plex-sub-downloader/internal/metrics"
)

// Download obtains the subtitle bytes for a catalog file ID. A session is
// established lazily on first use. When the held token is rejected the
// client re-authenticates and retries the download exactly once; a second
// rejection surfaces as failure rather than recursing.
func (c *client) Download(ctx context.Context, fileID int64) ([]byte, error) {
	logger := config.GetLogger()

	if c.currentToken() == "" {
		if err := c.Login(ctx); err != nil {
			metrics.SubtitleDownloadsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("cannot download without a session: %w", err)
		}
	}

	// Advisory fail-fast: no point burning a paced network call when the
	// server already told us the quota is spent.
	if remaining, known := c.RemainingQuota(); known && remaining <= 0 {
		metrics.SubtitleDownloadsTotal.WithLabelValues("quota").Inc()
		return nil, &apperrors.ErrQuotaExhausted{Remaining: remaining}
	}

	reauthenticated := false
	for {
		data, err := c.requestDownload(ctx, fileID)
		if err == nil {
			metrics.SubtitleDownloadsTotal.WithLabelValues("success").Inc()
			return data, nil
		}

		if errors.Is(err, &apperrors.ErrAuthentication{}) && !reauthenticated {
			reauthenticated = true
			logger.Warn().Int64("fileID", fileID).Msg("Session token rejected, re-authenticating once")
			c.clearToken()
			if loginErr := c.Login(ctx); loginErr != nil {
				metrics.SubtitleDownloadsTotal.WithLabelValues("error").Inc()
				return nil, loginErr
			}
			continue
		}

		metrics.SubtitleDownloadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
}

// requestDownload performs one download negotiation: POST /download for a
// one-time link, then a GET on that link for the bytes. The remaining
// quota counter is refreshed from the negotiation response.
func (c *client) requestDownload(ctx context.Context, fileID int64) ([]byte, error) {
	logger := config.GetLogger()

	payload, err := json.Marshal(downloadRequest{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("encode download request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/download", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create download request: %w", err)
		}
		c.setHeaders(req)
		req.Header.Set("Authorization", "Bearer "+c.currentToken())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("download request failed: %w", err)
		}
		metrics.CatalogRequestsTotal.WithLabelValues("download", strconv.Itoa(resp.StatusCode)).Inc()

		switch resp.StatusCode {
		case http.StatusOK:
			var body downloadResponse
			err := json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("decode download response: %w", err)
			}
			if body.Remaining != nil {
				c.setRemaining(*body.Remaining)
				metrics.QuotaRemaining.Set(float64(*body.Remaining))
				logger.Debug().Int("remaining", *body.Remaining).Msg("Quota updated from download response")
			}
			if body.Link == "" {
				return nil, fmt.Errorf("download response for file %d missing link", fileID)
			}
			return c.fetchLink(ctx, body.Link)

		case http.StatusUnauthorized:
			resp.Body.Close()
			return nil, apperrors.NewAuthenticationError("session token rejected")

		case http.StatusNotAcceptable:
			resp.Body.Close()
			return nil, &apperrors.ErrDownloadUnavailable{FileID: fileID}

		case http.StatusTooManyRequests:
			wait, retryErr := c.rateLimitWait(ctx, resp, attempt)
			if retryErr != nil {
				return nil, retryErr
			}
			logger.Warn().Dur("wait", wait).Int64("fileID", fileID).Msg("Download rate limited, retrying once")
			continue

		default:
			status := resp.StatusCode
			resp.Body.Close()
			logger.Error().Int("status", status).Int64("fileID", fileID).Msg("Download negotiation failed")
			return nil, &apperrors.ErrUnexpectedStatus{Endpoint: "download", StatusCode: status}
		}
	}
}

// fetchLink follows the one-time link to the actual subtitle payload.
func (c *client) fetchLink(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("create link request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch subtitle payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.ErrUnexpectedStatus{Endpoint: "download link", StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read subtitle payload: %w", err)
	}
	return data, nil
}
