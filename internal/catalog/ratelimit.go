package catalog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MichaelYagi/plex-sub-downloader/internal/apperrors"
)

// rateLimitWait consumes a 429 response. On the first occurrence, and when
// the server provided a Retry-After duration, it blocks for that long and
// tells the caller to retry the same request once. A missing wait duration
// or a second consecutive 429 is terminal.
func (c *client) rateLimitWait(ctx context.Context, resp *http.Response, attempt int) (time.Duration, error) {
	resp.Body.Close()

	header := strings.TrimSpace(resp.Header.Get("Retry-After"))
	seconds, parseErr := strconv.Atoi(header)
	if header == "" || parseErr != nil || seconds < 0 {
		return 0, &apperrors.ErrRateLimited{Retryable: false}
	}

	wait := time.Duration(seconds) * time.Second
	if attempt >= 1 {
		// The one allowed retry already happened; surface the limit.
		return 0, &apperrors.ErrRateLimited{RetryAfter: wait, Retryable: false}
	}
	if err := sleepWithContext(ctx, wait); err != nil {
		return 0, err
	}
	return wait, nil
}
