package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/MichaelYagi/plex-sub-downloader/internal/apperrors"
	"github.com/MichaelYagi/plex-sub-downloader/internal/config"
	"github.com/MichaelYagi/plex-sub-downloader/internal/metrics"
	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
)

// Search queries the catalog for subtitles matching the query. One request
// covers every language in the query. A 406 response means the catalog has
// no matches and returns an empty slice; any error means the search itself
// could not be completed.
func (c *client) Search(ctx context.Context, query models.SearchQuery) ([]models.SubtitleCandidate, error) {
	params := searchParams(query)
	cacheKey := params.Encode()

	if c.searchCache != nil {
		if raw, ok := c.searchCache.Get(cacheKey); ok {
			var cached []models.SubtitleCandidate
			if err := json.Unmarshal(raw, &cached); err == nil {
				l := config.GetLogger()
				l.Debug().Str("query", cacheKey).Msg("Search served from cache")
				return cached, nil
			}
			// Corrupt entry: fall through and refresh it from the network.
		}
	}

	endpoint := c.baseURL + "/subtitles?" + cacheKey

	logger := config.GetLogger()
	for attempt := 0; ; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create search request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("search request failed: %w", err)
		}
		metrics.CatalogRequestsTotal.WithLabelValues("search", strconv.Itoa(resp.StatusCode)).Inc()

		switch resp.StatusCode {
		case http.StatusOK:
			var body searchResponse
			err := json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("decode search response: %w", err)
			}
			candidates := candidatesFromResponse(body)
			c.cacheSearch(cacheKey, candidates)
			return candidates, nil

		case http.StatusUnauthorized:
			resp.Body.Close()
			return nil, apperrors.NewAuthenticationError("invalid API key")

		case http.StatusNotAcceptable:
			// No matches is a result, not an error.
			resp.Body.Close()
			empty := []models.SubtitleCandidate{}
			c.cacheSearch(cacheKey, empty)
			return empty, nil

		case http.StatusTooManyRequests:
			wait, retryErr := c.rateLimitWait(ctx, resp, attempt)
			if retryErr != nil {
				return nil, retryErr
			}
			logger.Warn().Dur("wait", wait).Str("query", cacheKey).Msg("Search rate limited, retrying once")
			continue

		default:
			status := resp.StatusCode
			resp.Body.Close()
			logger.Error().Int("status", status).Str("query", cacheKey).Msg("Search failed")
			return nil, &apperrors.ErrUnexpectedStatus{Endpoint: "search", StatusCode: status}
		}
	}
}

func (c *client) cacheSearch(key string, candidates []models.SubtitleCandidate) {
	if c.searchCache == nil {
		return
	}
	if raw, err := json.Marshal(candidates); err == nil {
		c.searchCache.Set(key, raw)
	}
}

// searchParams flattens a query into wire parameters. url.Values.Encode
// sorts keys, so the result doubles as a stable cache key.
func searchParams(query models.SearchQuery) url.Values {
	params := url.Values{}
	params.Set("languages", strings.Join(query.Languages, ","))
	if query.IMDBID != "" {
		params.Set("imdb_id", query.IMDBID)
	} else if query.TMDBID != "" {
		params.Set("tmdb_id", query.TMDBID)
	} else if query.Query != "" {
		params.Set("query", query.Query)
	}
	if query.Season > 0 {
		params.Set("season_number", strconv.Itoa(query.Season))
	}
	if query.Episode > 0 {
		params.Set("episode_number", strconv.Itoa(query.Episode))
	}
	if query.FileSize > 0 {
		params.Set("moviebytesize", strconv.FormatInt(query.FileSize, 10))
	}
	return params
}

func candidatesFromResponse(body searchResponse) []models.SubtitleCandidate {
	candidates := make([]models.SubtitleCandidate, 0, len(body.Data))
	for _, entry := range body.Data {
		attrs := entry.Attributes
		if attrs.Language == "" {
			continue
		}
		candidates = append(candidates, models.SubtitleCandidate{
			Language:      attrs.Language,
			FileID:        attrs.primaryFileID(),
			Rating:        attrs.Ratings,
			DownloadCount: attrs.DownloadCount,
			ReleaseName:   attrs.Release,
			Uploader:      attrs.Uploader.Name,
		})
	}
	return candidates
}
