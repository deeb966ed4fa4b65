package library

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/MichaelYagi/plex-sub-downloader/internal/apperrors"
	"github.com/MichaelYagi/plex-sub-downloader/internal/config"
	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
)

const (
	// Plex metadata type filters for section listings.
	plexTypeMovie   = "1"
	plexTypeEpisode = "4"

	// Stream.streamType for subtitle tracks.
	plexStreamSubtitle = 3
)

// Plex talks to a Plex Media Server over its HTTP API and implements
// MediaServer.
type Plex struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

// NewPlex creates a Plex binding for the given server. URL and token are
// mandatory; without them no library operation can succeed.
func NewPlex(serverURL, token string, timeout time.Duration) (*Plex, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("plex: server URL is required")
	}
	if token == "" {
		return nil, fmt.Errorf("plex: token is required")
	}
	return &Plex{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(serverURL, "/"),
		token:      token,
		logger:     config.GetLogger().With().Str("component", "plex").Logger(),
	}, nil
}

// Plex JSON envelope. Directory entries appear on section listings,
// Metadata entries on item listings and item detail.
type plexContainer struct {
	MediaContainer struct {
		Directory []plexDirectory `json:"Directory"`
		Metadata  []plexMetadata  `json:"Metadata"`
	} `json:"MediaContainer"`
}

type plexDirectory struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type plexMetadata struct {
	RatingKey        string     `json:"ratingKey"`
	Title            string     `json:"title"`
	Type             string     `json:"type"`
	GrandparentTitle string     `json:"grandparentTitle"`
	ParentIndex      int        `json:"parentIndex"`
	Index            int        `json:"index"`
	Guid             []plexGuid `json:"Guid"`
	Media            []struct {
		Part []struct {
			File   string       `json:"file"`
			Size   int64        `json:"size"`
			Stream []plexStream `json:"Stream"`
		} `json:"Part"`
	} `json:"Media"`
}

type plexGuid struct {
	ID string `json:"id"`
}

type plexStream struct {
	StreamType   int    `json:"streamType"`
	LanguageCode string `json:"languageCode"`
	Key          string `json:"key"`
}

func (p *Plex) get(ctx context.Context, path string, query url.Values, out *plexContainer) error {
	endpoint := p.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("plex: building request for %s: %w", path, err)
	}
	req.Header.Set("X-Plex-Token", p.token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plex: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return apperrors.NewAuthenticationError("plex token rejected")
	default:
		return &apperrors.ErrUnexpectedStatus{Endpoint: path, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("plex: decoding response from %s: %w", path, err)
	}
	return nil
}

// Sections lists all libraries on the server.
func (p *Plex) Sections(ctx context.Context) ([]Section, error) {
	var container plexContainer
	if err := p.get(ctx, "/library/sections", nil, &container); err != nil {
		return nil, err
	}

	sections := make([]Section, 0, len(container.MediaContainer.Directory))
	for _, dir := range container.MediaContainer.Directory {
		sections = append(sections, Section{
			ID:    dir.Key,
			Title: dir.Title,
			Type:  dir.Type,
		})
	}
	return sections, nil
}

// Items lists the playable items of a section in library order. Show
// sections are flattened to episodes. Subtitle tracks are fetched per
// item since the section listing does not carry streams.
func (p *Plex) Items(ctx context.Context, section Section) ([]models.MediaItem, error) {
	query := url.Values{}
	query.Set("includeGuids", "1")
	switch section.Type {
	case "movie":
		query.Set("type", plexTypeMovie)
	case "show":
		query.Set("type", plexTypeEpisode)
	default:
		return nil, fmt.Errorf("plex: unsupported section type %q", section.Type)
	}

	var container plexContainer
	path := "/library/sections/" + section.ID + "/all"
	if err := p.get(ctx, path, query, &container); err != nil {
		return nil, err
	}

	items := make([]models.MediaItem, 0, len(container.MediaContainer.Metadata))
	for _, meta := range container.MediaContainer.Metadata {
		item := itemFromMetadata(meta)
		languages, err := p.SubtitleLanguages(ctx, item.ID)
		if err != nil {
			p.logger.Warn().Err(err).Str("item", item.Title).Msg("Could not read subtitle tracks")
		} else {
			item.SubtitleLanguages = languages
		}
		items = append(items, item)
	}

	p.logger.Debug().Str("section", section.Title).Int("items", len(items)).Msg("Listed section items")
	return items, nil
}

// SubtitleLanguages re-reads the subtitle track language codes of an item.
func (p *Plex) SubtitleLanguages(ctx context.Context, itemID string) ([]string, error) {
	meta, err := p.itemMetadata(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var languages []string
	for _, media := range meta.Media {
		for _, part := range media.Part {
			for _, stream := range part.Stream {
				if stream.StreamType == plexStreamSubtitle && stream.LanguageCode != "" {
					languages = append(languages, stream.LanguageCode)
				}
			}
		}
	}
	return languages, nil
}

// SearchSubtitles asks the server's subtitle agent for the language and
// applies the first result it offers. Finding nothing is not an error;
// the caller detects success by re-reading the tracks.
func (p *Plex) SearchSubtitles(ctx context.Context, itemID, language string) error {
	query := url.Values{}
	query.Set("language", language)
	query.Set("hearingImpaired", "0")
	query.Set("forced", "0")

	var container plexContainer
	path := "/library/metadata/" + itemID + "/subtitles"
	if err := p.get(ctx, path, query, &container); err != nil {
		return err
	}

	var streamKey string
	for _, meta := range container.MediaContainer.Metadata {
		for _, media := range meta.Media {
			for _, part := range media.Part {
				for _, stream := range part.Stream {
					if stream.Key != "" {
						streamKey = stream.Key
						break
					}
				}
			}
		}
	}
	if streamKey == "" {
		p.logger.Debug().Str("item", itemID).Str("language", language).Msg("Agent search returned no subtitles")
		return nil
	}

	applyQuery := url.Values{}
	applyQuery.Set("key", streamKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.baseURL+path+"?"+applyQuery.Encode(), nil)
	if err != nil {
		return fmt.Errorf("plex: building apply request: %w", err)
	}
	req.Header.Set("X-Plex-Token", p.token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plex: applying subtitle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &apperrors.ErrUnexpectedStatus{Endpoint: path, StatusCode: resp.StatusCode}
	}
	return nil
}

func (p *Plex) itemMetadata(ctx context.Context, itemID string) (plexMetadata, error) {
	var container plexContainer
	if err := p.get(ctx, "/library/metadata/"+itemID, nil, &container); err != nil {
		return plexMetadata{}, err
	}
	if len(container.MediaContainer.Metadata) == 0 {
		return plexMetadata{}, fmt.Errorf("plex: item %s not found", itemID)
	}
	return container.MediaContainer.Metadata[0], nil
}

func itemFromMetadata(meta plexMetadata) models.MediaItem {
	item := models.MediaItem{
		ID:        meta.RatingKey,
		Title:     meta.Title,
		Kind:      models.ParseMediaKind(meta.Type),
		ShowTitle: meta.GrandparentTitle,
		Season:    meta.ParentIndex,
		Episode:   meta.Index,
	}
	for _, guid := range meta.Guid {
		switch {
		case strings.HasPrefix(guid.ID, "imdb://tt"):
			item.IMDBID = strings.TrimPrefix(guid.ID, "imdb://tt")
		case strings.HasPrefix(guid.ID, "tmdb://"):
			item.TMDBID = strings.TrimPrefix(guid.ID, "tmdb://")
		}
	}
	if len(meta.Media) > 0 && len(meta.Media[0].Part) > 0 {
		item.FilePath = meta.Media[0].Part[0].File
		item.FileSize = meta.Media[0].Part[0].Size
	}
	return item
}
