package models

import (
	"fmt"
	"strings"
)

// MediaKind classifies a library item as a movie or a TV episode.
type MediaKind int

const (
	KindUnknown MediaKind = iota
	KindMovie
	KindEpisode
)

// String returns the string representation of the media kind
func (k MediaKind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindEpisode:
		return "episode"
	default:
		return "unknown"
	}
}

// ParseMediaKind converts a media kind string to MediaKind enum
func ParseMediaKind(kind string) MediaKind {
	switch strings.ToLower(kind) {
	case "movie":
		return KindMovie
	case "episode":
		return KindEpisode
	default:
		return KindUnknown
	}
}

// MarshalJSON implements json.Marshaler interface
func (k MediaKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (k *MediaKind) UnmarshalJSON(data []byte) error {
	*k = ParseMediaKind(strings.Trim(string(data), `"`))
	return nil
}

// MediaItem is a read-only view of one library entry as reported by the
// media server. SubtitleLanguages carries the raw language codes of the
// item's existing subtitle tracks; normalization happens in the language
// package.
type MediaItem struct {
	ID                string
	Title             string
	Kind              MediaKind
	ShowTitle         string // grandparent title for episodes
	Season            int
	Episode           int
	IMDBID            string // numeric part, without "tt" prefix
	TMDBID            string
	SubtitleLanguages []string
	FilePath          string
	FileSize          int64
}

// DisplayName renders the item the way it appears in logs and the report:
// "Show - S01E02 - Title" for episodes, plain title for movies.
func (m MediaItem) DisplayName() string {
	if m.Kind != KindEpisode {
		return m.Title
	}
	name := fmt.Sprintf("S%02dE%02d", m.Season, m.Episode)
	if m.ShowTitle != "" {
		name = m.ShowTitle + " - " + name
	}
	if m.Title != "" {
		name = name + " - " + m.Title
	}
	return name
}
