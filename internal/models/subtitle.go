package models

import "time"

// SubtitleCandidate is one search result for a specific language.
// Fields that the catalog may omit (rating, release, uploader) default to
// their zero values rather than failing the parse.
type SubtitleCandidate struct {
	Language      string  `json:"language"`
	FileID        int64   `json:"fileId"`
	Rating        float64 `json:"rating"` // 0-10
	DownloadCount int     `json:"downloadCount"`
	ReleaseName   string  `json:"releaseName"`
	Uploader      string  `json:"uploader"`
}

// SearchQuery describes a single catalog search. Exactly one identifying
// strategy is used per request: an external ID when one is available,
// otherwise free text. The zero value of an optional field means "not set".
type SearchQuery struct {
	Query     string   // free-text title / show name
	IMDBID    string   // numeric, without "tt" prefix; takes precedence over Query
	TMDBID    string   // used when no IMDB ID is known
	Languages []string // normalized 2-letter codes, joined comma-separated on the wire
	Season    int      // 0 = not episodic
	Episode   int      // 0 = not episodic
	FileSize  int64    // moviebytesize hint, 0 = unknown
}

// QueryForItem builds the one search request that serves every missing
// language of an item. External IDs win over free text; structural hints
// are attached when known.
func QueryForItem(item MediaItem, languages []string) SearchQuery {
	q := SearchQuery{
		Languages: languages,
		FileSize:  item.FileSize,
	}
	switch {
	case item.IMDBID != "":
		q.IMDBID = item.IMDBID
	case item.TMDBID != "":
		q.TMDBID = item.TMDBID
	case item.Kind == KindEpisode:
		q.Query = item.ShowTitle
	default:
		q.Query = item.Title
	}
	if item.Kind == KindEpisode {
		q.Season = item.Season
		q.Episode = item.Episode
	}
	return q
}

// AcquisitionMethod distinguishes how a subtitle was obtained.
type AcquisitionMethod string

const (
	// MethodLocal means the catalog was searched directly and the bytes
	// written beside the media file.
	MethodLocal AcquisitionMethod = "local"
	// MethodDelegated means the media server's own subtitle agent was asked
	// to search and attach the subtitle.
	MethodDelegated AcquisitionMethod = "plex"
)

// DownloadRecord captures one successful acquisition. Immutable once created.
type DownloadRecord struct {
	MediaTitle    string            `json:"mediaTitle"`
	Kind          MediaKind         `json:"kind"`
	Language      string            `json:"language"`
	Method        AcquisitionMethod `json:"method"`
	Rating        float64           `json:"rating"`
	DownloadCount int               `json:"downloadCount"`
	ReleaseName   string            `json:"releaseName"`
	Uploader      string            `json:"uploader"`
	FilePath      string            `json:"filePath"`
	Timestamp     time.Time         `json:"timestamp"`
}

// RunStats aggregates per-run traversal counters across libraries.
type RunStats struct {
	Scanned    int // items inspected
	Needing    int // items with at least one missing language
	Downloaded int // subtitles acquired
	Skipped    int // items not attempted because the budget ran out
	Errors     int // items that failed entirely
}

// Add merges other into s, for accumulating per-library stats into run totals.
func (s *RunStats) Add(other RunStats) {
	s.Scanned += other.Scanned
	s.Needing += other.Needing
	s.Downloaded += other.Downloaded
	s.Skipped += other.Skipped
	s.Errors += other.Errors
}
