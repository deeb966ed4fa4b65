// Package library defines the media-server collaborator contract and its
// Plex binding. The acquisition core only consumes the MediaServer
// interface; everything Plex-specific stays behind it.
package library

import (
	"context"

	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
)

// Section is one library on the media server.
type Section struct {
	ID    string
	Title string
	Type  string // "movie" or "show"
}

// Traversable reports whether the section holds media this tool can
// process.
func (s Section) Traversable() bool {
	return s.Type == "movie" || s.Type == "show"
}

// MediaServer enumerates libraries and items, exposes subtitle tracks,
// and can be asked to run its own subtitle search for an item.
type MediaServer interface {
	// Sections lists all libraries on the server.
	Sections(ctx context.Context) ([]Section, error)

	// Items lists the playable items of a section in library order:
	// movies for movie sections, episodes for show sections.
	Items(ctx context.Context, section Section) ([]models.MediaItem, error)

	// SubtitleLanguages re-reads the subtitle track language codes of an
	// item, as reported by the server (not normalized).
	SubtitleLanguages(ctx context.Context, itemID string) ([]string, error)

	// SearchSubtitles asks the server's own subtitle agent to find and
	// attach a subtitle for the language. Success is detected by the
	// caller via a later SubtitleLanguages read, not by this call.
	SearchSubtitles(ctx context.Context, itemID, language string) error
}
