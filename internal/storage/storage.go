// Package storage persists subtitle bytes beside media files and derives
// the sidecar naming convention players expect.
package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/MichaelYagi/plex-sub-downloader/internal/apperrors"
)

// SubtitlePath derives the sidecar path for a media file and language:
// the media extension is replaced with ".<language>[.forced].srt".
func SubtitlePath(mediaPath, language string, forced bool) string {
	base := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	suffix := "." + language
	if forced {
		suffix += ".forced"
	}
	return base + suffix + ".srt"
}

// Exists reports whether a subtitle sidecar for the language is already
// on disk next to the media file.
func Exists(mediaPath, language string) bool {
	_, err := os.Stat(SubtitlePath(mediaPath, language, false))
	return err == nil
}

// Store is the persistence collaborator the orchestrator writes through.
type Store interface {
	SubtitleExists(mediaPath, language string) bool
	SaveSubtitle(mediaPath, language string, data []byte) (string, error)
}

// FileStore writes subtitles to the local filesystem, converting the
// payload to UTF-8 when the catalog serves another encoding.
type FileStore struct{}

func NewFileStore() *FileStore {
	return &FileStore{}
}

func (s *FileStore) SubtitleExists(mediaPath, language string) bool {
	return Exists(mediaPath, language)
}

// SaveSubtitle writes the subtitle beside the media file and returns the
// path written. The payload is run through charset detection so legacy
// encodings (ISO-8859-1, Windows-1252) land on disk as UTF-8.
func (s *FileStore) SaveSubtitle(mediaPath, language string, data []byte) (string, error) {
	path := SubtitlePath(mediaPath, language, false)

	normalized, err := toUTF8(data)
	if err != nil {
		// An undetectable encoding is not worth losing the subtitle over;
		// write the bytes as received.
		normalized = data
	}

	if err := os.WriteFile(path, normalized, 0o644); err != nil {
		return "", &apperrors.ErrLocalWrite{Path: path, Cause: err}
	}
	return path, nil
}

func toUTF8(data []byte) ([]byte, error) {
	reader, err := charset.NewReader(bytes.NewReader(data), "")
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}
