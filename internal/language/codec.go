// Package language normalizes subtitle language identifiers and computes
// which of the wanted languages a media item is missing.
package language

import (
	"sort"
	"strings"

	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
)

// threeToTwo maps common ISO 639-2 codes to their 639-1 equivalents.
// This is intentionally not a complete ISO table: codes outside it are
// truncated to their first two letters, which misclassifies some uncommon
// languages. That heuristic matches what the media server reports in
// practice and is kept as-is.
var threeToTwo = map[string]string{
	"eng": "en",
	"spa": "es",
	"fra": "fr",
	"fre": "fr",
	"deu": "de",
	"ger": "de",
	"ita": "it",
	"por": "pt",
	"rus": "ru",
	"jpn": "ja",
	"kor": "ko",
	"zho": "zh",
	"chi": "zh",
	"ara": "ar",
	"nld": "nl",
	"dut": "nl",
}

// Normalize lower-cases a language code and reduces 3-letter codes to
// 2 letters, via the fixed table when possible and by truncation otherwise.
// 2-letter codes pass through unchanged.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) != 3 {
		return code
	}
	if two, ok := threeToTwo[code]; ok {
		return two
	}
	return code[:2]
}

// NormalizeAll normalizes every code in the list, preserving order and
// dropping empties.
func NormalizeAll(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if n := Normalize(c); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Existing returns the normalized set of languages already present on the
// item's subtitle tracks.
func Existing(item models.MediaItem) map[string]struct{} {
	existing := make(map[string]struct{}, len(item.SubtitleLanguages))
	for _, code := range item.SubtitleLanguages {
		if n := Normalize(code); n != "" {
			existing[n] = struct{}{}
		}
	}
	return existing
}

// Missing computes wanted minus the item's existing languages. Both sides
// are normalized before comparison. The result is sorted so traversal and
// logging stay deterministic.
func Missing(item models.MediaItem, wanted []string) []string {
	existing := Existing(item)
	seen := make(map[string]struct{}, len(wanted))
	missing := make([]string, 0, len(wanted))
	for _, w := range wanted {
		n := Normalize(w)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if _, ok := existing[n]; !ok {
			missing = append(missing, n)
		}
	}
	sort.Strings(missing)
	return missing
}
