// Package selector ranks catalog candidates and picks the best subtitle
// for a language.
package selector

import (
	"sort"
	"strings"

	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
)

// SelectBest returns the highest ranked candidate for the given language,
// preferring higher community ratings and breaking ties on download count.
// Candidates that are equal on both keys keep their catalog order. Returns
// false when no candidate matches the language.
func SelectBest(candidates []models.SubtitleCandidate, language string) (models.SubtitleCandidate, bool) {
	matching := make([]models.SubtitleCandidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.EqualFold(c.Language, language) {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		return models.SubtitleCandidate{}, false
	}

	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].Rating != matching[j].Rating {
			return matching[i].Rating > matching[j].Rating
		}
		return matching[i].DownloadCount > matching[j].DownloadCount
	})
	return matching[0], true
}
