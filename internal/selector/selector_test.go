package selector

import (
	"testing"

	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
)

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []models.SubtitleCandidate
		language   string
		wantFileID int64
		wantFound  bool
	}{
		{
			name:      "empty input",
			language:  "en",
			wantFound: false,
		},
		{
			name: "no matching language",
			candidates: []models.SubtitleCandidate{
				{Language: "es", FileID: 1, Rating: 9},
			},
			language:  "en",
			wantFound: false,
		},
		{
			name: "rating outranks download count",
			candidates: []models.SubtitleCandidate{
				{Language: "en", FileID: 1, Rating: 7, DownloadCount: 100},
				{Language: "en", FileID: 2, Rating: 9, DownloadCount: 5},
				{Language: "en", FileID: 3, Rating: 9, DownloadCount: 50},
			},
			language:   "en",
			wantFileID: 3,
			wantFound:  true,
		},
		{
			name: "download count breaks rating ties",
			candidates: []models.SubtitleCandidate{
				{Language: "en", FileID: 1, Rating: 8, DownloadCount: 10},
				{Language: "en", FileID: 2, Rating: 8, DownloadCount: 30},
			},
			language:   "en",
			wantFileID: 2,
			wantFound:  true,
		},
		{
			name: "full tie keeps catalog order",
			candidates: []models.SubtitleCandidate{
				{Language: "en", FileID: 1, Rating: 8, DownloadCount: 10},
				{Language: "en", FileID: 2, Rating: 8, DownloadCount: 10},
			},
			language:   "en",
			wantFileID: 1,
			wantFound:  true,
		},
		{
			name: "filters other languages before ranking",
			candidates: []models.SubtitleCandidate{
				{Language: "es", FileID: 1, Rating: 10, DownloadCount: 999},
				{Language: "en", FileID: 2, Rating: 3, DownloadCount: 1},
			},
			language:   "en",
			wantFileID: 2,
			wantFound:  true,
		},
		{
			name: "language match is case insensitive",
			candidates: []models.SubtitleCandidate{
				{Language: "EN", FileID: 4, Rating: 5},
			},
			language:   "en",
			wantFileID: 4,
			wantFound:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := SelectBest(tt.candidates, tt.language)
			if found != tt.wantFound {
				t.Fatalf("SelectBest() found = %v, want %v", found, tt.wantFound)
			}
			if found && got.FileID != tt.wantFileID {
				t.Errorf("SelectBest() FileID = %d, want %d", got.FileID, tt.wantFileID)
			}
		})
	}
}

func TestSelectBestDoesNotMutateInput(t *testing.T) {
	candidates := []models.SubtitleCandidate{
		{Language: "en", FileID: 1, Rating: 2},
		{Language: "en", FileID: 2, Rating: 9},
	}
	if _, found := SelectBest(candidates, "en"); !found {
		t.Fatal("Expected a match")
	}
	if candidates[0].FileID != 1 || candidates[1].FileID != 2 {
		t.Errorf("Input slice was reordered: %+v", candidates)
	}
}
