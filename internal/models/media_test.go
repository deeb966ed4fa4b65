package models

import (
	"encoding/json"
	"testing"
)

func TestMediaKind_String(t *testing.T) {
	tests := []struct {
		kind MediaKind
		want string
	}{
		{KindMovie, "movie"},
		{KindEpisode, "episode"},
		{KindUnknown, "unknown"},
		{MediaKind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("MediaKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestParseMediaKind(t *testing.T) {
	tests := []struct {
		input string
		want  MediaKind
	}{
		{"movie", KindMovie},
		{"Movie", KindMovie},
		{"episode", KindEpisode},
		{"show", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		if got := ParseMediaKind(tt.input); got != tt.want {
			t.Errorf("ParseMediaKind(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMediaKind_JSON(t *testing.T) {
	data, err := json.Marshal(KindEpisode)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"episode"` {
		t.Errorf("Expected %q, got %s", `"episode"`, data)
	}

	var k MediaKind
	if err := json.Unmarshal([]byte(`"movie"`), &k); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if k != KindMovie {
		t.Errorf("Expected KindMovie, got %v", k)
	}
}

func TestMediaItem_DisplayName(t *testing.T) {
	movie := MediaItem{Title: "Inception", Kind: KindMovie}
	if got := movie.DisplayName(); got != "Inception" {
		t.Errorf("DisplayName() = %q, want %q", got, "Inception")
	}

	episode := MediaItem{
		Title:     "Ozymandias",
		Kind:      KindEpisode,
		ShowTitle: "Breaking Bad",
		Season:    5,
		Episode:   14,
	}
	want := "Breaking Bad - S05E14 - Ozymandias"
	if got := episode.DisplayName(); got != want {
		t.Errorf("DisplayName() = %q, want %q", got, want)
	}
}

func TestQueryForItem_IdentifierPrecedence(t *testing.T) {
	langs := []string{"en", "es"}

	tests := []struct {
		name string
		item MediaItem
		want SearchQuery
	}{
		{
			name: "imdb wins over tmdb and title",
			item: MediaItem{Title: "Inception", Kind: KindMovie, IMDBID: "1375666", TMDBID: "27205"},
			want: SearchQuery{IMDBID: "1375666", Languages: langs},
		},
		{
			name: "tmdb wins over title",
			item: MediaItem{Title: "Inception", Kind: KindMovie, TMDBID: "27205"},
			want: SearchQuery{TMDBID: "27205", Languages: langs},
		},
		{
			name: "movie falls back to title",
			item: MediaItem{Title: "Inception", Kind: KindMovie},
			want: SearchQuery{Query: "Inception", Languages: langs},
		},
		{
			name: "episode falls back to show name with structural hints",
			item: MediaItem{Title: "Pilot", Kind: KindEpisode, ShowTitle: "Severance", Season: 1, Episode: 1},
			want: SearchQuery{Query: "Severance", Languages: langs, Season: 1, Episode: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QueryForItem(tt.item, langs)
			if got.Query != tt.want.Query || got.IMDBID != tt.want.IMDBID || got.TMDBID != tt.want.TMDBID {
				t.Errorf("QueryForItem identifiers = %+v, want %+v", got, tt.want)
			}
			if got.Season != tt.want.Season || got.Episode != tt.want.Episode {
				t.Errorf("QueryForItem hints = S%dE%d, want S%dE%d", got.Season, got.Episode, tt.want.Season, tt.want.Episode)
			}
		})
	}
}

func TestQueryForItem_FileSizeHint(t *testing.T) {
	item := MediaItem{Title: "Inception", Kind: KindMovie, FileSize: 123456}
	q := QueryForItem(item, []string{"en"})
	if q.FileSize != 123456 {
		t.Errorf("Expected file size hint 123456, got %d", q.FileSize)
	}
}
