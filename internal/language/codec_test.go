package language

import (
	"reflect"
	"testing"

	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"eng", "en"},
		{"spa", "es"},
		{"fra", "fr"},
		{"fre", "fr"},
		{"deu", "de"},
		{"ita", "it"},
		{"por", "pt"},
		{"en", "en"},   // 2-letter is identity
		{"EN", "en"},   // case folded
		{"xx", "xx"},   // unknown 2-letter passes through
		{"xyz", "xy"},  // unmapped 3-letter truncates
		{" en ", "en"}, // whitespace trimmed
		{"english", "english"}, // longer codes pass through untouched
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExisting(t *testing.T) {
	item := models.MediaItem{
		SubtitleLanguages: []string{"eng", "ES", "xyz", ""},
	}

	got := Existing(item)
	want := map[string]struct{}{"en": {}, "es": {}, "xy": {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Existing() = %v, want %v", got, want)
	}
}

func TestMissing(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		wanted   []string
		want     []string
	}{
		{
			name:     "all missing",
			existing: nil,
			wanted:   []string{"en", "es"},
			want:     []string{"en", "es"},
		},
		{
			name:     "nothing missing",
			existing: []string{"eng", "spa"},
			wanted:   []string{"en", "es"},
			want:     []string{},
		},
		{
			name:     "partial, 3-letter tracks normalized",
			existing: []string{"eng"},
			wanted:   []string{"en", "es", "fr"},
			want:     []string{"es", "fr"},
		},
		{
			name:     "wanted codes normalized before comparison",
			existing: []string{"en"},
			wanted:   []string{"ENG", "spa"},
			want:     []string{"es"},
		},
		{
			name:     "duplicate wanted codes collapse",
			existing: nil,
			wanted:   []string{"en", "eng", "EN"},
			want:     []string{"en"},
		},
		{
			name:     "result sorted",
			existing: nil,
			wanted:   []string{"fr", "de", "en"},
			want:     []string{"de", "en", "fr"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := models.MediaItem{SubtitleLanguages: tt.existing}
			got := Missing(item, tt.wanted)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Missing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissing_IsPure(t *testing.T) {
	item := models.MediaItem{SubtitleLanguages: []string{"eng"}}
	wanted := []string{"en", "es"}

	first := Missing(item, wanted)
	second := Missing(item, wanted)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated calls differ: %v vs %v", first, second)
	}
}
