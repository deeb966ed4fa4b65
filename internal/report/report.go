// Package report accumulates download records and renders the end-of-run
// summary.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
)

// EmptyMessage is rendered when a run acquired nothing.
const EmptyMessage = "No subtitles were downloaded."

// Aggregator collects DownloadRecords in acquisition order and renders
// them as a human-readable report. Safe for concurrent appends.
type Aggregator struct {
	mu      sync.Mutex
	records []models.DownloadRecord
	method  models.AcquisitionMethod
	now     func() time.Time
}

func NewAggregator(method models.AcquisitionMethod) *Aggregator {
	return &Aggregator{method: method, now: time.Now}
}

// Append adds one record. Records are never modified after this.
func (a *Aggregator) Append(record models.DownloadRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
}

// Count returns the number of accumulated records.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Render produces the full report text: records grouped by media kind,
// then summary statistics with a per-language breakdown.
func (a *Aggregator) Render() string {
	a.mu.Lock()
	records := make([]models.DownloadRecord, len(a.records))
	copy(records, a.records)
	a.mu.Unlock()

	if len(records) == 0 {
		return EmptyMessage
	}

	var b strings.Builder
	rule := strings.Repeat("=", 80)

	b.WriteString(rule + "\n")
	b.WriteString("SUBTITLE DOWNLOAD REPORT\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total subtitles downloaded: %d\n", len(records))
	fmt.Fprintf(&b, "Download method: %s\n", a.method)
	fmt.Fprintf(&b, "Generated: %s\n", a.now().Format("2006-01-02 15:04:05"))
	b.WriteString(rule + "\n")

	var movies, episodes []models.DownloadRecord
	for _, r := range records {
		if r.Kind == models.KindEpisode {
			episodes = append(episodes, r)
		} else {
			movies = append(movies, r)
		}
	}

	if len(movies) > 0 {
		fmt.Fprintf(&b, "\nMOVIES (%d subtitles)\n", len(movies))
		b.WriteString(recordTable(movies))
		b.WriteString("\n")
	}
	if len(episodes) > 0 {
		fmt.Fprintf(&b, "\nTV EPISODES (%d subtitles)\n", len(episodes))
		b.WriteString(recordTable(episodes))
		b.WriteString("\n")
	}

	b.WriteString("\n" + rule + "\n")
	b.WriteString("SUMMARY STATISTICS\n")
	b.WriteString(rule + "\n")

	if a.method == models.MethodLocal {
		var ratingSum float64
		var downloadSum int
		for _, r := range records {
			ratingSum += r.Rating
			downloadSum += r.DownloadCount
		}
		fmt.Fprintf(&b, "Average subtitle rating: %.1f/10\n", ratingSum/float64(len(records)))
		fmt.Fprintf(&b, "Total community downloads: %d\n", downloadSum)
	}

	b.WriteString("\nLanguage breakdown:\n")
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Language]++
	}
	languages := make([]string, 0, len(counts))
	for lang := range counts {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	for _, lang := range languages {
		fmt.Fprintf(&b, "  %s: %d\n", strings.ToUpper(lang), counts[lang])
	}

	b.WriteString(rule + "\n")
	return b.String()
}

// SaveTo writes the rendered report to path as UTF-8 text.
func (a *Aggregator) SaveTo(path string) error {
	if err := os.WriteFile(path, []byte(a.Render()), 0o644); err != nil {
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	return nil
}

func recordTable(records []models.DownloadRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	local := false
	for _, r := range records {
		if r.Method == models.MethodLocal {
			local = true
			break
		}
	}

	if local {
		tw.AppendHeader(table.Row{"Title", "Lang", "Rating", "Downloads", "Release", "Uploader", "File", "Timestamp"})
		for _, r := range records {
			tw.AppendRow(table.Row{
				r.MediaTitle,
				strings.ToUpper(r.Language),
				fmt.Sprintf("%.1f/10", r.Rating),
				r.DownloadCount,
				r.ReleaseName,
				r.Uploader,
				filepath.Base(r.FilePath),
				r.Timestamp.Format("2006-01-02 15:04:05"),
			})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
			{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		})
	} else {
		tw.AppendHeader(table.Row{"Title", "Lang", "Method", "Timestamp"})
		for _, r := range records {
			tw.AppendRow(table.Row{
				r.MediaTitle,
				strings.ToUpper(r.Language),
				"Library subtitle agent",
				r.Timestamp.Format("2006-01-02 15:04:05"),
			})
		}
	}
	return tw.Render()
}
