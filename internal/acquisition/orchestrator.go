// Package acquisition drives the subtitle download run: per item it
// determines missing languages and acquires each one, per run it bounds
// total work by the download budget and isolates failures.
package acquisition

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/MichaelYagi/plex-sub-downloader/internal/catalog"
	"github.com/MichaelYagi/plex-sub-downloader/internal/config"
	"github.com/MichaelYagi/plex-sub-downloader/internal/language"
	"github.com/MichaelYagi/plex-sub-downloader/internal/library"
	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
	"github.com/MichaelYagi/plex-sub-downloader/internal/selector"
	"github.com/MichaelYagi/plex-sub-downloader/internal/storage"
)

// defaultSettleDelay gives the media server's subtitle agent time to
// attach a result before the tracks are re-read.
const defaultSettleDelay = 2 * time.Second

// Recorder receives one record per successful acquisition.
type Recorder interface {
	Append(record models.DownloadRecord)
}

// Options configures a run.
type Options struct {
	// Languages is the wanted set, normalized 2-letter codes.
	Languages []string

	// Method selects local catalog downloads or delegated agent searches.
	Method models.AcquisitionMethod

	// Library restricts the run to one library by title. Empty = all.
	Library string

	// MediaType restricts the run to "movie" or "episode" sections.
	// Empty = both.
	MediaType string

	// MaxDownloads caps successful acquisitions across the whole run.
	// 0 = unlimited.
	MaxDownloads int

	// SettleDelay overrides the wait after a delegated search. Zero means
	// the default.
	SettleDelay time.Duration
}

// Orchestrator walks libraries and acquires missing subtitles.
type Orchestrator struct {
	server   library.MediaServer
	catalog  catalog.Client
	store    storage.Store
	recorder Recorder
	opts     Options
	logger   zerolog.Logger
}

func NewOrchestrator(server library.MediaServer, cat catalog.Client, store storage.Store, recorder Recorder, opts Options) *Orchestrator {
	if opts.SettleDelay == 0 {
		opts.SettleDelay = defaultSettleDelay
	}
	return &Orchestrator{
		server:   server,
		catalog:  cat,
		store:    store,
		recorder: recorder,
		opts:     opts,
		logger:   config.GetLogger().With().Str("component", "acquisition").Logger(),
	}
}

// Run traverses all matching libraries with a shared download budget.
// The returned stats reflect everything completed, even when the run was
// cut short by cancellation.
func (o *Orchestrator) Run(ctx context.Context) (models.RunStats, error) {
	sections, err := o.server.Sections(ctx)
	if err != nil {
		return models.RunStats{}, fmt.Errorf("listing libraries: %w", err)
	}

	var total models.RunStats
	for _, section := range sections {
		if !o.sectionMatches(section) {
			continue
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}

		budget := 0
		if o.opts.MaxDownloads > 0 {
			budget = o.opts.MaxDownloads - total.Downloaded
			if budget <= 0 {
				o.logger.Info().Str("library", section.Title).Msg("Skipping library, download limit reached")
				continue
			}
		}

		stats, err := o.ProcessSection(ctx, section, budget)
		total.Add(stats)
		if err != nil {
			if ctx.Err() != nil {
				return total, err
			}
			o.logger.Error().Err(err).Str("library", section.Title).Msg("Library traversal failed")
			total.Errors++
		}
	}
	return total, nil
}

func (o *Orchestrator) sectionMatches(section library.Section) bool {
	if !section.Traversable() {
		return false
	}
	if o.opts.Library != "" && section.Title != o.opts.Library {
		return false
	}
	switch o.opts.MediaType {
	case "movie":
		return section.Type == "movie"
	case "episode":
		return section.Type == "show"
	default:
		return true
	}
}

// ProcessSection walks one library in order. budget caps successful
// acquisitions within this call; 0 = unlimited. Once the budget is
// reached, remaining items are counted as skipped, not errors. A failing
// item never stops the traversal.
func (o *Orchestrator) ProcessSection(ctx context.Context, section library.Section, budget int) (models.RunStats, error) {
	o.logger.Info().Str("library", section.Title).Msg("Processing library")

	items, err := o.server.Items(ctx, section)
	if err != nil {
		return models.RunStats{}, fmt.Errorf("listing items of %q: %w", section.Title, err)
	}

	var stats models.RunStats
	for _, item := range items {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		stats.Scanned++

		if budget > 0 && stats.Downloaded >= budget {
			stats.Skipped++
			continue
		}

		result, err := o.ProcessItem(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				return stats, err
			}
			o.logger.Error().Err(err).Str("item", item.DisplayName()).Msg("Item failed")
			stats.Errors++
			continue
		}
		if result.Needed {
			stats.Needing++
		}
		stats.Downloaded += result.Acquired
	}

	o.logger.Info().
		Str("library", section.Title).
		Int("scanned", stats.Scanned).
		Int("needing", stats.Needing).
		Int("downloaded", stats.Downloaded).
		Int("skipped", stats.Skipped).
		Int("errors", stats.Errors).
		Msg("Library done")
	return stats, nil
}

// ItemResult is the outcome of processing a single item.
type ItemResult struct {
	// Needed reports whether the item was missing at least one language.
	Needed bool
	// Acquired is the number of subtitles obtained for the item.
	Acquired int
}

// ProcessItem acquires every missing language of one item. A failure on
// one language never blocks the others.
func (o *Orchestrator) ProcessItem(ctx context.Context, item models.MediaItem) (ItemResult, error) {
	missing := language.Missing(item, o.opts.Languages)
	if len(missing) == 0 {
		return ItemResult{}, nil
	}

	if o.opts.Method == models.MethodLocal {
		if item.FilePath == "" {
			o.logger.Warn().Str("item", item.DisplayName()).Msg("No file path, cannot store subtitles locally")
			return ItemResult{Needed: true}, nil
		}
		missing = o.withoutOnDisk(item, missing)
		if len(missing) == 0 {
			return ItemResult{}, nil
		}
	}

	o.logger.Info().Str("item", item.DisplayName()).Strs("missing", missing).Msg("Missing subtitles")

	var acquired int
	var err error
	if o.opts.Method == models.MethodDelegated {
		acquired, err = o.acquireDelegated(ctx, item, missing)
	} else {
		acquired, err = o.acquireLocal(ctx, item, missing)
	}
	return ItemResult{Needed: true, Acquired: acquired}, err
}

// withoutOnDisk drops languages whose subtitle sidecar already exists.
func (o *Orchestrator) withoutOnDisk(item models.MediaItem, missing []string) []string {
	remaining := missing[:0:0]
	for _, lang := range missing {
		if o.store.SubtitleExists(item.FilePath, lang) {
			continue
		}
		remaining = append(remaining, lang)
	}
	return remaining
}

// acquireDelegated asks the media server's own agent per language, waits
// for it to settle, then re-reads the tracks to detect success.
func (o *Orchestrator) acquireDelegated(ctx context.Context, item models.MediaItem, missing []string) (int, error) {
	var acquired int
	for _, lang := range missing {
		if err := o.server.SearchSubtitles(ctx, item.ID, lang); err != nil {
			o.logger.Warn().Err(err).Str("item", item.DisplayName()).Str("language", lang).Msg("Agent search failed")
			continue
		}

		if err := sleepWithContext(ctx, o.opts.SettleDelay); err != nil {
			return acquired, err
		}

		current, err := o.server.SubtitleLanguages(ctx, item.ID)
		if err != nil {
			o.logger.Warn().Err(err).Str("item", item.DisplayName()).Msg("Could not re-read subtitle tracks")
			continue
		}
		if !containsLanguage(current, lang) {
			o.logger.Info().Str("item", item.DisplayName()).Str("language", lang).Msg("Agent found no subtitle")
			continue
		}

		acquired++
		o.recorder.Append(models.DownloadRecord{
			MediaTitle: item.DisplayName(),
			Kind:       item.Kind,
			Language:   lang,
			Method:     models.MethodDelegated,
			Timestamp:  time.Now(),
		})
	}
	return acquired, nil
}

// acquireLocal issues one catalog search covering every missing language,
// then selects, downloads and stores per language independently.
func (o *Orchestrator) acquireLocal(ctx context.Context, item models.MediaItem, missing []string) (int, error) {
	query := models.QueryForItem(item, missing)
	candidates, err := o.catalog.Search(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return 0, err
		}
		o.logger.Warn().Err(err).Str("item", item.DisplayName()).Msg("Catalog search failed")
		return 0, nil
	}
	if len(candidates) == 0 {
		o.logger.Info().Str("item", item.DisplayName()).Msg("No catalog results")
		return 0, nil
	}

	var acquired int
	for _, lang := range missing {
		best, ok := selector.SelectBest(candidates, lang)
		if !ok {
			o.logger.Info().Str("item", item.DisplayName()).Str("language", lang).Msg("No candidate for language")
			continue
		}

		data, err := o.catalog.Download(ctx, best.FileID)
		if err != nil {
			if ctx.Err() != nil {
				return acquired, err
			}
			o.logger.Warn().Err(err).Str("item", item.DisplayName()).Str("language", lang).Msg("Download failed")
			continue
		}

		path, err := o.store.SaveSubtitle(item.FilePath, lang, data)
		if err != nil {
			o.logger.Warn().Err(err).Str("item", item.DisplayName()).Str("language", lang).Msg("Could not write subtitle")
			continue
		}

		acquired++
		o.logger.Info().Str("item", item.DisplayName()).Str("language", lang).Str("path", path).Msg("Subtitle downloaded")
		o.recorder.Append(models.DownloadRecord{
			MediaTitle:    item.DisplayName(),
			Kind:          item.Kind,
			Language:      lang,
			Method:        models.MethodLocal,
			Rating:        best.Rating,
			DownloadCount: best.DownloadCount,
			ReleaseName:   best.ReleaseName,
			Uploader:      best.Uploader,
			FilePath:      path,
			Timestamp:     time.Now(),
		})
	}
	return acquired, nil
}

func containsLanguage(codes []string, lang string) bool {
	for _, code := range language.NormalizeAll(codes) {
		if code == lang {
			return true
		}
	}
	return false
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
