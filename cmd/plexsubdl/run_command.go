package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MichaelYagi/plex-sub-downloader/internal/acquisition"
	"github.com/MichaelYagi/plex-sub-downloader/internal/cache"
	"github.com/MichaelYagi/plex-sub-downloader/internal/catalog"
	"github.com/MichaelYagi/plex-sub-downloader/internal/config"
	"github.com/MichaelYagi/plex-sub-downloader/internal/language"
	"github.com/MichaelYagi/plex-sub-downloader/internal/library"
	"github.com/MichaelYagi/plex-sub-downloader/internal/metrics"
	"github.com/MichaelYagi/plex-sub-downloader/internal/models"
	"github.com/MichaelYagi/plex-sub-downloader/internal/report"
	"github.com/MichaelYagi/plex-sub-downloader/internal/storage"
)

func newRunCommand(verbose *bool) *cobra.Command {
	var (
		method       string
		libraryName  string
		mediaType    string
		languagesCSV string
		maxDownloads int
		reportFile   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan libraries and download missing subtitles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*verbose)
			if err != nil {
				return err
			}

			// Flags override config.
			if method != "" {
				cfg.Method = method
			}
			if libraryName != "" {
				cfg.Library = libraryName
			}
			if mediaType != "" {
				cfg.MediaType = mediaType
			}
			if languagesCSV != "" {
				cfg.Languages = strings.Split(languagesCSV, ",")
			}
			if maxDownloads > 0 {
				cfg.MaxDownloads = maxDownloads
			}
			if reportFile != "" {
				cfg.ReportFile = reportFile
			}
			cfg.Languages = language.NormalizeAll(cfg.Languages)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runDownload(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&method, "method", "", `Acquisition method: "local" or "plex"`)
	cmd.Flags().StringVar(&libraryName, "library", "", "Process only the named library")
	cmd.Flags().StringVar(&mediaType, "type", "", `Restrict to "movie" or "episode"`)
	cmd.Flags().StringVar(&languagesCSV, "languages", "", "Comma-separated language codes (e.g. en,es)")
	cmd.Flags().IntVar(&maxDownloads, "max-downloads", 0, "Stop after this many downloads (0 = unlimited)")
	cmd.Flags().StringVar(&reportFile, "report", "", "Report output path")

	return cmd
}

func runDownload(ctx context.Context, cfg *config.Config) error {
	logger := config.GetLogger()

	if cfg.Method != string(models.MethodLocal) && cfg.Method != string(models.MethodDelegated) {
		return fmt.Errorf("unknown method %q, expected \"local\" or \"plex\"", cfg.Method)
	}
	if cfg.Method == string(models.MethodLocal) {
		if cfg.OpenSubtitles.APIKey == "" || cfg.OpenSubtitles.Username == "" || cfg.OpenSubtitles.Password == "" {
			return errors.New("local method requires OpenSubtitles API key, username and password")
		}
	}

	timeout, err := cfg.ParsedClientTimeout()
	if err != nil {
		return fmt.Errorf("invalid client timeout: %w", err)
	}

	server, err := library.NewPlex(cfg.Plex.URL, cfg.Plex.Token, timeout)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Metrics.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Msg("Metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		defer metricsServer.Close()
	}

	searchCache, err := newSearchCache(cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Search cache disabled")
	}

	client := catalog.NewClient(cfg, catalog.Options{
		BaseURL:     cfg.OpenSubtitles.BaseURL,
		APIKey:      cfg.OpenSubtitles.APIKey,
		Username:    cfg.OpenSubtitles.Username,
		Password:    cfg.OpenSubtitles.Password,
		UserAgent:   cfg.UserAgent,
		SearchCache: searchCache,
	})
	defer client.Close()

	aggregator := report.NewAggregator(models.AcquisitionMethod(cfg.Method))
	orchestrator := acquisition.NewOrchestrator(server, client, storage.NewFileStore(), aggregator, acquisition.Options{
		Languages:    cfg.Languages,
		Method:       models.AcquisitionMethod(cfg.Method),
		Library:      cfg.Library,
		MediaType:    cfg.MediaType,
		MaxDownloads: cfg.MaxDownloads,
	})

	stats, runErr := orchestrator.Run(ctx)
	if runErr != nil && errors.Is(runErr, context.Canceled) {
		logger.Warn().Msg("Interrupted, writing report for completed work")
	}

	logger.Info().
		Int("scanned", stats.Scanned).
		Int("needing", stats.Needing).
		Int("downloaded", stats.Downloaded).
		Int("skipped", stats.Skipped).
		Int("errors", stats.Errors).
		Msg("Run finished")

	// The report reflects completed work even on interrupt.
	fmt.Println(aggregator.Render())
	if aggregator.Count() > 0 || runErr == nil {
		if err := aggregator.SaveTo(cfg.ReportFile); err != nil {
			logger.Error().Err(err).Msg("Could not save report")
		} else {
			logger.Info().Str("path", cfg.ReportFile).Msg("Report saved")
		}
	}

	if remaining, ok := client.RemainingQuota(); ok {
		logger.Info().Int("remaining", remaining).Msg("Daily download quota")
	}
	return runErr
}

func newSearchCache(cfg *config.Config, logger zerolog.Logger) (cache.Cache, error) {
	ttl := 15 * time.Minute
	if cfg.Cache.TTL != "" {
		parsed, err := time.ParseDuration(cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid cache TTL: %w", err)
		}
		ttl = parsed
	}

	return cache.New(cfg.Cache.Provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           ttl,
		Logger:        cacheLogger{logger},
		RedisAddress:  cfg.Cache.RedisAddress,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Group:         "search",
	})
}

// cacheLogger adapts zerolog to the cache error reporting interface.
type cacheLogger struct {
	logger zerolog.Logger
}

func (l cacheLogger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}
