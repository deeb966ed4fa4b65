package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent identifies this client to the subtitle catalog, which
// rejects requests without a User-Agent.
const DefaultUserAgent = "PlexSubDownloader v1.0"

// DefaultReportFile is where the download report is written unless overridden.
const DefaultReportFile = "subtitle_download_report.txt"

type Config struct {
	Plex struct {
		URL   string `mapstructure:"url"`
		Token string `mapstructure:"token"`
	} `mapstructure:"plex"`
	OpenSubtitles struct {
		APIKey   string `mapstructure:"api_key"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		BaseURL  string `mapstructure:"base_url"`
	} `mapstructure:"opensubtitles"`
	Languages     []string `mapstructure:"languages"`
	Method        string   `mapstructure:"method"` // "local" or "plex"
	Library       string   `mapstructure:"library"`
	MediaType     string   `mapstructure:"media_type"` // "movie", "episode" or empty for all
	MaxDownloads  int      `mapstructure:"max_downloads"`
	ReportFile    string   `mapstructure:"report_file"`
	UserAgent     string   `mapstructure:"user_agent"`
	ClientTimeout string   `mapstructure:"client_timeout"` // Go duration string like "30s"
	LogLevel      string   `mapstructure:"log_level"`
	Cache         struct {
		Provider      string `mapstructure:"provider"` // "memory" or "redis"
		Size          int    `mapstructure:"size"`
		TTL           string `mapstructure:"ttl"` // Go duration string like "15m"
		RedisAddress  string `mapstructure:"redis_address"`
		RedisPassword string `mapstructure:"redis_password"`
		RedisDB       int    `mapstructure:"redis_db"`
	} `mapstructure:"cache"`
	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Address string `mapstructure:"address"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"metrics"`
}

var (
	loggerMu sync.RWMutex
	logger   = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: false,
	}).With().Timestamp().Logger()
)

// LoadConfig reads configuration from an optional .env file, an optional
// config.yaml, and environment variables (PSD_ prefix, e.g. PSD_PLEX_TOKEN).
// Missing config files are not errors: everything can come from the
// environment or command-line flags layered on top by the caller.
func LoadConfig() (*Config, error) {
	// .env is a convenience for local runs; its values become plain
	// environment variables that viper picks up below.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PSD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Variable names kept compatible with the original deployment scripts.
	_ = viper.BindEnv("plex.url", "PLEX_URL")
	_ = viper.BindEnv("plex.token", "PLEX_TOKEN")
	_ = viper.BindEnv("opensubtitles.api_key", "OPENSUBTITLES_API_KEY")
	_ = viper.BindEnv("opensubtitles.username", "OPENSUBTITLES_USERNAME")
	_ = viper.BindEnv("opensubtitles.password", "OPENSUBTITLES_PASSWORD")
	_ = viper.BindEnv("languages", "SUBTITLE_LANGUAGES")
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetDefault("plex.url", "http://localhost:32400")
	viper.SetDefault("opensubtitles.base_url", "https://api.opensubtitles.com/api/v1")
	viper.SetDefault("languages", []string{"en"})
	viper.SetDefault("method", "local")
	viper.SetDefault("report_file", DefaultReportFile)
	viper.SetDefault("client_timeout", "30s")
	viper.SetDefault("cache.provider", "memory")
	viper.SetDefault("cache.size", 256)
	viper.SetDefault("cache.ttl", "15m")
	viper.SetDefault("metrics.address", "localhost")
	viper.SetDefault("metrics.port", 9090)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	config.Languages = splitLanguages(config.Languages)

	return &config, nil
}

// ParsedClientTimeout returns the HTTP client timeout as a duration,
// defaulting to 30 seconds when unset.
func (c *Config) ParsedClientTimeout() (time.Duration, error) {
	if c.ClientTimeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(c.ClientTimeout)
}

// splitLanguages accepts both proper lists and a single comma-separated
// entry ("en,es"), which is how SUBTITLE_LANGUAGES arrives from the env.
func splitLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		for _, part := range strings.Split(l, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// SetupLogging parses the configured level and applies it globally.
// Unknown levels fall back to info with a warning.
func SetupLogging(logLevel string) {
	level := zerolog.InfoLevel
	if logLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(logLevel); err == nil {
			level = parsedLevel
		} else {
			l := GetLogger()
			l.Warn().Str("invalid_level", logLevel).Msg("Invalid log level, using default 'info'")
		}
	}
	zerolog.SetGlobalLevel(level)

	loggerMu.Lock()
	logger = logger.Level(level)
	loggerMu.Unlock()
}

func GetLogger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}
