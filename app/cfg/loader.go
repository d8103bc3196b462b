package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Source configuration
	SheetURL     string `long:"sheet-url" env:"SHEET_URL" description:"Published CSV export URL of the stories spreadsheet"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Sheet fetch timeout in seconds"`

	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./story-feed.db" description:"Path to the sqlite database file"`

	// Application configuration
	Port             string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl          string `long:"base-url" env:"BASE_URL" description:"Public base URL of the widget (e.g., https://news.example.com)"`
	WorkerCount      int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	RefreshInterval  int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"300" description:"Story refresh interval in seconds"`
	APIAccessKey     string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	PlaceholderImage string `long:"placeholder-image" env:"PLACEHOLDER_IMAGE" default:"https://placehold.co/800x450?text=Story" description:"Image shown when a story has no usable image"`

	// Deep-dive extraction
	ExtractContent     bool `long:"extract-content" env:"EXTRACT_CONTENT" description:"Extract deep-dive text from source pages for stories without one"`
	ExtractMaxLength   int  `long:"extract-max-length" env:"EXTRACT_MAX_LENGTH" default:"4000" description:"Maximum extracted text length in characters"`
	ExtractMaxAttempts int  `long:"extract-max-attempts" env:"EXTRACT_MAX_ATTEMPTS" default:"3" description:"Extraction attempts per source URL before giving up"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Story Feed/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load reads .env (when present), then flags from the command line and the
// environment.
func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return LoadArgs(os.Args[1:])
}

// LoadArgs parses args and the environment. It returns nil, nil when help
// was requested.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", raw.WorkerCount)
	}
	if raw.FetchTimeout < 1 {
		return nil, fmt.Errorf("fetch timeout must be positive, got %d", raw.FetchTimeout)
	}
	if raw.RefreshInterval < 1 {
		return nil, fmt.Errorf("refresh interval must be positive, got %d", raw.RefreshInterval)
	}

	cfg := &Cfg{
		SheetURL:           raw.SheetURL,
		FetchTimeout:       time.Duration(raw.FetchTimeout) * time.Second,
		DBPath:             raw.DBPath,
		Port:               raw.Port,
		BaseUrl:            raw.BaseUrl,
		WorkerCount:        raw.WorkerCount,
		RefreshInterval:    time.Duration(raw.RefreshInterval) * time.Second,
		APIAccessKey:       raw.APIAccessKey,
		PlaceholderImage:   raw.PlaceholderImage,
		ExtractContent:     raw.ExtractContent,
		ExtractMaxLength:   raw.ExtractMaxLength,
		ExtractMaxAttempts: raw.ExtractMaxAttempts,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			slog.Debug("Timezone configured", "timezone", timezone)
		}
	}
	return nil
}
