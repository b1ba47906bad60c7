package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath   string `long:"db-path" env:"DB_PATH" default:"./data/feeds.db" description:"SQLite database file"`
	FeedsDir string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed subscription files"`

	// HTTP adapter
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Ingestion
	WorkerCount        int  `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for feed refreshes"`
	RefreshInterval    int  `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"1800" description:"Seconds between scheduled refresh passes"`
	RefreshConcurrency int  `long:"refresh-concurrency" env:"REFRESH_CONCURRENCY" default:"1" description:"Feeds refreshed in parallel by a refresh-all run"`
	FetchTimeout       int  `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"HTTP timeout in seconds for feed and icon downloads"`
	HostRateInterval   int  `long:"host-rate-interval" env:"HOST_RATE_INTERVAL" default:"0" description:"Minimum milliseconds between requests to one host (0 disables)"`
	IconDiscovery      bool `long:"icon-discovery" env:"ICON_DISCOVERY" description:"Look for <link rel=icon> on the site homepage before /favicon.ico"`
	SanitizeContent    bool `long:"sanitize-content" env:"SANITIZE_CONTENT" description:"Run article bodies through an HTML sanitizer policy"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Feed Reader/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses the process arguments and environment. It returns (nil, nil)
// when help was requested.
func Load() (*Cfg, error) {
	cfg, err := LoadArgs(nil)
	if err != nil || cfg == nil {
		return cfg, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

// LoadArgs parses the given arguments instead of os.Args. A nil slice means
// os.Args[1:].
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
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
	if raw.RefreshConcurrency < 1 {
		return nil, fmt.Errorf("refresh concurrency must be positive, got %d", raw.RefreshConcurrency)
	}

	return &Cfg{
		DBPath:             raw.DBPath,
		FeedsDir:           raw.FeedsDir,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		WorkerCount:        raw.WorkerCount,
		RefreshInterval:    raw.RefreshInterval,
		RefreshConcurrency: raw.RefreshConcurrency,
		FetchTimeout:       raw.FetchTimeout,
		HostRateInterval:   raw.HostRateInterval,
		IconDiscovery:      raw.IconDiscovery,
		SanitizeContent:    raw.SanitizeContent,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}, nil
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
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
