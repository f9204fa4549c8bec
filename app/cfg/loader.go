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
	// iNews server configuration
	INewsHost     string `long:"inews-host" env:"INEWS_HOST" description:"iNews FTP server host (required)" required:"true"`
	INewsUser     string `long:"inews-user" env:"INEWS_USER" description:"iNews FTP user (required)" required:"true"`
	INewsPassword string `long:"inews-password" env:"INEWS_PASSWORD" description:"iNews FTP password (required)" required:"true"`

	// Application configuration
	RundownsDir  string `long:"rundowns-dir" env:"RUNDOWNS_DIR" default:"./rundowns" description:"Directory containing rundown configuration files"`
	DownloadPath string `long:"download-path" env:"DOWNLOAD_PATH" default:"./downloads" description:"Base directory for downloaded assets, state file and index"`
	DBPath       string `long:"db-path" env:"DB_PATH" default:"./rundown_sync.db" description:"SQLite database path for change history"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	TickInterval int    `long:"tick-interval" env:"TICK_INTERVAL" default:"1" description:"Monitor loop tick interval in seconds"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Asset fetcher configuration
	TwitterBearerToken string `long:"twitter-bearer-token" env:"TWITTER_BEARER_TOKEN" description:"Bearer token for the Twitter API (asset fetcher)"`
	UserAgent          string `long:"user-agent" env:"USER_AGENT" default:"Rundown Sync/1.0" description:"User agent string for HTTP requests"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Madrid)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		INewsHost:          raw.INewsHost,
		INewsUser:          raw.INewsUser,
		INewsPassword:      raw.INewsPassword,
		RundownsDir:        raw.RundownsDir,
		DownloadPath:       raw.DownloadPath,
		DBPath:             raw.DBPath,
		Port:               raw.Port,
		TickInterval:       raw.TickInterval,
		APIAccessKey:       raw.APIAccessKey,
		TwitterBearerToken: raw.TwitterBearerToken,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
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
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
