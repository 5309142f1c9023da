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
	// Application configuration
	FeedsDir    string   `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed source files (*.yml)"`
	FeedURLs    []string `long:"feed-url" env:"FEED_URLS" env-delim:"," description:"Additional feed URL (repeatable)"`
	Port        string   `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl     string   `long:"base-url" env:"BASE_URL" description:"Public base URL for the service"`
	WorkerCount int      `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for offload jobs"`

	// Embedding provider
	EmbeddingProvider   string `long:"embedding-provider" env:"EMBEDDING_PROVIDER" default:"hashing" choice:"hashing" choice:"openai" description:"Text embedding provider"`
	EmbeddingModel      string `long:"embedding-model" env:"EMBEDDING_MODEL" default:"text-embedding-3-small" description:"Embedding model name (openai provider)"`
	EmbeddingBaseURL    string `long:"embedding-base-url" env:"EMBEDDING_BASE_URL" default:"https://api.openai.com/v1" description:"OpenAI-compatible API base URL"`
	EmbeddingAPIKey     string `long:"embedding-api-key" env:"EMBEDDING_API_KEY" description:"API key for the embedding provider"`
	EmbeddingDimensions int    `long:"embedding-dimensions" env:"EMBEDDING_DIMENSIONS" default:"0" description:"Requested embedding dimensions (0 = model default)"`

	// Seedr account
	SeedrEmail        string `long:"seedr-email" env:"SEEDR_EMAIL" description:"Seedr account login"`
	SeedrPassword     string `long:"seedr-password" env:"SEEDR_PASSWORD" description:"Seedr account password"`
	SeedrBaseURL      string `long:"seedr-base-url" env:"SEEDR_BASE_URL" default:"https://www.seedr.cc" description:"Seedr API base URL"`
	SeedrTimeout      int    `long:"seedr-timeout" env:"SEEDR_TIMEOUT" default:"20" description:"Timeout for a single Seedr call in seconds"`
	SeedrSettleDelay  int    `long:"seedr-settle-delay" env:"SEEDR_SETTLE_DELAY" default:"5" description:"Seconds to wait after submitting a magnet"`
	SeedrPollAttempts int    `long:"seedr-poll-attempts" env:"SEEDR_POLL_ATTEMPTS" default:"60" description:"Number of folder polls before falling back to a full scan"`
	SeedrPollInterval int    `long:"seedr-poll-interval" env:"SEEDR_POLL_INTERVAL" default:"1" description:"Seconds between folder polls"`

	// Outbound fetches
	FetchTimeout int `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Timeout for feed and page fetches in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Seek/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogFile   string `long:"log-file" env:"LOG_FILE" description:"Also write JSON logs to this file"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
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

	cfg := &Cfg{
		FeedsDir:            raw.FeedsDir,
		FeedURLs:            raw.FeedURLs,
		Port:                raw.Port,
		BaseUrl:             raw.BaseUrl,
		WorkerCount:         raw.WorkerCount,
		EmbeddingProvider:   raw.EmbeddingProvider,
		EmbeddingModel:      raw.EmbeddingModel,
		EmbeddingBaseURL:    raw.EmbeddingBaseURL,
		EmbeddingAPIKey:     raw.EmbeddingAPIKey,
		EmbeddingDimensions: raw.EmbeddingDimensions,
		Seedr: AccountCredentials{
			Email:    raw.SeedrEmail,
			Password: raw.SeedrPassword,
		},
		SeedrBaseURL:      raw.SeedrBaseURL,
		SeedrTimeout:      seconds(raw.SeedrTimeout, 20),
		SeedrSettleDelay:  seconds(raw.SeedrSettleDelay, 0),
		SeedrPollAttempts: raw.SeedrPollAttempts,
		SeedrPollInterval: seconds(raw.SeedrPollInterval, 1),
		FetchTimeout:      seconds(raw.FetchTimeout, 10),
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		LogFile:           raw.LogFile,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
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

func (c *Cfg) validate() error {
	if c.EmbeddingProvider == "openai" && c.EmbeddingAPIKey == "" {
		return fmt.Errorf("embedding API key is required for the openai provider")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive")
	}
	if c.SeedrPollAttempts < 0 {
		return fmt.Errorf("seedr poll attempts must be non-negative")
	}
	return nil
}

// SeedrConfigured reports whether account credentials were supplied.
func (c *Cfg) SeedrConfigured() bool {
	return c.Seedr.Email != "" && c.Seedr.Password != ""
}

// seconds converts a non-negative seconds value, falling back to def for negatives.
func seconds(v, def int) time.Duration {
	if v < 0 {
		v = def
	}
	return time.Duration(v) * time.Second
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
