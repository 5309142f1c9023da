package api

import (
	"context"

	"github.com/lysyi3m/rss-seek/app/feed"
	"github.com/lysyi3m/rss-seek/app/magnet"
	"github.com/lysyi3m/rss-seek/app/match"
	"github.com/lysyi3m/rss-seek/app/seedr"
	"github.com/lysyi3m/rss-seek/app/tasks"
)

type MatcherInterface interface {
	Run(ctx context.Context, query string) (*match.Result, error)
}

type LinkExtractorInterface interface {
	Run(ctx context.Context, pageURL string) []magnet.Link
}

type SeedrInterface interface {
	Offload(ctx context.Context, magnet string) (*seedr.Outcome, error)
	Status(ctx context.Context) (*seedr.AccountStatus, error)
	ResolveFolder(ctx context.Context, folderID int) (*seedr.Download, error)
	DeleteFolder(ctx context.Context, folderID int) (*seedr.DeleteResult, error)
}

var (
	_ MatcherInterface       = (*match.Service)(nil)
	_ LinkExtractorInterface = (*magnet.Extractor)(nil)
	_ SeedrInterface         = (*seedr.Service)(nil)
)

// Handler serves the HTTP API. seedr may be nil when no account is configured.
type Handler struct {
	matcher     MatcherInterface
	extractor   LinkExtractorInterface
	seedr       SeedrInterface
	scheduler   tasks.TaskSchedulerInterface
	jobs        *tasks.Jobs
	configCache *feed.ConfigCache
	version     string
}

type SearchRequest struct {
	Query string `json:"query"`
}

type MagnetRequest struct {
	Magnet string `json:"magnet"`
}
