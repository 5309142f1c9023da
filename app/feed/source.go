package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Source fetches every enabled feed and returns their items in source order.
type Source struct {
	configCache *ConfigCache
	httpClient  *http.Client
	parser      *Parser
	userAgent   string
}

func NewSource(configCache *ConfigCache, httpClient *http.Client, parser *Parser, userAgent string) *Source {
	return &Source{
		configCache: configCache,
		httpClient:  httpClient,
		parser:      parser,
		userAgent:   userAgent,
	}
}

// Run fetches all enabled sources concurrently. A failing source is logged
// and contributes no items; Run itself only fails on context cancellation.
func (s *Source) Run(ctx context.Context) ([]Item, error) {
	configs := s.configCache.GetEnabledConfigs()
	results := make([][]Item, len(configs))

	g, gctx := errgroup.WithContext(ctx)
	for i, feedConfig := range configs {
		g.Go(func() error {
			items, err := s.fetchSource(gctx, feedConfig)
			if err != nil {
				slog.Warn("Feed source failed, skipping", "feed", feedConfig.Name, "url", feedConfig.URL, "error", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []Item
	for _, r := range results {
		items = append(items, r...)
	}

	slog.Debug("Feed items collected", "sources", len(configs), "items", len(items))

	return items, nil
}

func (s *Source) fetchSource(ctx context.Context, feedConfig *Config) ([]Item, error) {
	data, err := s.fetchFeed(ctx, feedConfig)
	if err != nil {
		return nil, err
	}

	items, err := s.parser.Run(data)
	if err != nil {
		return nil, err
	}

	if limit := feedConfig.Settings.MaxItems; limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	for i := range items {
		items[i].Source = feedConfig.Name
	}

	return items, nil
}

func (s *Source) fetchFeed(ctx context.Context, feedConfig *Config) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(feedConfig.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", feedConfig.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
