package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/rss-seek/app/feed"
)

var (
	ErrEmptyQuery  = errors.New("no query provided")
	ErrNoItems     = errors.New("no movies in feed")
	ErrNoGoodMatch = errors.New("no good matches found for your query")
)

// ItemSource supplies the feed items to match against.
type ItemSource interface {
	Run(ctx context.Context) ([]feed.Item, error)
}

// Result is the best-scoring feed item for a query.
type Result struct {
	Item  feed.Item
	Index int
	Score float64 // cosine similarity in [-1, 1]
}

type Service struct {
	source   ItemSource
	embedder Embedder
}

func NewService(source ItemSource, embedder Embedder) *Service {
	return &Service{source: source, embedder: embedder}
}

// Run fetches the current feed items and returns the one closest to query.
func (s *Service) Run(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	items, err := s.source.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed items: %w", err)
	}

	return s.Best(ctx, query, items)
}

// Best picks the closest item among items without fetching anything.
func (s *Service) Best(ctx context.Context, query string, items []feed.Item) (*Result, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	texts := make([]string, 0, len(items)+1)
	texts = append(texts, query)
	for _, item := range items {
		texts = append(texts, item.Text())
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed texts: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d: %w", len(texts), len(vectors), ErrEmbedding)
	}

	idx, score, _, err := Rank(vectors[0], vectors[1:])
	if err != nil {
		return nil, fmt.Errorf("failed to rank items: %w", err)
	}

	slog.Debug("Best feed match", "query", query, "title", items[idx].Title, "score", score, "candidates", len(items))

	if score < MinScore {
		return nil, ErrNoGoodMatch
	}

	return &Result{Item: items[idx], Index: idx, Score: score}, nil
}
