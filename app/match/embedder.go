package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-seek/app/metrics"
)

// ErrEmbedding marks failures of the embedding provider.
var ErrEmbedding = errors.New("embedding provider error")

// Embedder maps texts to fixed-length vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// InstrumentedEmbedder records request metrics and debug logs around another Embedder.
type InstrumentedEmbedder struct {
	inner    Embedder
	provider string
}

func NewInstrumentedEmbedder(inner Embedder, provider string) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{inner: inner, provider: provider}
}

func (e *InstrumentedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()

	vectors, err := e.inner.Embed(ctx, texts)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, "error").Inc()
		slog.Error("Embedding request failed", "provider", e.provider, "texts", len(texts), "duration", duration, "error", err)
		return nil, err
	}

	if len(vectors) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, "error").Inc()
		return nil, fmt.Errorf("expected %d embeddings, got %d: %w", len(texts), len(vectors), ErrEmbedding)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider).Observe(duration.Seconds())

	slog.Debug("Embedding request completed", "provider", e.provider, "texts", len(texts), "duration", duration)

	return vectors, nil
}
