package match

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const DefaultHashingDimensions = 512

// HashingEmbedder is an offline bag-of-words embedder using the hashing
// trick. Tokens are NFKC-normalized and case folded before hashing.
type HashingEmbedder struct {
	dimensions int
}

func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashingDimensions
	}
	return &HashingEmbedder{dimensions: dimensions}
}

func (e *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.vectorize(text)
	}
	return vectors, nil
}

func (e *HashingEmbedder) vectorize(text string) []float32 {
	vec := make([]float32, e.dimensions)
	for _, token := range e.tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()

		// Top bit picks the sign so collisions tend to cancel out.
		idx := int(sum % uint32(e.dimensions))
		if sum&(1<<31) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	return vec
}

func (e *HashingEmbedder) tokenize(text string) []string {
	// Casers carry state, so each call gets its own.
	normalized := cases.Fold().String(norm.NFKC.String(text))
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
