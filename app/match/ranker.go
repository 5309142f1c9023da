package match

import (
	"fmt"

	"github.com/hupe1980/vecgo/distance"
)

// MinScore is the confidence floor below which no match is reported.
const MinScore = 0.10

// Cosine returns the cosine similarity of a and b. Zero vectors score 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensions differ: %d vs %d", len(a), len(b))
	}

	na, ok := distance.NormalizeL2Copy(a)
	if !ok {
		return 0, nil
	}
	nb, ok := distance.NormalizeL2Copy(b)
	if !ok {
		return 0, nil
	}

	sim := float64(distance.Dot(na, nb))
	// Float rounding can push normalized dot products slightly past ±1.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// Rank scores every item vector against the query and returns the index and
// score of the best one. Ties keep the earliest index.
func Rank(query []float32, items [][]float32) (int, float64, []float64, error) {
	if len(items) == 0 {
		return -1, 0, nil, ErrNoItems
	}

	scores := make([]float64, len(items))
	best := 0
	for i, vec := range items {
		score, err := Cosine(query, vec)
		if err != nil {
			return -1, 0, nil, fmt.Errorf("item %d: %w", i, err)
		}
		scores[i] = score
		if score > scores[best] {
			best = i
		}
	}

	return best, scores[best], scores, nil
}
