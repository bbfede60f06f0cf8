package exercise

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/taanya/pylearn/internal/embedding"
)

// ErrNoCandidate indicates no template matches the requested
// (topic, difficulty) pair. Treated like backend unavailability by
// callers: fall back, don't fail.
var ErrNoCandidate = errors.New("no template matches topic and difficulty")

// Match is the result of a successful similarity search.
type Match struct {
	Template   Template
	Example    Example
	Key        string
	Similarity float64
}

// Matcher finds the best-matching template example for a query by cosine
// similarity against the template embedding index. The index must have
// been produced by the same provider model the matcher encodes with.
type Matcher struct {
	library  *Library
	index    *embedding.Index
	provider embedding.Provider
}

// NewMatcher creates a matcher over a library and its embedding index.
func NewMatcher(library *Library, index *embedding.Index, provider embedding.Provider) *Matcher {
	return &Matcher{library: library, index: index, provider: provider}
}

// IndexLen returns the number of indexed template keys.
func (m *Matcher) IndexLen() int {
	return m.index.Len()
}

// Match encodes the query built from topic, difficulty, and optional
// context, then returns the candidate with the highest cosine similarity
// among examples whose template matches topic and difficulty
// case-insensitively. Ties break to the first-enumerated example.
// Returns ErrNoCandidate if no template covers the pair.
func (m *Matcher) Match(ctx context.Context, topic, difficulty, contextText string) (*Match, error) {
	candidates := m.candidates(topic, difficulty)
	if len(candidates) == 0 {
		return nil, ErrNoCandidate
	}

	query := topic + " " + difficulty
	if contextText != "" {
		query += " " + contextText
	}

	queryVec, err := m.provider.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	best := -1
	bestSim := math.Inf(-1)
	for i, c := range candidates {
		vec, ok := m.index.Get(c.Key)
		if !ok {
			// Stale cache omits this example; skip rather than fail.
			continue
		}
		sim := cosineSimilarity(queryVec, vec)
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}
	if best < 0 {
		return nil, ErrNoCandidate
	}

	result := candidates[best]
	result.Similarity = bestSim
	return &result, nil
}

// candidates returns all (template, example) pairs matching topic and
// difficulty case-insensitively, in enumeration order.
func (m *Matcher) candidates(topic, difficulty string) []Match {
	var out []Match
	for _, t := range m.library.Templates() {
		if !strings.EqualFold(t.Topic, topic) || !strings.EqualFold(t.Difficulty, difficulty) {
			continue
		}
		for _, e := range t.Examples {
			out = append(out, Match{
				Template: t,
				Example:  e,
				Key:      t.Key(e),
			})
		}
	}
	return out
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
