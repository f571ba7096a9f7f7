package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexicalScorer_Score(t *testing.T) {
	scorer := NewLexicalScorer(AlgorithmHybrid, nil)

	t.Run("identical keyword sets score 1", func(t *testing.T) {
		score := scorer.Score("add function alpha", "add function alpha")
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("overlapping requests score between 0 and 1", func(t *testing.T) {
		score := scorer.Score("add a function named alpha", "add a function named beta")
		assert.Greater(t, score, 0.0)
		assert.Less(t, score, 1.0)
	})

	t.Run("disjoint requests score 0", func(t *testing.T) {
		score := scorer.Score("add function alpha", "remove edge verify")
		assert.Equal(t, 0.0, score)
	})

	t.Run("stopwords do not contribute", func(t *testing.T) {
		withStops := scorer.Score("please add the function named alpha", "add function alpha")
		assert.InDelta(t, 1.0, withStops, 1e-9)
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{1, 2, 3}
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("mismatched lengths score 0", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	})

	t.Run("zero vector scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
	})
}

func TestDefaultTextAnalyzer_ExtractKeywords(t *testing.T) {
	analyzer := NewDefaultTextAnalyzer()

	keywords := analyzer.ExtractKeywords("Please add the function named ComputeThrust")
	assert.Contains(t, keywords, "add")
	assert.Contains(t, keywords, "function")
	assert.Contains(t, keywords, "computethrust")
	assert.NotContains(t, keywords, "please")
	assert.NotContains(t, keywords, "the")
	assert.NotContains(t, keywords, "named")
}
