package services

import (
	"math"
)

// SimilarityAlgorithm defines the algorithm to use
type SimilarityAlgorithm string

const (
	AlgorithmJaccard SimilarityAlgorithm = "jaccard"
	AlgorithmCosine  SimilarityAlgorithm = "cosine"
	AlgorithmHybrid  SimilarityAlgorithm = "hybrid"
)

// SimilarityScorer scores the similarity of two texts in [0, 1]
type SimilarityScorer interface {
	Score(a, b string) float64
}

// LexicalScorer scores similarity over keyword sets
type LexicalScorer struct {
	algorithm SimilarityAlgorithm
	analyzer  TextAnalyzer
}

// NewLexicalScorer creates a scorer; a nil analyzer gets the default one
func NewLexicalScorer(algorithm SimilarityAlgorithm, analyzer TextAnalyzer) *LexicalScorer {
	if analyzer == nil {
		analyzer = NewDefaultTextAnalyzer()
	}
	if algorithm == "" {
		algorithm = AlgorithmHybrid
	}
	return &LexicalScorer{algorithm: algorithm, analyzer: analyzer}
}

// Score compares the keyword sets of two texts
func (s *LexicalScorer) Score(a, b string) float64 {
	setA := toSet(s.analyzer.ExtractKeywords(a))
	setB := toSet(s.analyzer.ExtractKeywords(b))
	return SetSimilarity(setA, setB, s.algorithm)
}

// SetSimilarity scores two word sets with the chosen algorithm
func SetSimilarity(set1, set2 map[string]bool, algorithm SimilarityAlgorithm) float64 {
	if len(set1) == 0 && len(set2) == 0 {
		return 0.0
	}
	switch algorithm {
	case AlgorithmJaccard:
		return jaccardSimilarity(set1, set2)
	case AlgorithmCosine:
		return cosineSetSimilarity(set1, set2)
	case AlgorithmHybrid:
		return (jaccardSimilarity(set1, set2) + cosineSetSimilarity(set1, set2)) / 2.0
	default:
		return jaccardSimilarity(set1, set2)
	}
}

// CosineSimilarity scores two embedding vectors; mismatched or zero-length
// vectors score zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// jaccardSimilarity calculates |A ∩ B| / |A ∪ B|
func jaccardSimilarity(set1, set2 map[string]bool) float64 {
	intersection := 0
	union := make(map[string]bool, len(set1)+len(set2))
	for key := range set1 {
		union[key] = true
		if set2[key] {
			intersection++
		}
	}
	for key := range set2 {
		union[key] = true
	}
	if len(union) == 0 {
		return 0.0
	}
	return float64(intersection) / float64(len(union))
}

// cosineSetSimilarity treats the sets as binary vectors
func cosineSetSimilarity(set1, set2 map[string]bool) float64 {
	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}
	dot := 0
	for key := range set1 {
		if set2[key] {
			dot++
		}
	}
	mag1 := math.Sqrt(float64(len(set1)))
	mag2 := math.Sqrt(float64(len(set2)))
	if mag1 == 0 || mag2 == 0 {
		return 0.0
	}
	return float64(dot) / (mag1 * mag2)
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
