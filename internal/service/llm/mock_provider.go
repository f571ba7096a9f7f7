package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// MockProvider provides a deterministic implementation for testing and
// development. Completions echo a canned mutation proposal; embeddings are
// bag-of-words vectors so that rewordings of the same request land close
// together.
type MockProvider struct {
	available bool
	dims      int
}

// NewMockProvider creates a new mock LLM provider
func NewMockProvider() *MockProvider {
	return &MockProvider{available: true, dims: 64}
}

// SetAvailable toggles availability (used to exercise degraded paths)
func (m *MockProvider) SetAvailable(available bool) {
	m.available = available
}

// IsAvailable returns whether the mock provider is available
func (m *MockProvider) IsAvailable() bool {
	return m.available
}

// Complete returns a canned empty mutation batch proposal
func (m *MockProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}
	if options.Format == "json" {
		return `{"operations":[]}`, nil
	}
	return "no changes proposed", nil
}

// Embed hashes lowercase tokens into a fixed-size bag-of-words vector
func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if !m.available {
		return nil, fmt.Errorf("mock provider is not available")
	}
	vec := make([]float32, m.dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%uint32(m.dims)]++
	}
	return vec, nil
}
