// Package llm fronts the external language-model collaborator. The core
// never calls the model directly: requests go through the assist service,
// which consults the semantic result cache and the episodic store first.
package llm

import "context"

// Provider defines the interface for LLM completion and embedding backends.
type Provider interface {
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
	IsAvailable() bool
}

// CompletionOptions configures LLM completion requests
type CompletionOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Format      string  `json:"format"` // "json" or "text"
}
