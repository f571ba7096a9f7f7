package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"archgraph-backend/internal/service/episodic"
	"archgraph-backend/internal/service/semcache"
	apperrors "archgraph-backend/pkg/errors"
)

const (
	retrievedEpisodes = 3
	retrievedPatterns = 3
)

// Service fronts the language-model collaborator. Before a request reaches
// the provider it is checked against the semantic result cache and enriched
// with similar prior episodes; after a response is produced the cache is
// updated and the graded outcome is recorded.
type Service struct {
	provider Provider
	cache    *semcache.Cache
	episodes *episodic.Store
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewService creates an assist service around a provider. cache and
// episodes may be nil; the service then degrades to direct provider calls.
func NewService(provider Provider, cache *semcache.Cache, episodes *episodic.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "llm-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &Service{
		provider: provider,
		cache:    cache,
		episodes: episodes,
		breaker:  breaker,
		logger:   logger,
	}
}

// IsAvailable returns true if the underlying provider is usable
func (s *Service) IsAvailable() bool {
	return s.provider != nil && s.provider.IsAvailable()
}

// Propose asks the model for a mutation proposal for the given request.
// version tags the cache entry with the model version the answer was
// computed against; versionSensitive call sites treat entries from another
// version as misses.
func (s *Service) Propose(ctx context.Context, request string, version uint64, versionSensitive bool) (string, error) {
	if s.cache != nil {
		if response, ok := s.cache.Lookup(ctx, request, version, versionSensitive); ok {
			return response, nil
		}
	}
	if !s.IsAvailable() {
		return "", apperrors.NewUnavailable("llm")
	}

	prompt := s.buildPrompt(ctx, request)

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.provider.Complete(ctx, prompt, CompletionOptions{
			Temperature: 0.2,
			MaxTokens:   800,
			Format:      "json",
		})
	})
	if err != nil {
		return "", apperrors.NewExternal("llm", err)
	}
	response := result.(string)

	if s.cache != nil {
		s.cache.Store(ctx, request, response, version)
	}
	return response, nil
}

// ReportOutcome records the graded result of a proposal. successScore is
// computed by the caller from validation results; it is required precisely
// so no call site can fall back to a constant. Recording is best-effort and
// never fails the request.
func (s *Service) ReportOutcome(ctx context.Context, request, outcome, resultShape string, successScore float64) {
	if s.episodes == nil {
		return
	}
	if err := s.episodes.Record(ctx, request, outcome, successScore); err != nil {
		s.logger.Debug("episode record skipped", zap.Error(err))
	}
	if resultShape != "" {
		if err := s.episodes.RecordPattern(ctx, request, resultShape, successScore); err != nil {
			s.logger.Debug("pattern record skipped", zap.Error(err))
		}
	}
}

// buildPrompt enriches the request with similar prior episodes and
// patterns. Retrieval failures degrade to an unenriched prompt.
func (s *Service) buildPrompt(ctx context.Context, request string) string {
	var b strings.Builder
	b.WriteString("You edit a systems-architecture model. ")
	b.WriteString("Respond with a JSON mutation batch for the request below.\n")

	if s.episodes != nil {
		if eps, err := s.episodes.Retrieve(ctx, request, retrievedEpisodes); err == nil && len(eps) > 0 {
			b.WriteString("\nSimilar past requests and their outcomes:\n")
			for _, ep := range eps {
				fmt.Fprintf(&b, "- request: %s | outcome: %s | success: %.2f\n",
					ep.Request, ep.Outcome, ep.SuccessScore)
			}
		} else if err != nil {
			s.logger.Debug("episode retrieval skipped", zap.Error(err))
		}
		if pats, err := s.episodes.RetrievePatterns(ctx, request, retrievedPatterns); err == nil && len(pats) > 0 {
			b.WriteString("\nMutation shapes that worked for similar requests:\n")
			for _, p := range pats {
				fmt.Fprintf(&b, "- shape: %s | success: %.2f\n", p.Shape, p.SuccessScore)
			}
		} else if err != nil {
			s.logger.Debug("pattern retrieval skipped", zap.Error(err))
		}
	}

	b.WriteString("\nRequest: ")
	b.WriteString(request)
	return b.String()
}
