// Package semcache caches expensive external-lookup results keyed by a
// normalized request fingerprint, with embedding-similarity lookup as a
// fallback to exact match and invalidation tied to the model version.
package semcache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"archgraph-backend/domain/services"
	"archgraph-backend/pkg/observability"
)

// Embedder produces an embedding vector for a text. The language-model
// provider implements it; lookups degrade to exact-match-only when no
// embedder is configured or a call fails.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config tunes the cache
type Config struct {
	// Capacity bounds the number of entries; eviction is least-recently-used
	Capacity int
	// SimilarityThreshold is the minimum cosine similarity for a fallback hit
	SimilarityThreshold float64
	// RecentScanLimit bounds how many recent entries a similarity scan visits
	RecentScanLimit int
}

// DefaultConfig returns the default cache tuning
func DefaultConfig() Config {
	return Config{
		Capacity:            512,
		SimilarityThreshold: 0.85,
		RecentScanLimit:     128,
	}
}

type entry struct {
	key       string
	request   string // normalized form
	embedding []float32
	response  string
	version   uint64
	storedAt  time.Time
}

// Stats holds cache counters
type Stats struct {
	Hits           int64
	SimilarityHits int64
	Misses         int64
	Evictions      int64
}

// Cache is a bounded LRU of prior lookup results. A lookup never fails:
// every error path degrades to a miss, which is the expected default
// outcome, not an error.
type Cache struct {
	mu        sync.Mutex
	config    Config
	embedder  Embedder
	entries   map[string]*list.Element
	lru       *list.List // front is most recently used
	stats     Stats
	collector *observability.Collector
	logger    *zap.Logger
}

// New creates a cache; embedder and collector may be nil
func New(config Config, embedder Embedder, collector *observability.Collector, logger *zap.Logger) *Cache {
	if config.Capacity <= 0 {
		config.Capacity = DefaultConfig().Capacity
	}
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}
	if config.RecentScanLimit <= 0 {
		config.RecentScanLimit = DefaultConfig().RecentScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		config:    config,
		embedder:  embedder,
		entries:   make(map[string]*list.Element),
		lru:       list.New(),
		collector: collector,
		logger:    logger,
	}
}

// Normalize canonicalizes request text: case fold and whitespace collapse
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Key fingerprints a request for exact-match lookup
func Key(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// Lookup finds a cached response for a request judged equivalent to a prior
// one. versionSensitive call sites (structural questions about the current
// graph) treat entries from another model version as misses;
// version-independent call sites (generic phrasing help) accept any version.
// The distinction is explicit per call site, never inferred.
func (c *Cache) Lookup(ctx context.Context, request string, version uint64, versionSensitive bool) (string, bool) {
	normalized := Normalize(request)
	key := Key(request)

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		ent := elem.Value.(*entry)
		if !versionSensitive || ent.version == version {
			c.lru.MoveToFront(elem)
			c.stats.Hits++
			response := ent.response
			c.mu.Unlock()
			if c.collector != nil {
				c.collector.CacheHits.WithLabelValues("exact").Inc()
			}
			return response, true
		}
	}
	c.mu.Unlock()

	if response, ok := c.lookupSimilar(ctx, normalized, version, versionSensitive); ok {
		return response, true
	}

	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
	if c.collector != nil {
		c.collector.CacheMisses.Inc()
	}
	return "", false
}

// Store records a response for a request, tagged with the model version at
// creation time
func (c *Cache) Store(ctx context.Context, request, response string, version uint64) {
	normalized := Normalize(request)
	key := Key(request)
	embedding := c.embed(ctx, normalized)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		ent := elem.Value.(*entry)
		ent.response = response
		ent.version = version
		ent.embedding = embedding
		ent.storedAt = time.Now()
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(&entry{
		key:       key,
		request:   normalized,
		embedding: embedding,
		response:  response,
		version:   version,
		storedAt:  time.Now(),
	})
	c.entries[key] = elem

	for c.lru.Len() > c.config.Capacity {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*entry)
		c.lru.Remove(oldest)
		delete(c.entries, evicted.key)
		c.stats.Evictions++
		if c.collector != nil {
			c.collector.CacheEvictions.Inc()
		}
	}
}

// Tune adjusts the similarity threshold and recent-scan limit at runtime.
// Non-positive values keep the current setting. Capacity is fixed at
// construction; shrinking a live LRU under load is not worth the churn.
func (c *Cache) Tune(similarityThreshold float64, recentScanLimit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if similarityThreshold > 0 && similarityThreshold <= 1 {
		c.config.SimilarityThreshold = similarityThreshold
	}
	if recentScanLimit > 0 {
		c.config.RecentScanLimit = recentScanLimit
	}
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns a copy of the cache counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// lookupSimilar scans a bounded set of recent entries for an embedding
// above the similarity threshold. Ties break most-recent-first, which the
// front-to-back scan order gives for free.
func (c *Cache) lookupSimilar(ctx context.Context, normalized string, version uint64, versionSensitive bool) (string, bool) {
	queryEmbedding := c.embed(ctx, normalized)
	if queryEmbedding == nil {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var best *list.Element
	bestScore := 0.0
	scanned := 0
	for elem := c.lru.Front(); elem != nil && scanned < c.config.RecentScanLimit; elem = elem.Next() {
		scanned++
		ent := elem.Value.(*entry)
		if ent.embedding == nil {
			continue
		}
		if versionSensitive && ent.version != version {
			continue
		}
		score := services.CosineSimilarity(queryEmbedding, ent.embedding)
		if score >= c.config.SimilarityThreshold && score > bestScore {
			best = elem
			bestScore = score
		}
	}

	if best == nil {
		return "", false
	}
	ent := best.Value.(*entry)
	c.lru.MoveToFront(best)
	c.stats.SimilarityHits++
	if c.collector != nil {
		c.collector.CacheHits.WithLabelValues("similar").Inc()
	}
	c.logger.Debug("similarity cache hit",
		zap.Float64("score", bestScore),
		zap.Uint64("entryVersion", ent.version),
	)
	return ent.response, true
}

// embed is best-effort: any failure returns nil and the caller degrades to
// exact-match behavior.
func (c *Cache) embed(ctx context.Context, text string) []float32 {
	if c.embedder == nil {
		return nil
	}
	embedding, err := c.embedder.Embed(ctx, text)
	if err != nil {
		c.logger.Debug("embedding failed, degrading to exact match", zap.Error(err))
		return nil
	}
	return embedding
}
