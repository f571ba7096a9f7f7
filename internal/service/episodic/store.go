// Package episodic records outcome-tagged episodes of past requests and
// serves similarity-ranked retrieval to bias future prompts. It is
// best-effort memory: it never blocks or fails a request, and it is
// independent of the version store's consistency guarantees.
package episodic

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"archgraph-backend/domain/services"
	apperrors "archgraph-backend/pkg/errors"
	"archgraph-backend/pkg/observability"
)

// Episode is one recorded (request, outcome) pair. SuccessScore is a graded
// value in [0,1] computed by the caller from validation results or a reward
// signal, never a constant; downstream consumers apply their own threshold.
type Episode struct {
	ID           string    `json:"id"`
	Request      string    `json:"request"`
	Outcome      string    `json:"outcome"`
	SuccessScore float64   `json:"successScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Pattern generalizes an episode to the structural shape of its result so
// that similar-but-differently-worded requests still match.
type Pattern struct {
	ID           string    `json:"id"`
	Request      string    `json:"request"`
	Shape        string    `json:"shape"`
	SuccessScore float64   `json:"successScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Config tunes the store
type Config struct {
	// MaxEpisodes bounds the table; the oldest rows are pruned beyond it
	MaxEpisodes int
	// ScanLimit bounds how many recent rows a retrieval ranks
	ScanLimit int
}

// DefaultConfig returns the default store tuning
func DefaultConfig() Config {
	return Config{MaxEpisodes: 2048, ScanLimit: 256}
}

// Store persists episodes in SQLite and ranks retrievals lexically.
type Store struct {
	db        *sql.DB
	config    Config
	scorer    services.SimilarityScorer
	collector *observability.Collector
	logger    *zap.Logger
}

// Open creates or opens the episode database at path. scorer and collector
// may be nil.
func Open(path string, config Config, scorer services.SimilarityScorer, collector *observability.Collector, logger *zap.Logger) (*Store, error) {
	if config.MaxEpisodes <= 0 {
		config.MaxEpisodes = DefaultConfig().MaxEpisodes
	}
	if config.ScanLimit <= 0 {
		config.ScanLimit = DefaultConfig().ScanLimit
	}
	if scorer == nil {
		scorer = services.NewLexicalScorer(services.AlgorithmHybrid, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewDatabase("open episode store", err)
	}
	store := &Store{db: db, config: config, scorer: scorer, collector: collector, logger: logger}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores an episode. The score is clamped into [0,1]. Failures are
// surfaced to the caller, which must treat them as "no record" and proceed.
func (s *Store) Record(ctx context.Context, request, outcome string, successScore float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO episodes (id, request, outcome, success_score, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), request, outcome, clamp(successScore), time.Now().UnixNano(),
	)
	if err != nil {
		return apperrors.NewDatabase("record episode", err)
	}
	if s.collector != nil {
		s.collector.EpisodesRecorded.Inc()
	}
	s.prune(ctx, "episodes")
	return nil
}

// Retrieve returns the top-k prior episodes ranked by similarity to the
// request. Pure read; no mutation.
func (s *Store) Retrieve(ctx context.Context, request string, k int) ([]Episode, error) {
	if k <= 0 {
		return nil, nil
	}
	if s.collector != nil {
		start := time.Now()
		defer func() {
			s.collector.RetrievalDuration.Observe(time.Since(start).Seconds())
		}()
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request, outcome, success_score, created_at
		 FROM episodes ORDER BY created_at DESC LIMIT ?`, s.config.ScanLimit)
	if err != nil {
		return nil, apperrors.NewDatabase("retrieve episodes", err)
	}
	defer rows.Close()

	type scored struct {
		episode Episode
		score   float64
	}
	var candidates []scored
	for rows.Next() {
		var ep Episode
		var createdAt int64
		if err := rows.Scan(&ep.ID, &ep.Request, &ep.Outcome, &ep.SuccessScore, &createdAt); err != nil {
			return nil, apperrors.NewDatabase("scan episode", err)
		}
		ep.CreatedAt = time.Unix(0, createdAt)
		score := s.scorer.Score(request, ep.Request)
		if score > 0 {
			candidates = append(candidates, scored{episode: ep, score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabase("iterate episodes", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]Episode, len(candidates))
	for i, c := range candidates {
		out[i] = c.episode
	}
	return out, nil
}

// RecordPattern stores an episode generalized to the structural shape of
// its result
func (s *Store) RecordPattern(ctx context.Context, request, resultShape string, successScore float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patterns (id, request, shape, success_score, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), request, resultShape, clamp(successScore), time.Now().UnixNano(),
	)
	if err != nil {
		return apperrors.NewDatabase("record pattern", err)
	}
	if s.collector != nil {
		s.collector.PatternsRecorded.Inc()
	}
	s.prune(ctx, "patterns")
	return nil
}

// RetrievePatterns returns the top-k patterns ranked by request similarity,
// at most one per distinct shape so that k shapes come back rather than k
// rewordings of the same one.
func (s *Store) RetrievePatterns(ctx context.Context, request string, k int) ([]Pattern, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request, shape, success_score, created_at
		 FROM patterns ORDER BY created_at DESC LIMIT ?`, s.config.ScanLimit)
	if err != nil {
		return nil, apperrors.NewDatabase("retrieve patterns", err)
	}
	defer rows.Close()

	type scored struct {
		pattern Pattern
		score   float64
	}
	var candidates []scored
	for rows.Next() {
		var p Pattern
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Request, &p.Shape, &p.SuccessScore, &createdAt); err != nil {
			return nil, apperrors.NewDatabase("scan pattern", err)
		}
		p.CreatedAt = time.Unix(0, createdAt)
		score := s.scorer.Score(request, p.Request)
		if score > 0 {
			candidates = append(candidates, scored{pattern: p, score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabase("iterate patterns", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	seen := make(map[string]bool)
	var out []Pattern
	for _, c := range candidates {
		if seen[c.pattern.Shape] {
			continue
		}
		seen[c.pattern.Shape] = true
		out = append(out, c.pattern)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// Count returns the number of stored episodes
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM episodes`).Scan(&n); err != nil {
		return 0, apperrors.NewDatabase("count episodes", err)
	}
	return n, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS episodes (
		id            TEXT PRIMARY KEY,
		request       TEXT NOT NULL,
		outcome       TEXT NOT NULL,
		success_score REAL NOT NULL,
		created_at    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_episodes_created_at ON episodes(created_at);
	CREATE TABLE IF NOT EXISTS patterns (
		id            TEXT PRIMARY KEY,
		request       TEXT NOT NULL,
		shape         TEXT NOT NULL,
		success_score REAL NOT NULL,
		created_at    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_patterns_created_at ON patterns(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return apperrors.NewDatabase("init episode schema", err)
	}
	return nil
}

// prune keeps the table bounded. Failures are logged and swallowed; pruning
// is housekeeping, not correctness.
func (s *Store) prune(ctx context.Context, table string) {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE id NOT IN (
			SELECT id FROM `+table+` ORDER BY created_at DESC LIMIT ?
		)`, s.config.MaxEpisodes)
	if err != nil {
		s.logger.Debug("prune failed", zap.String("table", table), zap.Error(err))
	}
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
