package episodic

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph-backend/pkg/observability"
)

func openTestStore(t *testing.T, config Config) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "episodes.db"), config, nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndRetrieve(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "add a function named alpha", "applied cleanly", 1.0))
	require.NoError(t, store.Record(ctx, "delete the actor pilot", "rejected, dangling edge", 0.0))
	require.NoError(t, store.Record(ctx, "add a function named beta", "applied after retry", 0.6))

	episodes, err := store.Retrieve(ctx, "add a function named gamma", 2)
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	// both function-adding episodes outrank the actor one
	for _, ep := range episodes {
		assert.Contains(t, ep.Request, "function")
	}
}

func TestStore_ScoreClamped(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "request over range", "outcome", 4.2))
	require.NoError(t, store.Record(ctx, "request under range", "outcome", -1.0))

	episodes, err := store.Retrieve(ctx, "request range", 10)
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	for _, ep := range episodes {
		assert.GreaterOrEqual(t, ep.SuccessScore, 0.0)
		assert.LessOrEqual(t, ep.SuccessScore, 1.0)
	}
}

func TestStore_GradedScoresSurvive(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "partially useful proposal", "needed manual repair", 0.4))

	episodes, err := store.Retrieve(ctx, "partially useful proposal", 1)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.InDelta(t, 0.4, episodes[0].SuccessScore, 1e-9)
}

func TestStore_RetrieveUnrelatedReturnsNothing(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "add a function named alpha", "ok", 1.0))

	episodes, err := store.Retrieve(ctx, "zzz qqq xxx", 5)
	require.NoError(t, err)
	assert.Empty(t, episodes)
}

func TestStore_PruneKeepsNewest(t *testing.T) {
	store := openTestStore(t, Config{MaxEpisodes: 3, ScanLimit: 16})
	ctx := context.Background()

	for _, req := range []string{
		"first shared marker request",
		"second shared marker request",
		"third shared marker request",
		"fourth shared marker request",
		"fifth shared marker request",
	} {
		require.NoError(t, store.Record(ctx, req, "ok", 1.0))
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	episodes, err := store.Retrieve(ctx, "shared marker request", 10)
	require.NoError(t, err)
	requests := make([]string, 0, len(episodes))
	for _, ep := range episodes {
		requests = append(requests, ep.Request)
	}
	assert.NotContains(t, requests, "first shared marker request")
	assert.NotContains(t, requests, "second shared marker request")
}

func TestStore_PatternsDedupedByShape(t *testing.T) {
	store := openTestStore(t, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, store.RecordPattern(ctx, "add function alpha", "addNode:function", 1.0))
	require.NoError(t, store.RecordPattern(ctx, "add function beta", "addNode:function", 0.9))
	require.NoError(t, store.RecordPattern(ctx, "add function gamma and wire it", "addNode:function,addEdge:io", 0.8))

	patterns, err := store.RetrievePatterns(ctx, "add function delta", 5)
	require.NoError(t, err)
	require.Len(t, patterns, 2, "one pattern per distinct shape")

	shapes := map[string]bool{}
	for _, p := range patterns {
		shapes[p.Shape] = true
	}
	assert.True(t, shapes["addNode:function"])
	assert.True(t, shapes["addNode:function,addEdge:io"])
}

func TestStore_FeedsCollector(t *testing.T) {
	collector := observability.NewCollector("archgraph")
	episodes := testutil.ToFloat64(collector.EpisodesRecorded)
	patterns := testutil.ToFloat64(collector.PatternsRecorded)

	store, err := Open(filepath.Join(t.TempDir(), "episodes.db"), DefaultConfig(), nil, collector, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "add a function", "applied cleanly", 0.9))
	require.NoError(t, store.RecordPattern(ctx, "add a function", "addNode:function", 0.9))

	assert.Equal(t, episodes+1, testutil.ToFloat64(collector.EpisodesRecorded))
	assert.Equal(t, patterns+1, testutil.ToFloat64(collector.PatternsRecorded))
}
