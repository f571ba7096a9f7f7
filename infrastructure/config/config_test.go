package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "memory", cfg.ColdStore)
	assert.Equal(t, "default", cfg.ModelID)
	assert.Equal(t, 512, cfg.CacheCapacity)
	assert.InDelta(t, 0.85, cfg.SimilarityThreshold, 1e-9)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("COLD_STORE", "dynamodb")
	t.Setenv("SNAPSHOT_TABLE", "snapshots")
	t.Setenv("CACHE_CAPACITY", "64")
	t.Setenv("SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("ENABLE_TRACING", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "dynamodb", cfg.ColdStore)
	assert.Equal(t, 64, cfg.CacheCapacity)
	assert.InDelta(t, 0.9, cfg.SimilarityThreshold, 1e-9)
	assert.True(t, cfg.EnableTracing)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("unknown cold store", func(t *testing.T) {
		t.Setenv("COLD_STORE", "tape")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("dynamodb without table", func(t *testing.T) {
		t.Setenv("COLD_STORE", "dynamodb")
		t.Setenv("SNAPSHOT_TABLE", "")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		t.Setenv("SIMILARITY_THRESHOLD", "1.5")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestDynamicConfig_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tunables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("similarityThreshold: 0.8\n"), 0o644))

	dc, err := NewDynamicConfig(path, Tunables{SimilarityThreshold: 0.85, CacheCapacity: 512}, zap.NewNop())
	require.NoError(t, err)
	defer dc.Close()

	current := dc.Current()
	assert.InDelta(t, 0.8, current.SimilarityThreshold, 1e-9)
	assert.Equal(t, 512, current.CacheCapacity, "unset fields keep their defaults")

	reloaded := make(chan Tunables, 1)
	dc.OnReload(func(tn Tunables) { reloaded <- tn })

	require.NoError(t, os.WriteFile(path, []byte("similarityThreshold: 0.7\nrecentScanLimit: 64\n"), 0o644))

	select {
	case tn := <-reloaded:
		assert.InDelta(t, 0.7, tn.SimilarityThreshold, 1e-9)
		assert.Equal(t, 64, tn.RecentScanLimit)
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestDynamicConfig_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	dc, err := NewDynamicConfig(path, Tunables{SimilarityThreshold: 0.85}, zap.NewNop())
	require.NoError(t, err)
	defer dc.Close()

	assert.InDelta(t, 0.85, dc.Current().SimilarityThreshold, 1e-9)
}

func TestDynamicConfig_BadWriteKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tunables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("similarityThreshold: 0.8\n"), 0o644))

	dc, err := NewDynamicConfig(path, Tunables{}, zap.NewNop())
	require.NoError(t, err)
	defer dc.Close()

	require.NoError(t, os.WriteFile(path, []byte("similarityThreshold: [broken\n"), 0o644))

	// give the watcher a moment to process the bad write
	time.Sleep(200 * time.Millisecond)
	assert.InDelta(t, 0.8, dc.Current().SimilarityThreshold, 1e-9)
}
