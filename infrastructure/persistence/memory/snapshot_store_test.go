package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph-backend/domain/model"
	apperrors "archgraph-backend/pkg/errors"
)

func sampleSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Nodes: []model.NodeRecord{
			{ID: "n1", Type: "function", SemanticID: "A", Attributes: model.Attributes{{Key: "lang", Value: "ada"}}},
			{ID: "n2", Type: "function", SemanticID: "B"},
		},
		Edges: []model.EdgeRecord{
			{SourceID: "n1", TargetID: "n2", Kind: "io"},
		},
	}
}

func TestSnapshotStore_SaveAndLoad(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "m1", sampleSnapshot()))

	loaded, err := store.Load(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, loaded.Nodes, 2)
	assert.Len(t, loaded.Edges, 1)
}

func TestSnapshotStore_LoadMissing(t *testing.T) {
	store := NewSnapshotStore()
	_, err := store.Load(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSnapshotStore_CopiesAreIndependent(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	original := sampleSnapshot()
	require.NoError(t, store.Save(ctx, "m1", original))

	// mutating the saved input must not affect the stored copy
	original.Nodes[0].Attributes = original.Nodes[0].Attributes.Set("lang", "c")

	loaded, err := store.Load(ctx, "m1")
	require.NoError(t, err)
	v, _ := loaded.Nodes[0].Attributes.Get("lang")
	assert.Equal(t, "ada", v)

	// mutating a loaded copy must not affect later loads
	loaded.Nodes[0].Attributes = loaded.Nodes[0].Attributes.Set("lang", "rust")
	again, err := store.Load(ctx, "m1")
	require.NoError(t, err)
	v, _ = again.Nodes[0].Attributes.Get("lang")
	assert.Equal(t, "ada", v)
}

func TestSnapshotStore_SaveReplaces(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "m1", sampleSnapshot()))
	require.NoError(t, store.Save(ctx, "m1", &model.Snapshot{}))

	loaded, err := store.Load(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Nodes)
	assert.Empty(t, loaded.Edges)
	assert.Equal(t, 1, store.Len())
}

func TestSnapshotStore_Delete(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "m1", sampleSnapshot()))
	require.NoError(t, store.Delete(ctx, "m1"))

	_, err := store.Load(ctx, "m1")
	assert.True(t, apperrors.IsNotFound(err))

	// deleting again is a no-op
	assert.NoError(t, store.Delete(ctx, "m1"))
}
