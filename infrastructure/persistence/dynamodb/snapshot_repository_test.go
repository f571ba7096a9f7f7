package dynamodb

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archgraph-backend/domain/model"
	apperrors "archgraph-backend/pkg/errors"
)

// fakeDynamoClient keeps items in a map keyed by PK/SK, enough to exercise
// the repository's query and batch-write paths.
type fakeDynamoClient struct {
	items map[string]map[string]types.AttributeValue // "PK|SK" -> item
}

func newFakeDynamoClient() *fakeDynamoClient {
	return &fakeDynamoClient{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue) string {
	pk := item["PK"].(*types.AttributeValueMemberS).Value
	sk := item["SK"].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeDynamoClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	// the repository always queries by PK equality; pull the value out of
	// the expression attribute values
	var pk string
	for _, v := range params.ExpressionAttributeValues {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			pk = s.Value
		}
	}
	out := &dynamodb.QueryOutput{}
	for key, item := range f.items {
		if len(key) > len(pk) && key[:len(pk)+1] == pk+"|" {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (f *fakeDynamoClient) BatchWriteItem(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	for _, writes := range params.RequestItems {
		for _, w := range writes {
			if w.PutRequest != nil {
				f.items[itemKey(w.PutRequest.Item)] = w.PutRequest.Item
			}
			if w.DeleteRequest != nil {
				delete(f.items, itemKey(w.DeleteRequest.Key))
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func testSnapshot() *model.Snapshot {
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

func TestSnapshotRepository_SaveAndLoad(t *testing.T) {
	client := newFakeDynamoClient()
	repo := NewSnapshotRepository(client, "snapshots", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "m1", testSnapshot()))

	loaded, err := repo.Load(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 2)
	require.Len(t, loaded.Edges, 1)

	byID := map[string]model.NodeRecord{}
	for _, rec := range loaded.Nodes {
		byID[rec.ID] = rec
	}
	v, ok := byID["n1"].Attributes.Get("lang")
	require.True(t, ok)
	assert.Equal(t, "ada", v)
	assert.Equal(t, "io", loaded.Edges[0].Kind)
}

func TestSnapshotRepository_AttributeOrderSurvivesRoundTrip(t *testing.T) {
	client := newFakeDynamoClient()
	repo := NewSnapshotRepository(client, "snapshots", zap.NewNop())
	ctx := context.Background()

	attrs := model.Attributes{
		{Key: "zeta", Value: "1"}, {Key: "alpha", Value: "2"},
		{Key: "mike", Value: "3"}, {Key: "bravo", Value: "4"},
		{Key: "kilo", Value: "5"}, {Key: "echo", Value: "6"},
		{Key: "xray", Value: "7"}, {Key: "delta", Value: "8"},
	}
	snap := &model.Snapshot{
		Nodes: []model.NodeRecord{{ID: "n1", Type: "function", SemanticID: "A", Attributes: attrs}},
	}
	require.NoError(t, repo.Save(ctx, "m1", snap))

	loaded, err := repo.Load(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, attrs, loaded.Nodes[0].Attributes)
}

func TestSnapshotRepository_SaveReplacesStaleItems(t *testing.T) {
	client := newFakeDynamoClient()
	repo := NewSnapshotRepository(client, "snapshots", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "m1", testSnapshot()))

	// shrink: one node, no edges
	require.NoError(t, repo.Save(ctx, "m1", &model.Snapshot{
		Nodes: []model.NodeRecord{{ID: "n1", Type: "function", SemanticID: "A"}},
	}))

	loaded, err := repo.Load(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, loaded.Nodes, 1)
	assert.Empty(t, loaded.Edges, "items from the prior snapshot must be removed")
}

func TestSnapshotRepository_EmptySnapshotIsLoadable(t *testing.T) {
	client := newFakeDynamoClient()
	repo := NewSnapshotRepository(client, "snapshots", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "m1", &model.Snapshot{}))

	loaded, err := repo.Load(ctx, "m1")
	require.NoError(t, err, "the META item marks an empty model as present")
	assert.Empty(t, loaded.Nodes)
	assert.Empty(t, loaded.Edges)
}

func TestSnapshotRepository_LoadMissing(t *testing.T) {
	client := newFakeDynamoClient()
	repo := NewSnapshotRepository(client, "snapshots", zap.NewNop())

	_, err := repo.Load(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSnapshotRepository_Delete(t *testing.T) {
	client := newFakeDynamoClient()
	repo := NewSnapshotRepository(client, "snapshots", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "m1", testSnapshot()))
	require.NoError(t, repo.Delete(ctx, "m1"))

	_, err := repo.Load(ctx, "m1")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, client.items)
}
