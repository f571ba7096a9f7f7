package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archgraph-backend/domain/model"
	"archgraph-backend/domain/versioning"
	apperrors "archgraph-backend/pkg/errors"
)

type fakeEventBridgeClient struct {
	inputs []*awseventbridge.PutEventsInput
	output *awseventbridge.PutEventsOutput
	err    error
}

func (f *fakeEventBridgeClient) PutEvents(_ context.Context, params *awseventbridge.PutEventsInput, _ ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return &awseventbridge.PutEventsOutput{}, nil
}

func TestPublisher_PublishCommitted(t *testing.T) {
	client := &fakeEventBridgeClient{}
	pub := NewPublisher(client, "archgraph-events", zap.NewNop())

	diff := &versioning.Diff{
		AddedNodes: []*model.Node{
			{ID: "n1", Type: model.NodeTypeFunction, SemanticID: "A"},
			{ID: "n2", Type: model.NodeTypeFunction, SemanticID: "B"},
		},
		RemovedEdges: []*model.Edge{
			{SourceID: "n1", TargetID: "n2", Kind: model.EdgeKindIO},
		},
	}
	require.NoError(t, pub.PublishCommitted(context.Background(), "m1", 7, diff))

	require.Len(t, client.inputs, 1)
	require.Len(t, client.inputs[0].Entries, 1)
	entry := client.inputs[0].Entries[0]
	assert.Equal(t, "archgraph-events", aws.ToString(entry.EventBusName))
	assert.Equal(t, eventSource, aws.ToString(entry.Source))
	assert.Equal(t, detailCommitted, aws.ToString(entry.DetailType))

	var detail committedDetail
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "m1", detail.ModelID)
	assert.Equal(t, uint64(7), detail.Version)
	assert.Equal(t, 2, detail.AddedNodes)
	assert.Equal(t, 1, detail.RemovedEdges)
	assert.Zero(t, detail.ModifiedNodes)
	assert.False(t, detail.CommittedAt.IsZero())
}

func TestPublisher_NilDiff(t *testing.T) {
	client := &fakeEventBridgeClient{}
	pub := NewPublisher(client, "archgraph-events", zap.NewNop())

	require.NoError(t, pub.PublishCommitted(context.Background(), "m1", 1, nil))

	var detail committedDetail
	entry := client.inputs[0].Entries[0]
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Zero(t, detail.AddedNodes)
	assert.Zero(t, detail.RemovedEdges)
}

func TestPublisher_RequestError(t *testing.T) {
	client := &fakeEventBridgeClient{err: errors.New("throttled")}
	pub := NewPublisher(client, "archgraph-events", zap.NewNop())

	err := pub.PublishCommitted(context.Background(), "m1", 1, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestPublisher_RejectedEntry(t *testing.T) {
	client := &fakeEventBridgeClient{
		output: &awseventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("try again")},
			},
		},
	}
	pub := NewPublisher(client, "archgraph-events", zap.NewNop())

	err := pub.PublishCommitted(context.Background(), "m1", 1, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestNoopBus(t *testing.T) {
	assert.NoError(t, NoopBus{}.PublishCommitted(context.Background(), "m1", 1, nil))
}
