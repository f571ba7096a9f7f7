// Package eventbridge publishes committed model changes to AWS EventBridge
// for external consumers. Publishing is best-effort: a failed publish is
// logged and surfaced but never rolls back the commit it describes.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"archgraph-backend/application/ports"
	"archgraph-backend/domain/versioning"
	apperrors "archgraph-backend/pkg/errors"
)

const (
	eventSource     = "archgraph.model"
	detailCommitted = "model.committed"
)

// EventBridgeClient is the subset of the EventBridge API the publisher uses.
type EventBridgeClient interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher implements ports.EventBus on AWS EventBridge.
type Publisher struct {
	client       EventBridgeClient
	eventBusName string
	logger       *zap.Logger
}

var _ ports.EventBus = (*Publisher)(nil)

// NewPublisher creates an EventBridge-backed event bus.
func NewPublisher(client EventBridgeClient, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// committedDetail is the wire payload of a commit notification. The diff is
// summarized as counts; consumers needing content fetch the snapshot.
type committedDetail struct {
	ModelID       string    `json:"modelId"`
	Version       uint64    `json:"version"`
	AddedNodes    int       `json:"addedNodes"`
	RemovedNodes  int       `json:"removedNodes"`
	ModifiedNodes int       `json:"modifiedNodes"`
	AddedEdges    int       `json:"addedEdges"`
	RemovedEdges  int       `json:"removedEdges"`
	ModifiedEdges int       `json:"modifiedEdges"`
	CommittedAt   time.Time `json:"committedAt"`
}

// PublishCommitted sends a commit notification for the model.
func (p *Publisher) PublishCommitted(ctx context.Context, modelID string, version uint64, diff *versioning.Diff) error {
	detail := committedDetail{
		ModelID:     modelID,
		Version:     version,
		CommittedAt: time.Now().UTC(),
	}
	if diff != nil {
		detail.AddedNodes = len(diff.AddedNodes)
		detail.RemovedNodes = len(diff.RemovedNodes)
		detail.ModifiedNodes = len(diff.ModifiedNodes)
		detail.AddedEdges = len(diff.AddedEdges)
		detail.RemovedEdges = len(diff.RemovedEdges)
		detail.ModifiedEdges = len(diff.ModifiedEdges)
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		return apperrors.Wrap(err, "marshaling commit notification")
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBusName),
		Source:       aws.String(eventSource),
		DetailType:   aws.String(detailCommitted),
		Detail:       aws.String(string(payload)),
		Time:         aws.Time(detail.CommittedAt),
		Resources: []string{
			fmt.Sprintf("arn:aws:archgraph::%s", modelID),
		},
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return apperrors.NewExternal("eventbridge", err)
	}

	if result.FailedEntryCount > 0 {
		for _, e := range result.Entries {
			if e.ErrorCode != nil {
				p.logger.Error("commit notification rejected",
					zap.String("model_id", modelID),
					zap.Uint64("version", version),
					zap.String("error_code", aws.ToString(e.ErrorCode)),
					zap.String("error_message", aws.ToString(e.ErrorMessage)))
			}
		}
		return apperrors.NewExternal("eventbridge",
			fmt.Errorf("%d entries rejected", result.FailedEntryCount))
	}

	p.logger.Debug("commit notification published",
		zap.String("model_id", modelID),
		zap.Uint64("version", version))
	return nil
}

// NoopBus is an EventBus that discards notifications. Used when no event bus
// is configured.
type NoopBus struct{}

var _ ports.EventBus = (*NoopBus)(nil)

// PublishCommitted discards the notification.
func (NoopBus) PublishCommitted(context.Context, string, uint64, *versioning.Diff) error {
	return nil
}
