// Package dynamodb persists model snapshots in a single DynamoDB table.
// Each model occupies one partition: a META item plus one item per node and
// per edge, so a snapshot loads with a single partition query.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"archgraph-backend/application/ports"
	"archgraph-backend/domain/model"
	apperrors "archgraph-backend/pkg/errors"
)

const (
	modelKeyPrefix = "MODEL#"
	nodeKeyPrefix  = "NODE#"
	edgeKeyPrefix  = "EDGE#"
	metaKey        = "META"

	// DynamoDB caps BatchWriteItem at 25 requests per call.
	batchWriteLimit = 25
)

// DynamoDBClient is the subset of the DynamoDB API the repository uses.
type DynamoDBClient interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// SnapshotRepository implements ports.SnapshotRepository on DynamoDB.
type SnapshotRepository struct {
	client    DynamoDBClient
	tableName string
	logger    *zap.Logger
}

var _ ports.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a DynamoDB-backed snapshot repository.
func NewSnapshotRepository(client DynamoDBClient, tableName string, logger *zap.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Attributes persist as a DynamoDB list so their ordering survives the
// round-trip; a map attribute would shuffle them on every reload.
type attributeItem struct {
	Key   string `dynamodbav:"K"`
	Value string `dynamodbav:"V"`
}

type nodeItem struct {
	PK         string          `dynamodbav:"PK"`
	SK         string          `dynamodbav:"SK"`
	EntityType string          `dynamodbav:"EntityType"`
	NodeType   string          `dynamodbav:"NodeType"`
	SemanticID string          `dynamodbav:"SemanticID"`
	Attributes []attributeItem `dynamodbav:"Attributes,omitempty"`
}

type edgeItem struct {
	PK         string          `dynamodbav:"PK"`
	SK         string          `dynamodbav:"SK"`
	EntityType string          `dynamodbav:"EntityType"`
	SourceID   string          `dynamodbav:"SourceID"`
	TargetID   string          `dynamodbav:"TargetID"`
	EdgeKind   string          `dynamodbav:"EdgeKind"`
	Attributes []attributeItem `dynamodbav:"Attributes,omitempty"`
}

type metaItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	NodeCount  int    `dynamodbav:"NodeCount"`
	EdgeCount  int    `dynamodbav:"EdgeCount"`
	SavedAt    string `dynamodbav:"SavedAt"`
}

// Save replaces any prior snapshot of the model with the given one. Stale
// items from the previous snapshot are deleted in the same pass so a shrink
// never leaves orphans behind.
func (r *SnapshotRepository) Save(ctx context.Context, modelID string, snapshot *model.Snapshot) error {
	if modelID == "" {
		return apperrors.NewValidation("model id is required")
	}

	existing, err := r.queryKeys(ctx, modelID)
	if err != nil {
		return err
	}

	pk := modelKeyPrefix + modelID
	writes := make([]types.WriteRequest, 0, len(snapshot.Nodes)+len(snapshot.Edges)+1)
	fresh := make(map[string]struct{}, len(snapshot.Nodes)+len(snapshot.Edges)+1)

	meta, err := attributevalue.MarshalMap(metaItem{
		PK:         pk,
		SK:         metaKey,
		EntityType: "SNAPSHOT_META",
		NodeCount:  len(snapshot.Nodes),
		EdgeCount:  len(snapshot.Edges),
		SavedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return apperrors.Wrap(err, "marshaling snapshot metadata")
	}
	writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: meta}})
	fresh[metaKey] = struct{}{}

	for _, rec := range snapshot.Nodes {
		sk := nodeKeyPrefix + rec.ID
		item, err := attributevalue.MarshalMap(nodeItem{
			PK:         pk,
			SK:         sk,
			EntityType: "NODE",
			NodeType:   rec.Type,
			SemanticID: rec.SemanticID,
			Attributes: toAttributeItems(rec.Attributes),
		})
		if err != nil {
			return apperrors.Wrap(err, "marshaling node item")
		}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		fresh[sk] = struct{}{}
	}

	for _, rec := range snapshot.Edges {
		sk := edgeSortKey(rec.SourceID, rec.TargetID, rec.Kind)
		item, err := attributevalue.MarshalMap(edgeItem{
			PK:         pk,
			SK:         sk,
			EntityType: "EDGE",
			SourceID:   rec.SourceID,
			TargetID:   rec.TargetID,
			EdgeKind:   rec.Kind,
			Attributes: toAttributeItems(rec.Attributes),
		})
		if err != nil {
			return apperrors.Wrap(err, "marshaling edge item")
		}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		fresh[sk] = struct{}{}
	}

	for _, sk := range existing {
		if _, ok := fresh[sk]; ok {
			continue
		}
		writes = append(writes, types.WriteRequest{DeleteRequest: &types.DeleteRequest{
			Key: partitionKey(pk, sk),
		}})
	}

	if err := r.batchWrite(ctx, writes); err != nil {
		return err
	}

	r.logger.Debug("snapshot saved",
		zap.String("model_id", modelID),
		zap.Int("nodes", len(snapshot.Nodes)),
		zap.Int("edges", len(snapshot.Edges)))
	return nil
}

// Load retrieves the snapshot of the named model.
func (r *SnapshotRepository) Load(ctx context.Context, modelID string) (*model.Snapshot, error) {
	if modelID == "" {
		return nil, apperrors.NewValidation("model id is required")
	}

	keyCond := expression.Key("PK").Equal(expression.Value(modelKeyPrefix + modelID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.Wrap(err, "building query expression")
	}

	snap := &model.Snapshot{}
	found := false
	var lastKey map[string]types.AttributeValue

	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, mapDynamoError(err, "querying snapshot")
		}

		for _, item := range out.Items {
			sk := stringAttr(item, "SK")
			switch {
			case sk == metaKey:
				found = true
			case strings.HasPrefix(sk, nodeKeyPrefix):
				var ni nodeItem
				if err := attributevalue.UnmarshalMap(item, &ni); err != nil {
					return nil, apperrors.Wrap(err, "unmarshaling node item")
				}
				snap.Nodes = append(snap.Nodes, model.NodeRecord{
					ID:         strings.TrimPrefix(ni.SK, nodeKeyPrefix),
					Type:       ni.NodeType,
					SemanticID: ni.SemanticID,
					Attributes: fromAttributeItems(ni.Attributes),
				})
				found = true
			case strings.HasPrefix(sk, edgeKeyPrefix):
				var ei edgeItem
				if err := attributevalue.UnmarshalMap(item, &ei); err != nil {
					return nil, apperrors.Wrap(err, "unmarshaling edge item")
				}
				snap.Edges = append(snap.Edges, model.EdgeRecord{
					SourceID:   ei.SourceID,
					TargetID:   ei.TargetID,
					Kind:       ei.EdgeKind,
					Attributes: fromAttributeItems(ei.Attributes),
				})
				found = true
			}
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}

	if !found {
		return nil, apperrors.NewNotFound(fmt.Sprintf("no snapshot for model %s", modelID))
	}
	return snap, nil
}

// Delete removes every item of the model's snapshot.
func (r *SnapshotRepository) Delete(ctx context.Context, modelID string) error {
	if modelID == "" {
		return apperrors.NewValidation("model id is required")
	}

	existing, err := r.queryKeys(ctx, modelID)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}

	pk := modelKeyPrefix + modelID
	writes := make([]types.WriteRequest, 0, len(existing))
	for _, sk := range existing {
		writes = append(writes, types.WriteRequest{DeleteRequest: &types.DeleteRequest{
			Key: partitionKey(pk, sk),
		}})
	}
	return r.batchWrite(ctx, writes)
}

func (r *SnapshotRepository) queryKeys(ctx context.Context, modelID string) ([]string, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(modelKeyPrefix + modelID))
	proj := expression.NamesList(expression.Name("SK"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithProjection(proj).Build()
	if err != nil {
		return nil, apperrors.Wrap(err, "building key query expression")
	}

	var keys []string
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, mapDynamoError(err, "querying snapshot keys")
		}
		for _, item := range out.Items {
			if sk := stringAttr(item, "SK"); sk != "" {
				keys = append(keys, sk)
			}
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return keys, nil
}

func (r *SnapshotRepository) batchWrite(ctx context.Context, writes []types.WriteRequest) error {
	for start := 0; start < len(writes); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(writes) {
			end = len(writes)
		}
		batch := writes[start:end]

		// Retry unprocessed items until DynamoDB accepts the full batch.
		for len(batch) > 0 {
			out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					r.tableName: batch,
				},
			})
			if err != nil {
				return mapDynamoError(err, "writing snapshot batch")
			}
			batch = out.UnprocessedItems[r.tableName]
			if len(batch) > 0 {
				r.logger.Debug("retrying unprocessed snapshot writes",
					zap.Int("remaining", len(batch)))
			}
		}
	}
	return nil
}

func edgeSortKey(sourceID, targetID, kind string) string {
	return fmt.Sprintf("%s%s#%s#%s", edgeKeyPrefix, sourceID, targetID, kind)
}

func partitionKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func toAttributeItems(attrs model.Attributes) []attributeItem {
	if len(attrs) == 0 {
		return nil
	}
	items := make([]attributeItem, len(attrs))
	for i, a := range attrs {
		items[i] = attributeItem{Key: a.Key, Value: a.Value}
	}
	return items
}

func fromAttributeItems(items []attributeItem) model.Attributes {
	if len(items) == 0 {
		return nil
	}
	attrs := make(model.Attributes, len(items))
	for i, item := range items {
		attrs[i] = model.Attribute{Key: item.Key, Value: item.Value}
	}
	return attrs
}

func mapDynamoError(err error, op string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException":
			return apperrors.NewNotFound("snapshot table not found")
		case "ProvisionedThroughputExceededException", "ThrottlingException":
			return apperrors.Wrap(err, op+": throughput exceeded")
		}
	}
	return apperrors.Wrap(err, op)
}
