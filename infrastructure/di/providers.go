// Package di assembles the application's dependency graph.
package di

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"archgraph-backend/application/events"
	"archgraph-backend/application/ports"
	"archgraph-backend/application/services"
	domainservices "archgraph-backend/domain/services"
	"archgraph-backend/domain/versioning"
	"archgraph-backend/infrastructure/config"
	dynamostore "archgraph-backend/infrastructure/persistence/dynamodb"
	memorystore "archgraph-backend/infrastructure/persistence/memory"
	"archgraph-backend/infrastructure/messaging/eventbridge"
	"archgraph-backend/interfaces/http/rest"
	"archgraph-backend/interfaces/websocket"
	"archgraph-backend/internal/service/episodic"
	"archgraph-backend/internal/service/llm"
	"archgraph-backend/internal/service/semcache"
	"archgraph-backend/pkg/observability"
)

// ProvideLogger creates the process logger
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig loads the AWS SDK configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("archgraph")
}

// ProvideVersionStore creates the in-memory version store
func ProvideVersionStore(logger *zap.Logger) *versioning.Store {
	return versioning.NewStore(logger)
}

// ProvideNotifier creates the change notifier
func ProvideNotifier(cfg *config.Config, collector *observability.Collector, logger *zap.Logger) *events.Notifier {
	return events.NewNotifier(cfg.ObserverQueueSize, collector, logger)
}

// ProvideSnapshotRepository chooses the cold store backend from config
func ProvideSnapshotRepository(
	cfg *config.Config,
	client *awsdynamodb.Client,
	logger *zap.Logger,
) ports.SnapshotRepository {
	if cfg.ColdStore == "dynamodb" {
		return dynamostore.NewSnapshotRepository(client, cfg.SnapshotTable, logger)
	}
	return memorystore.NewSnapshotStore()
}

// ProvideEventBus creates the commit notification bus; without a configured
// bus name, notifications are discarded.
func ProvideEventBus(
	cfg *config.Config,
	client *awseventbridge.Client,
	logger *zap.Logger,
) ports.EventBus {
	if cfg.EventBusName == "" {
		return eventbridge.NoopBus{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideLLMProvider selects the model provider. The mock provider stands
// in until a hosted provider is configured.
func ProvideLLMProvider() llm.Provider {
	return llm.NewMockProvider()
}

// ProvideSemanticCache creates the result cache, backed by the provider's
// embeddings for the similarity fallback.
func ProvideSemanticCache(cfg *config.Config, provider llm.Provider, collector *observability.Collector, logger *zap.Logger) *semcache.Cache {
	return semcache.New(semcache.Config{
		Capacity:            cfg.CacheCapacity,
		SimilarityThreshold: cfg.SimilarityThreshold,
	}, provider, collector, logger)
}

// ProvideEpisodicStore opens the episode database
func ProvideEpisodicStore(cfg *config.Config, collector *observability.Collector, logger *zap.Logger) (*episodic.Store, error) {
	scorer := domainservices.NewLexicalScorer(domainservices.AlgorithmHybrid, nil)
	return episodic.Open(cfg.EpisodeDBPath, episodic.DefaultConfig(), scorer, collector, logger)
}

// ProvideAssistService creates the LLM assist service
func ProvideAssistService(
	provider llm.Provider,
	cache *semcache.Cache,
	episodes *episodic.Store,
	logger *zap.Logger,
) *llm.Service {
	return llm.NewService(provider, cache, episodes, logger)
}

// ProvideModelService creates the checkpoint orchestration service
func ProvideModelService(
	cfg *config.Config,
	store *versioning.Store,
	notifier *events.Notifier,
	snapshots ports.SnapshotRepository,
	bus ports.EventBus,
	collector *observability.Collector,
	logger *zap.Logger,
) *services.ModelService {
	return services.NewModelService(cfg.ModelID, store, notifier, snapshots, bus, collector, logger)
}

// ProvideHub creates the WebSocket hub
func ProvideHub(notifier *events.Notifier, logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(notifier, logger)
}

// ProvideHandler builds the HTTP handler tree
func ProvideHandler(
	cfg *config.Config,
	modelService *services.ModelService,
	assist *llm.Service,
	hub *websocket.Hub,
	collector *observability.Collector,
	logger *zap.Logger,
) http.Handler {
	return rest.NewRouter(modelService, assist, hub, collector, cfg.EnableCORS, logger).Setup()
}
