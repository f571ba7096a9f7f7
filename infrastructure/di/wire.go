//go:build wireinject
// +build wireinject

package di

import (
	"context"
	"net/http"

	"github.com/google/wire"
	"go.uber.org/zap"

	"archgraph-backend/application/events"
	"archgraph-backend/application/ports"
	"archgraph-backend/application/services"
	"archgraph-backend/domain/versioning"
	"archgraph-backend/infrastructure/config"
	"archgraph-backend/interfaces/websocket"
	"archgraph-backend/internal/service/episodic"
	"archgraph-backend/internal/service/llm"
	"archgraph-backend/internal/service/semcache"
	"archgraph-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Collector    *observability.Collector
	Store        *versioning.Store
	Notifier     *events.Notifier
	Snapshots    ports.SnapshotRepository
	Bus          ports.EventBus
	Cache        *semcache.Cache
	Episodes     *episodic.Store
	Assist       *llm.Service
	ModelService *services.ModelService
	Hub          *websocket.Hub
	Handler      http.Handler
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCollector,
	ProvideVersionStore,
	ProvideNotifier,
	ProvideSnapshotRepository,
	ProvideEventBus,
	ProvideLLMProvider,
	ProvideSemanticCache,
	ProvideEpisodicStore,
	ProvideAssistService,
	ProvideModelService,
	ProvideHub,
	ProvideHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
