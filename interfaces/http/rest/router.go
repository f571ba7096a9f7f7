// Package rest wires the HTTP routes of the service.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"archgraph-backend/application/services"
	"archgraph-backend/interfaces/http/rest/handlers"
	"archgraph-backend/interfaces/http/rest/middleware"
	"archgraph-backend/interfaces/websocket"
	"archgraph-backend/internal/service/llm"
	"archgraph-backend/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	modelService *services.ModelService
	assist       *llm.Service
	hub          *websocket.Hub
	collector    *observability.Collector
	enableCORS   bool
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	modelService *services.ModelService,
	assist *llm.Service,
	hub *websocket.Hub,
	collector *observability.Collector,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		modelService: modelService,
		assist:       assist,
		hub:          hub,
		collector:    collector,
		enableCORS:   enableCORS,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil {
		router.Use(middleware.Metrics(rt.collector))
	}

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Observer-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-Observer-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	router.Get("/ws", rt.hub.ServeWS)

	router.Route("/api/v1", func(r chi.Router) {
		modelHandler := handlers.NewModelHandler(rt.modelService, rt.logger)
		r.Route("/model", func(r chi.Router) {
			r.Post("/load", modelHandler.Load)
			r.Post("/mutations", modelHandler.ApplyMutations)
			r.Get("/diff", modelHandler.Diff)
			r.Post("/commit", modelHandler.Commit)
			r.Post("/restore", modelHandler.Restore)
			r.Get("/graph", modelHandler.Graph)
			r.Get("/status", modelHandler.Status)
		})

		if rt.assist != nil {
			assistHandler := handlers.NewAssistHandler(rt.assist, rt.modelService, rt.logger)
			r.Route("/assist", func(r chi.Router) {
				r.Post("/propose", assistHandler.Propose)
				r.Post("/outcome", assistHandler.ReportOutcome)
			})
		}
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready once a model is loaded or loadable; an empty
// store is still ready, callers simply see an empty working copy.
func (rt *Router) readinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
