package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"archgraph-backend/application/events"
	"archgraph-backend/application/services"
	"archgraph-backend/domain/model"
	"archgraph-backend/domain/versioning"
)

// observerHeader carries the caller's observer id so its own changes are
// not echoed back over its WebSocket subscription.
const observerHeader = "X-Observer-ID"

// ModelHandler handles the checkpoint operations of the model.
type ModelHandler struct {
	service *services.ModelService
	logger  *zap.Logger
}

// NewModelHandler creates a model handler.
func NewModelHandler(service *services.ModelService, logger *zap.Logger) *ModelHandler {
	return &ModelHandler{service: service, logger: logger}
}

func origin(r *http.Request) events.ObserverID {
	return events.ObserverID(r.Header.Get(observerHeader))
}

// LoadRequest optionally carries an inline snapshot. Without one the model
// is loaded from the cold store.
type LoadRequest struct {
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
}

// LoadResponse reports the version installed by a load
type LoadResponse struct {
	Version uint64 `json:"version"`
}

// Load handles POST /api/v1/model/load
func (h *ModelHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondBadRequest(w, "invalid request body: "+err.Error())
			return
		}
	}

	var version uint64
	var err error
	if req.Snapshot != nil {
		version, err = h.service.LoadSnapshot(req.Snapshot, origin(r))
	} else {
		version, err = h.service.LoadFromColdStore(r.Context(), origin(r))
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, LoadResponse{Version: version})
}

// ApplyMutations handles POST /api/v1/model/mutations
func (h *ModelHandler) ApplyMutations(w http.ResponseWriter, r *http.Request) {
	var batch versioning.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.ApplyMutations(batch, origin(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Diff handles GET /api/v1/model/diff
func (h *ModelHandler) Diff(w http.ResponseWriter, r *http.Request) {
	diff, err := h.service.Diff()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, diff)
}

// Commit handles POST /api/v1/model/commit
func (h *ModelHandler) Commit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Commit(r.Context(), origin(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Restore handles POST /api/v1/model/restore
func (h *ModelHandler) Restore(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Restore(origin(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GraphResponse is the working copy in its flat persisted layout plus the
// current version.
type GraphResponse struct {
	Version  uint64          `json:"version"`
	Snapshot *model.Snapshot `json:"snapshot"`
}

// Graph handles GET /api/v1/model/graph
func (h *ModelHandler) Graph(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, GraphResponse{
		Version:  h.service.Version(),
		Snapshot: h.service.Snapshot(),
	})
}

// StatusResponse reports the store's bookkeeping state
type StatusResponse struct {
	Version     uint64 `json:"version"`
	HasBaseline bool   `json:"hasBaseline"`
}

// Status handles GET /api/v1/model/status
func (h *ModelHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, StatusResponse{
		Version:     h.service.Version(),
		HasBaseline: h.service.HasBaseline(),
	})
}
