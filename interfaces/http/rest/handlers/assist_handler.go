package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"archgraph-backend/application/services"
	"archgraph-backend/internal/service/llm"
	"archgraph-backend/pkg/validation"
)

// AssistHandler exposes the model-assist endpoints: natural-language
// requests go in, proposed mutation batches come out, and callers report
// back how the proposal fared.
type AssistHandler struct {
	assist  *llm.Service
	service *services.ModelService
	logger  *zap.Logger
}

// NewAssistHandler creates an assist handler.
func NewAssistHandler(assist *llm.Service, service *services.ModelService, logger *zap.Logger) *AssistHandler {
	return &AssistHandler{assist: assist, service: service, logger: logger}
}

// ProposeRequest is a natural-language editing request. VersionSensitive
// marks requests whose answer depends on the current model content, so the
// cached response dies with the version that produced it.
type ProposeRequest struct {
	Request          string `json:"request" validate:"required,min=3"`
	VersionSensitive bool   `json:"versionSensitive"`
}

// ProposeResponse carries the raw proposal
type ProposeResponse struct {
	Proposal string `json:"proposal"`
	Version  uint64 `json:"version"`
}

// Propose handles POST /api/v1/assist/propose
func (h *AssistHandler) Propose(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondBadRequest(w, "validation error: "+err.Error())
		return
	}

	version := h.service.Version()
	proposal, err := h.assist.Propose(r.Context(), req.Request, version, req.VersionSensitive)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ProposeResponse{Proposal: proposal, Version: version})
}

// OutcomeRequest grades an earlier proposal. SuccessScore is in [0, 1]:
// 1 for a batch that applied cleanly, 0 for a rejected one, fractions for
// partially useful proposals that needed manual repair.
type OutcomeRequest struct {
	Request      string  `json:"request" validate:"required,min=3"`
	Outcome      string  `json:"outcome" validate:"required"`
	ResultShape  string  `json:"resultShape"`
	SuccessScore float64 `json:"successScore" validate:"min=0,max=1"`
}

// ReportOutcome handles POST /api/v1/assist/outcome
func (h *AssistHandler) ReportOutcome(w http.ResponseWriter, r *http.Request) {
	var req OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondBadRequest(w, "validation error: "+err.Error())
		return
	}

	h.assist.ReportOutcome(r.Context(), req.Request, req.Outcome, req.ResultShape, req.SuccessScore)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}
