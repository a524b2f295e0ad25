package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/dir"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/interpreter"
	"github.com/opensource-finance/kestrel/internal/repository"
	"github.com/opensource-finance/kestrel/internal/routing"
	"github.com/opensource-finance/kestrel/internal/surcharge"
)

// activeAlgorithmTTL bounds how long the evaluate path trusts a cached
// active algorithm before re-reading the repository.
const activeAlgorithmTTL = 5 * time.Minute

// Handler holds dependencies for API handlers.
type Handler struct {
	repo            domain.Repository
	cache           domain.Cache
	bus             domain.EventBus
	routingEngine   *interpreter.Engine[routing.ConnectorSelection]
	surchargeEngine *interpreter.Engine[surcharge.SurchargeDecisionConfigs]
	version         string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, routingEngine *interpreter.Engine[routing.ConnectorSelection], surchargeEngine *interpreter.Engine[surcharge.SurchargeDecisionConfigs], version string) *Handler {
	return &Handler{
		repo:            repo,
		cache:           cache,
		bus:             bus,
		routingEngine:   routingEngine,
		surchargeEngine: surchargeEngine,
		version:         version,
	}
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// CreateRoutingRequest is the request body for creating a routing
// algorithm.
type CreateRoutingRequest struct {
	Name        string                                  `json:"name"`
	Description string                                  `json:"description,omitempty"`
	Algorithm   dir.Program[routing.ConnectorSelection] `json:"algorithm"`
}

// CreateRoutingAlgorithm validates and persists a routing program.
// Validation runs the full authoring checks plus a dry-run lowering, so
// a stored algorithm is guaranteed to activate cleanly later.
func (h *Handler) CreateRoutingAlgorithm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := GetMerchantID(ctx)

	var req CreateRoutingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body: " + err.Error(),
		})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name is required",
		})
		return
	}

	if err := h.routingEngine.ValidateProgram(&req.Algorithm); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid routing algorithm: " + err.Error(),
		})
		return
	}

	now := time.Now().UTC()
	record := routing.Record{
		Name:        req.Name,
		Description: req.Description,
		Algorithm:   req.Algorithm,
		CreatedAt:   now.Unix(),
		ModifiedAt:  now.Unix(),
	}

	document, err := json.Marshal(record)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to serialize algorithm",
		})
		return
	}

	envelope := &domain.AlgorithmRecord{
		ID:          uuid.New().String(),
		MerchantID:  merchantID,
		Kind:        domain.AlgorithmRouting,
		Name:        req.Name,
		Description: req.Description,
		Document:    document,
	}

	if err := h.repo.SaveAlgorithm(ctx, merchantID, envelope); err != nil {
		slog.Error("failed to save routing algorithm", "merchant_id", merchantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save algorithm",
		})
		return
	}

	h.publishAlgorithmEvent(ctx, merchantID, domain.TopicAlgorithmCreated, envelope)

	slog.Info("routing algorithm created",
		"merchant_id", merchantID,
		"algorithm_id", envelope.ID,
		"name", envelope.Name,
	)
	writeJSON(w, http.StatusCreated, envelope)
}

// ListRoutingAlgorithms returns the merchant's routing algorithms.
func (h *Handler) ListRoutingAlgorithms(w http.ResponseWriter, r *http.Request) {
	h.listAlgorithms(w, r, domain.AlgorithmRouting)
}

// GetRoutingAlgorithm retrieves one routing algorithm by ID.
func (h *Handler) GetRoutingAlgorithm(w http.ResponseWriter, r *http.Request) {
	h.getAlgorithm(w, r)
}

// ActivateRoutingAlgorithm makes a stored routing algorithm the
// merchant's active one and loads it into the evaluation engine.
func (h *Handler) ActivateRoutingAlgorithm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := GetMerchantID(ctx)
	algorithmID := chi.URLParam(r, "id")

	envelope, ok := h.activateAlgorithm(w, r, domain.AlgorithmRouting)
	if !ok {
		return
	}

	var record routing.Record
	if err := json.Unmarshal(envelope.Document, &record); err != nil {
		slog.Error("stored routing algorithm is corrupt", "algorithm_id", algorithmID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "stored algorithm is corrupt",
		})
		return
	}

	if err := h.routingEngine.LoadProgram(merchantID, &record.Algorithm); err != nil {
		slog.Error("failed to load routing algorithm", "algorithm_id", algorithmID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load algorithm: " + err.Error(),
		})
		return
	}

	h.publishAlgorithmEvent(ctx, merchantID, domain.TopicAlgorithmActivated, envelope)

	slog.Info("routing algorithm activated",
		"merchant_id", merchantID,
		"algorithm_id", algorithmID,
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "activated",
		"id":     algorithmID,
	})
}

// EvaluateRequest is the request body for evaluation endpoints. Facts
// use the same tagged {"type", "value"} form programs use.
type EvaluateRequest struct {
	Facts []dir.DirValue `json:"facts"`
}

// RoutingDecisionResponse is the response for POST /routing/evaluate.
type RoutingDecisionResponse struct {
	Selection routing.ConnectorSelection `json:"selection"`
	RuleName  string                     `json:"rule_name,omitempty"`
	Matched   bool                       `json:"matched"`
}

// EvaluateRouting executes the merchant's active routing algorithm
// against the submitted facts.
func (h *Handler) EvaluateRouting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := GetMerchantID(ctx)

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body: " + err.Error(),
		})
		return
	}

	// Lazily load the active algorithm if the engine has none yet, e.g.
	// after a restart.
	decision, err := h.routingEngine.Evaluate(merchantID, interpreter.NewInput(req.Facts...))
	if err != nil {
		if !h.loadActiveRouting(ctx, merchantID) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "no active routing algorithm for merchant",
			})
			return
		}
		decision, err = h.routingEngine.Evaluate(merchantID, interpreter.NewInput(req.Facts...))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "no active routing algorithm for merchant",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, RoutingDecisionResponse{
		Selection: decision.Selection,
		RuleName:  decision.RuleName,
		Matched:   decision.Matched,
	})
}

// CreateSurchargeConfig validates and persists a surcharge program.
func (h *Handler) CreateSurchargeConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := GetMerchantID(ctx)

	var req surcharge.SurchargeDecisionManagerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body: " + err.Error(),
		})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name is required",
		})
		return
	}

	if err := h.surchargeEngine.ValidateProgram(&req.Algorithm); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid surcharge algorithm: " + err.Error(),
		})
		return
	}

	now := time.Now().UTC()
	record := surcharge.SurchargeDecisionManagerRecord{
		Name:                     req.Name,
		MerchantSurchargeConfigs: req.MerchantSurchargeConfigs,
		Algorithm:                req.Algorithm,
		CreatedAt:                now.Unix(),
		ModifiedAt:               now.Unix(),
	}

	document, err := json.Marshal(record)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to serialize algorithm",
		})
		return
	}

	envelope := &domain.AlgorithmRecord{
		ID:          uuid.New().String(),
		MerchantID:  merchantID,
		Kind:        domain.AlgorithmSurcharge,
		Name:        req.Name,
		Description: req.Description,
		Document:    document,
	}

	if err := h.repo.SaveAlgorithm(ctx, merchantID, envelope); err != nil {
		slog.Error("failed to save surcharge config", "merchant_id", merchantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save algorithm",
		})
		return
	}

	h.publishAlgorithmEvent(ctx, merchantID, domain.TopicAlgorithmCreated, envelope)

	slog.Info("surcharge config created",
		"merchant_id", merchantID,
		"algorithm_id", envelope.ID,
		"name", envelope.Name,
	)
	writeJSON(w, http.StatusCreated, envelope)
}

// ListSurchargeConfigs returns the merchant's surcharge configs.
func (h *Handler) ListSurchargeConfigs(w http.ResponseWriter, r *http.Request) {
	h.listAlgorithms(w, r, domain.AlgorithmSurcharge)
}

// GetSurchargeConfig retrieves one surcharge config by ID.
func (h *Handler) GetSurchargeConfig(w http.ResponseWriter, r *http.Request) {
	h.getAlgorithm(w, r)
}

// ActivateSurchargeConfig makes a stored surcharge program the
// merchant's active one and loads it into the evaluation engine.
func (h *Handler) ActivateSurchargeConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := GetMerchantID(ctx)
	algorithmID := chi.URLParam(r, "id")

	envelope, ok := h.activateAlgorithm(w, r, domain.AlgorithmSurcharge)
	if !ok {
		return
	}

	var record surcharge.SurchargeDecisionManagerRecord
	if err := json.Unmarshal(envelope.Document, &record); err != nil {
		slog.Error("stored surcharge config is corrupt", "algorithm_id", algorithmID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "stored algorithm is corrupt",
		})
		return
	}

	if err := h.surchargeEngine.LoadProgram(merchantID, &record.Algorithm); err != nil {
		slog.Error("failed to load surcharge config", "algorithm_id", algorithmID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load algorithm: " + err.Error(),
		})
		return
	}

	h.publishAlgorithmEvent(ctx, merchantID, domain.TopicAlgorithmActivated, envelope)

	slog.Info("surcharge config activated",
		"merchant_id", merchantID,
		"algorithm_id", algorithmID,
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "activated",
		"id":     algorithmID,
	})
}

// SurchargeDecisionResponse is the response for POST /surcharge/evaluate.
type SurchargeDecisionResponse struct {
	Decision surcharge.SurchargeDecisionConfigs `json:"decision"`
	RuleName string                             `json:"rule_name,omitempty"`
	Matched  bool                               `json:"matched"`
}

// EvaluateSurcharge executes the merchant's active surcharge program
// against the submitted facts.
func (h *Handler) EvaluateSurcharge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := GetMerchantID(ctx)

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body: " + err.Error(),
		})
		return
	}

	decision, err := h.surchargeEngine.Evaluate(merchantID, interpreter.NewInput(req.Facts...))
	if err != nil {
		if !h.loadActiveSurcharge(ctx, merchantID) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "no active surcharge config for merchant",
			})
			return
		}
		decision, err = h.surchargeEngine.Evaluate(merchantID, interpreter.NewInput(req.Facts...))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "no active surcharge config for merchant",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, SurchargeDecisionResponse{
		Decision: decision.Selection,
		RuleName: decision.RuleName,
		Matched:  decision.Matched,
	})
}

func (h *Handler) listAlgorithms(w http.ResponseWriter, r *http.Request, kind domain.AlgorithmKind) {
	ctx := r.Context()
	merchantID := GetMerchantID(ctx)

	records, err := h.repo.ListAlgorithms(ctx, merchantID, kind)
	if err != nil {
		slog.Error("failed to list algorithms", "merchant_id", merchantID, "kind", kind, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list algorithms",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"algorithms": records,
		"count":      len(records),
	})
}

func (h *Handler) getAlgorithm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := GetMerchantID(ctx)
	algorithmID := chi.URLParam(r, "id")

	if algorithmID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "algorithm id is required",
		})
		return
	}

	record, err := h.repo.GetAlgorithm(ctx, merchantID, algorithmID)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "algorithm not found",
		})
		return
	}
	if err != nil {
		slog.Error("failed to get algorithm", "algorithm_id", algorithmID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get algorithm",
		})
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// activateAlgorithm flips the active flag in the repository and
// refreshes the cache. Returns the activated envelope on success.
func (h *Handler) activateAlgorithm(w http.ResponseWriter, r *http.Request, kind domain.AlgorithmKind) (*domain.AlgorithmRecord, bool) {
	ctx := r.Context()
	merchantID := GetMerchantID(ctx)
	algorithmID := chi.URLParam(r, "id")

	if algorithmID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "algorithm id is required",
		})
		return nil, false
	}

	record, err := h.repo.GetAlgorithm(ctx, merchantID, algorithmID)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "algorithm not found",
		})
		return nil, false
	}
	if err != nil {
		slog.Error("failed to get algorithm", "algorithm_id", algorithmID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get algorithm",
		})
		return nil, false
	}

	if record.Kind != kind {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "algorithm kind mismatch",
		})
		return nil, false
	}

	if err := h.repo.ActivateAlgorithm(ctx, merchantID, algorithmID); err != nil {
		slog.Error("failed to activate algorithm", "algorithm_id", algorithmID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to activate algorithm",
		})
		return nil, false
	}
	record.Active = true

	if h.cache != nil {
		if err := h.cache.SetActiveAlgorithm(ctx, merchantID, record, activeAlgorithmTTL); err != nil {
			slog.Warn("failed to cache active algorithm", "algorithm_id", algorithmID, "error", err)
		}
	}

	return record, true
}

// loadActiveRouting pulls the merchant's active routing algorithm from
// cache or repository into the engine. Returns false when none exists.
func (h *Handler) loadActiveRouting(ctx context.Context, merchantID string) bool {
	envelope := h.fetchActiveAlgorithm(ctx, merchantID, domain.AlgorithmRouting)
	if envelope == nil {
		return false
	}

	var record routing.Record
	if err := json.Unmarshal(envelope.Document, &record); err != nil {
		slog.Error("stored routing algorithm is corrupt", "algorithm_id", envelope.ID, "error", err)
		return false
	}
	if err := h.routingEngine.LoadProgram(merchantID, &record.Algorithm); err != nil {
		slog.Error("failed to load routing algorithm", "algorithm_id", envelope.ID, "error", err)
		return false
	}
	return true
}

// loadActiveSurcharge mirrors loadActiveRouting for surcharge programs.
func (h *Handler) loadActiveSurcharge(ctx context.Context, merchantID string) bool {
	envelope := h.fetchActiveAlgorithm(ctx, merchantID, domain.AlgorithmSurcharge)
	if envelope == nil {
		return false
	}

	var record surcharge.SurchargeDecisionManagerRecord
	if err := json.Unmarshal(envelope.Document, &record); err != nil {
		slog.Error("stored surcharge config is corrupt", "algorithm_id", envelope.ID, "error", err)
		return false
	}
	if err := h.surchargeEngine.LoadProgram(merchantID, &record.Algorithm); err != nil {
		slog.Error("failed to load surcharge config", "algorithm_id", envelope.ID, "error", err)
		return false
	}
	return true
}

func (h *Handler) fetchActiveAlgorithm(ctx context.Context, merchantID string, kind domain.AlgorithmKind) *domain.AlgorithmRecord {
	if h.cache != nil {
		if record, err := h.cache.GetActiveAlgorithm(ctx, merchantID, kind); err == nil && record != nil {
			return record
		}
	}

	record, err := h.repo.GetActiveAlgorithm(ctx, merchantID, kind)
	if err != nil {
		return nil
	}

	if h.cache != nil {
		if err := h.cache.SetActiveAlgorithm(ctx, merchantID, record, activeAlgorithmTTL); err != nil {
			slog.Warn("failed to cache active algorithm", "algorithm_id", record.ID, "error", err)
		}
	}
	return record
}

func (h *Handler) publishAlgorithmEvent(ctx context.Context, merchantID string, topic string, record *domain.AlgorithmRecord) {
	if h.bus == nil {
		return
	}

	payload, err := json.Marshal(domain.AlgorithmEvent{
		AlgorithmID: record.ID,
		MerchantID:  merchantID,
		Kind:        record.Kind,
	})
	if err != nil {
		return
	}

	if err := h.bus.Publish(ctx, merchantID, topic, payload); err != nil {
		slog.Warn("failed to publish algorithm event", "topic", topic, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
