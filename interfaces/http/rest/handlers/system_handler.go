package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	"energy-dashboard/application/queries"
	querybus "energy-dashboard/application/queries/bus"
	"energy-dashboard/pkg/common"
	apperrors "energy-dashboard/pkg/errors"
	"energy-dashboard/pkg/utils"
)

// HealthResponse is the /health body
type HealthResponse struct {
	Status    string      `json:"status"`
	Mode      string      `json:"mode"`
	Timestamp string      `json:"timestamp"`
	Store     StoreStatus `json:"store"`
}

// StoreStatus reports store availability
type StoreStatus struct {
	Status ports.StoreStatus `json:"status"`
	Since  string            `json:"since"`
}

// SystemHandler serves health probes and diagnostics
type SystemHandler struct {
	mode         string
	health       ports.StoreHealth
	queryBus     *querybus.QueryBus
	errorHandler *apperrors.ErrorHandler
	logger       *zap.Logger
}

// NewSystemHandler creates a new system handler. mode is "synthetic" or "live".
func NewSystemHandler(
	mode string,
	health ports.StoreHealth,
	queryBus *querybus.QueryBus,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *SystemHandler {
	return &SystemHandler{
		mode:         mode,
		health:       health,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// Health handles GET /health. It always answers 200 while the process runs.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Mode:      h.mode,
		Timestamp: utils.NowISO(),
		Store:     h.storeStatus(),
	})
}

// Ready handles GET /ready. It answers 503 while the store is degraded.
func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	store := h.storeStatus()
	if store.Status == ports.StoreDegraded {
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"store":  store,
		})
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"store":  store,
	})
}

// DebugRaw handles GET /debug/raw
func (h *SystemHandler) DebugRaw(w http.ResponseWriter, r *http.Request) {
	if subject, ok := common.GetSubject(r.Context()); ok {
		h.logger.Info("Raw items requested", zap.String("subject", subject))
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetRawItemsQuery{Limit: 2})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

func (h *SystemHandler) storeStatus() StoreStatus {
	if h.health == nil {
		return StoreStatus{Status: ports.StoreAvailable}
	}
	return StoreStatus{
		Status: h.health.Status(),
		Since:  utils.FormatISO(h.health.Since()),
	}
}
