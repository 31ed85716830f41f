package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"energy-dashboard/application/queries"
	querybus "energy-dashboard/application/queries/bus"
	"energy-dashboard/infrastructure/export"
	"energy-dashboard/infrastructure/render"
	"energy-dashboard/pkg/common"
	apperrors "energy-dashboard/pkg/errors"
)

// Validation messages for missing parameters.
const (
	MsgMissingRange   = "Missing required query params: start, end (epoch ms)"
	MsgMissingHistory = "Missing required query params: start, end (YYYY-MM-DD)"
)

var (
	pointsParam = common.CountParam{Name: "points", Default: 60, Min: 1, Max: 500}
	limitParam  = common.CountParam{Name: "limit", Default: 100, Min: 1, Max: 500}
	exportParam = common.CountParam{Name: "points", Default: 200, Min: 1, Max: 500}
)

// EnergyHandler handles the energy telemetry endpoints
type EnergyHandler struct {
	queryBus     *querybus.QueryBus
	errorHandler *apperrors.ErrorHandler
	logger       *zap.Logger
	now          func() time.Time
}

// NewEnergyHandler creates a new energy handler
func NewEnergyHandler(queryBus *querybus.QueryBus, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *EnergyHandler {
	return &EnergyHandler{
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
		now:          time.Now,
	}
}

// GetSeries handles GET /energy?points=N
func (h *EnergyHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	if series, ok := h.series(w, r, pointsParam); ok {
		common.RespondJSON(w, http.StatusOK, series)
	}
}

// GetLatest handles GET /energy/latest
func (h *EnergyHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetLatestRecordQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetKpis handles GET /energy/kpis
func (h *EnergyHandler) GetKpis(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetKpiSnapshotQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetRange handles GET /energy/range?start=ms&end=ms&cursor=lastKey
func (h *EnergyHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startParam, endParam := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if startParam == "" || endParam == "" {
		h.errorHandler.Handle(w, r, apperrors.NewValidationError(MsgMissingRange))
		return
	}

	start, startErr := strconv.ParseInt(startParam, 10, 64)
	end, endErr := strconv.ParseInt(endParam, 10, 64)
	if startErr != nil || endErr != nil {
		h.errorHandler.Handle(w, r, apperrors.NewValidationError(queries.MsgInvalidRange))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetRangeQuery{
		Start:  start,
		End:    end,
		Cursor: q.Get("cursor"),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetHistory handles GET /energy/history?start=YYYY-MM-DD&end=YYYY-MM-DD&limit=N
func (h *EnergyHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if start == "" || end == "" {
		h.errorHandler.Handle(w, r, apperrors.NewValidationError(MsgMissingHistory))
		return
	}

	limit, err := limitParam.Extract(r)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewValidationError(queries.MsgInvalidCount).WithCause(err))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetHistoryQuery{
		Start:  start,
		End:    end,
		Limit:  limit,
		Cursor: q.Get("cursor"),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// ExportDataLog handles GET /energy/export
func (h *EnergyHandler) ExportDataLog(w http.ResponseWriter, r *http.Request) {
	series, ok := h.series(w, r, exportParam)
	if !ok {
		return
	}

	body, err := export.DataLogWorkbook(series.Items)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError("Failed to build data log").WithCause(err))
		return
	}

	h.logger.Debug("Exporting data log", zap.Int("rows", len(series.Items)))
	common.RespondAttachment(w, export.ContentTypeXLSX, export.DataLogFilename(h.now()), body)
}

// GetChart handles GET /energy/chart
func (h *EnergyHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	series, ok := h.series(w, r, pointsParam)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.TrendChart(&buf, series.Items, render.ChartOptions{}); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError("Failed to render chart").WithCause(err))
		return
	}

	common.RespondHTML(w, http.StatusOK, buf.Bytes())
}

func (h *EnergyHandler) series(w http.ResponseWriter, r *http.Request, param common.CountParam) (*queries.GetEnergySeriesResult, bool) {
	points, err := param.Extract(r)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewValidationError(queries.MsgInvalidCount).WithCause(err))
		return nil, false
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetEnergySeriesQuery{Points: points})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return nil, false
	}

	series, ok := result.(*queries.GetEnergySeriesResult)
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError("unexpected series result"))
		return nil, false
	}
	return series, true
}
