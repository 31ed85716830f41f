// Package handlers implements the read-side query handlers.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	"energy-dashboard/application/queries"
	"energy-dashboard/application/queries/bus"
	"energy-dashboard/application/views"
	"energy-dashboard/domain/energy"
	apperrors "energy-dashboard/pkg/errors"
)

// Store failure messages, one per endpoint.
const (
	MsgFetchSeries  = "Failed to fetch energy data"
	MsgFetchLatest  = "Failed to fetch latest energy data"
	MsgFetchRange   = "Failed to fetch range"
	MsgFetchHistory = "Failed to fetch history"
	MsgFetchRaw     = "Failed to fetch raw items"
)

// EnergyQueryHandlers serves every energy query from one repository
type EnergyQueryHandlers struct {
	repo      ports.EnergyRepository
	raw       ports.RawItemReader
	synthetic bool
	logger    *zap.Logger
}

// NewEnergyQueryHandlers creates the handlers. raw may be nil; synthetic
// disables raw reads.
func NewEnergyQueryHandlers(
	repo ports.EnergyRepository,
	raw ports.RawItemReader,
	synthetic bool,
	logger *zap.Logger,
) *EnergyQueryHandlers {
	return &EnergyQueryHandlers{
		repo:      repo,
		raw:       raw,
		synthetic: synthetic,
		logger:    logger,
	}
}

// Register adds every energy query to the bus
func (h *EnergyQueryHandlers) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandlerFunc
	}{
		{queries.GetEnergySeriesQuery{}, h.series},
		{queries.GetLatestRecordQuery{}, h.latest},
		{queries.GetKpiSnapshotQuery{}, h.kpis},
		{queries.GetRangeQuery{}, h.byRange},
		{queries.GetHistoryQuery{}, h.history},
		{queries.GetRawItemsQuery{}, h.rawItems},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *EnergyQueryHandlers) series(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetEnergySeriesQuery)
	if !ok {
		return nil, unexpected(q)
	}

	records, err := h.repo.LastN(ctx, query.Points)
	if err != nil {
		return nil, storeError(MsgFetchSeries, err)
	}

	h.logger.Debug("Returning energy series", zap.Int("points", len(records)))
	return &queries.GetEnergySeriesResult{Items: views.ToDataPoints(records)}, nil
}

func (h *EnergyQueryHandlers) latest(ctx context.Context, q bus.Query) (interface{}, error) {
	if _, ok := q.(queries.GetLatestRecordQuery); !ok {
		return nil, unexpected(q)
	}

	rec, err := h.repo.Latest(ctx)
	if err != nil {
		return nil, storeError(MsgFetchLatest, err)
	}
	return &queries.GetLatestRecordResult{Item: rec}, nil
}

func (h *EnergyQueryHandlers) kpis(ctx context.Context, q bus.Query) (interface{}, error) {
	if _, ok := q.(queries.GetKpiSnapshotQuery); !ok {
		return nil, unexpected(q)
	}

	rec, err := h.repo.Latest(ctx)
	if err != nil {
		return nil, storeError(MsgFetchLatest, err)
	}
	snapshot := views.ToKpiSnapshot(rec)
	return &snapshot, nil
}

func (h *EnergyQueryHandlers) byRange(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetRangeQuery)
	if !ok {
		return nil, unexpected(q)
	}

	page, err := h.repo.ByTimestampRange(ctx, query.Start, query.End, query.Cursor)
	if err != nil {
		return nil, storeError(MsgFetchRange, err)
	}
	return pageResult(page), nil
}

func (h *EnergyQueryHandlers) history(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetHistoryQuery)
	if !ok {
		return nil, unexpected(q)
	}

	days, err := query.Days()
	if err != nil {
		return nil, apperrors.NewValidationError(queries.MsgInvalidHistory).WithCause(err)
	}

	page, err := h.repo.ByDateRange(ctx, days, query.Limit, query.Cursor)
	if err != nil {
		return nil, storeError(MsgFetchHistory, err)
	}
	return pageResult(page), nil
}

func (h *EnergyQueryHandlers) rawItems(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetRawItemsQuery)
	if !ok {
		return nil, unexpected(q)
	}
	if h.synthetic || h.raw == nil {
		return &queries.SyntheticRawResult{Mode: "synthetic"}, nil
	}

	items, err := h.raw.RawLatest(ctx, query.Limit)
	if err != nil {
		return nil, storeError(MsgFetchRaw, err)
	}

	result := &queries.GetRawItemsResult{ItemCount: len(items), PayloadKeys: []string{}}
	if len(items) == 0 {
		return result, nil
	}
	result.RawItem = items[0]
	if payload, ok := items[0]["payload"].(map[string]any); ok {
		for k := range payload {
			result.PayloadKeys = append(result.PayloadKeys, k)
		}
		sort.Strings(result.PayloadKeys)
	}
	result.Strategy, _ = energy.NormalizeStrategy(items[0])
	return result, nil
}

func pageResult(page energy.Page) *queries.RecordPageResult {
	items := page.Items
	if items == nil {
		items = []energy.Record{}
	}
	return &queries.RecordPageResult{Items: items, LastKey: page.LastKey}
}

// storeError maps repository failures to client errors. A foreign cursor
// is the caller's fault; everything else is a store failure.
func storeError(message string, err error) error {
	if errors.Is(err, ports.ErrInvalidCursor) {
		return apperrors.NewValidationError(queries.MsgInvalidCursor).WithCause(err)
	}
	return apperrors.NewDatabaseError(message, err)
}

func unexpected(q bus.Query) error {
	return apperrors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
}
