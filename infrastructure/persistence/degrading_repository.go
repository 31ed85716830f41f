// Package persistence holds store-agnostic repository decorators.
package persistence

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	"energy-dashboard/domain/energy"
)

// DegradingRepository turns store outages into empty results, or into the
// fallback's results when one is configured, and keeps the health flag
// current. Errors other than ports.ErrStoreUnavailable pass through.
type DegradingRepository struct {
	primary  ports.EnergyRepository
	fallback ports.EnergyRepository
	health   *HealthTracker
	logger   *zap.Logger
}

var (
	_ ports.EnergyRepository = (*DegradingRepository)(nil)
	_ ports.RawItemReader    = (*DegradingRepository)(nil)
)

// NewDegradingRepository creates a new DegradingRepository. fallback may be nil.
func NewDegradingRepository(primary, fallback ports.EnergyRepository, health *HealthTracker, logger *zap.Logger) *DegradingRepository {
	return &DegradingRepository{
		primary:  primary,
		fallback: fallback,
		health:   health,
		logger:   logger,
	}
}

// Latest implements ports.EnergyRepository
func (r *DegradingRepository) Latest(ctx context.Context) (*energy.Record, error) {
	rec, err := r.primary.Latest(ctx)
	if r.degrade(ctx, "latest", err) {
		if r.fallback != nil {
			return r.fallback.Latest(ctx)
		}
		return nil, nil
	}
	return rec, err
}

// LastN implements ports.EnergyRepository
func (r *DegradingRepository) LastN(ctx context.Context, n int) ([]energy.Record, error) {
	records, err := r.primary.LastN(ctx, n)
	if r.degrade(ctx, "lastN", err) {
		if r.fallback != nil {
			return r.fallback.LastN(ctx, n)
		}
		return []energy.Record{}, nil
	}
	return records, err
}

// ByDateRange implements ports.EnergyRepository. A fallback page starts
// from the beginning because store cursors mean nothing to it.
func (r *DegradingRepository) ByDateRange(ctx context.Context, days energy.DayRange, limit int, cursor string) (energy.Page, error) {
	page, err := r.primary.ByDateRange(ctx, days, limit, cursor)
	if r.degrade(ctx, "byDateRange", err) {
		if r.fallback != nil {
			return r.fallback.ByDateRange(ctx, days, limit, "")
		}
		return energy.Page{Items: []energy.Record{}}, nil
	}
	return page, err
}

// ByTimestampRange implements ports.EnergyRepository. Like ByDateRange the
// fallback ignores store cursors.
func (r *DegradingRepository) ByTimestampRange(ctx context.Context, startMs, endMs int64, cursor string) (energy.Page, error) {
	page, err := r.primary.ByTimestampRange(ctx, startMs, endMs, cursor)
	if r.degrade(ctx, "byTimestampRange", err) {
		if r.fallback != nil {
			return r.fallback.ByTimestampRange(ctx, startMs, endMs, "")
		}
		return energy.Page{Items: []energy.Record{}}, nil
	}
	return page, err
}

// RawLatest implements ports.RawItemReader. Raw reads are diagnostic, so
// outages are reported instead of masked.
func (r *DegradingRepository) RawLatest(ctx context.Context, limit int) ([]map[string]any, error) {
	reader, ok := r.primary.(ports.RawItemReader)
	if !ok {
		return nil, nil
	}
	raw, err := reader.RawLatest(ctx, limit)
	r.degrade(ctx, "rawLatest", err)
	return raw, err
}

// degrade updates the health flag and reports whether err is an outage
func (r *DegradingRepository) degrade(ctx context.Context, op string, err error) bool {
	if err == nil {
		r.health.MarkAvailable(ctx)
		return false
	}
	if !errors.Is(err, ports.ErrStoreUnavailable) {
		return false
	}
	r.health.MarkDegraded(ctx, err)
	r.logger.Warn("Serving degraded result",
		zap.String("operation", op),
		zap.Bool("fallback", r.fallback != nil),
		zap.Error(err),
	)
	return true
}
