package persistence

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	"energy-dashboard/pkg/observability"
)

// notifyTimeout bounds a transition event publish
const notifyTimeout = 2 * time.Second

// HealthTracker holds the process-wide store availability flag. Only the
// goroutine that flips the flag publishes the transition.
type HealthTracker struct {
	degraded  atomic.Bool
	since     atomic.Int64
	notifier  ports.HealthNotifier
	collector *observability.Collector
	logger    *zap.Logger
	now       func() time.Time
}

var _ ports.StoreHealth = (*HealthTracker)(nil)

// NewHealthTracker creates a tracker that starts available. notifier and
// collector may be nil.
func NewHealthTracker(notifier ports.HealthNotifier, collector *observability.Collector, logger *zap.Logger) *HealthTracker {
	h := &HealthTracker{
		notifier:  notifier,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
	h.since.Store(h.now().UnixNano())
	return h
}

// Status implements ports.StoreHealth
func (h *HealthTracker) Status() ports.StoreStatus {
	if h.degraded.Load() {
		return ports.StoreDegraded
	}
	return ports.StoreAvailable
}

// Since is when the current status began
func (h *HealthTracker) Since() time.Time {
	return time.Unix(0, h.since.Load()).UTC()
}

// MarkDegraded records a store outage
func (h *HealthTracker) MarkDegraded(ctx context.Context, cause error) {
	if !h.degraded.CompareAndSwap(false, true) {
		return
	}
	h.since.Store(h.now().UnixNano())
	h.collector.SetStoreDegraded(true)
	h.logger.Warn("Energy store degraded", zap.Error(cause))

	if h.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := h.notifier.StoreDegraded(ctx, cause); err != nil {
		h.logger.Error("Failed to publish store degraded event", zap.Error(err))
	}
}

// MarkAvailable records a successful store call
func (h *HealthTracker) MarkAvailable(ctx context.Context) {
	if !h.degraded.CompareAndSwap(true, false) {
		return
	}
	now := h.now()
	downtime := now.Sub(time.Unix(0, h.since.Swap(now.UnixNano())))
	h.collector.SetStoreDegraded(false)
	h.logger.Info("Energy store recovered", zap.Duration("downtime", downtime))

	if h.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := h.notifier.StoreRecovered(ctx, downtime); err != nil {
		h.logger.Error("Failed to publish store recovered event", zap.Error(err))
	}
}
