package ports

import (
	"context"
	"errors"
	"time"

	"energy-dashboard/domain/energy"
)

// ErrStoreUnavailable marks store failures that degrade instead of failing
// the request: no client, unusable credentials, or an open circuit.
var ErrStoreUnavailable = errors.New("energy store unavailable")

// ErrInvalidCursor is returned for continuation tokens the store did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// MaxPoints bounds every count or page-size parameter.
const MaxPoints = 500

// EnergyRepository defines read access to the telemetry partition.
// This is a port in hexagonal architecture; DynamoDB and the synthetic
// generator both implement it.
type EnergyRepository interface {
	// Latest returns the newest record, or nil when the partition is empty
	Latest(ctx context.Context) (*energy.Record, error)

	// LastN returns up to n newest records ordered oldest first
	LastN(ctx context.Context, n int) ([]energy.Record, error)

	// ByDateRange returns one page of records inside the day range, newest first
	ByDateRange(ctx context.Context, days energy.DayRange, limit int, cursor string) (energy.Page, error)

	// ByTimestampRange returns records between two epoch ms bounds, oldest
	// first. A capped read carries a cursor that resumes it.
	ByTimestampRange(ctx context.Context, startMs, endMs int64, cursor string) (energy.Page, error)
}

// RawItemReader exposes undecoded items for troubleshooting.
type RawItemReader interface {
	RawLatest(ctx context.Context, limit int) ([]map[string]any, error)
}

// StoreStatus is the last observed store availability.
type StoreStatus string

const (
	StoreAvailable StoreStatus = "available"
	StoreDegraded  StoreStatus = "degraded"
)

// StoreHealth reports store availability to health probes.
type StoreHealth interface {
	Status() StoreStatus
	Since() time.Time
}

// HealthNotifier publishes store availability transitions.
type HealthNotifier interface {
	StoreDegraded(ctx context.Context, cause error) error
	StoreRecovered(ctx context.Context, downtime time.Duration) error
}
