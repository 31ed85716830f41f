// Package bus dispatches read queries to their handlers through a chain of
// middleware.
package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNoHandler is returned by Ask for a query type nobody registered.
var ErrNoHandler = errors.New("no handler registered")

// Query represents a read-only query
type Query interface {
	Validate() error
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc is an adapter to allow functions to be used as handlers
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// Middleware decorates every registered handler
type Middleware interface {
	Wrap(next QueryHandler) QueryHandler
}

// MiddlewareFunc adapts a plain function to Middleware
type MiddlewareFunc func(next QueryHandler) QueryHandler

// Wrap implements Middleware
func (f MiddlewareFunc) Wrap(next QueryHandler) QueryHandler {
	return f(next)
}

// Name is the label a query is reported under: its type name without the
// trailing "Query".
func Name(q Query) string {
	t := reflect.TypeOf(q)
	if t == nil {
		return "nil"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return strings.TrimSuffix(t.Name(), "Query")
}

// QueryBus dispatches queries to their handlers
type QueryBus struct {
	mu         sync.RWMutex
	handlers   map[reflect.Type]QueryHandler
	middleware []Middleware
}

// NewQueryBus creates a new query bus. The first middleware is outermost.
func NewQueryBus(middleware ...Middleware) *QueryBus {
	return &QueryBus{
		handlers:   make(map[reflect.Type]QueryHandler),
		middleware: middleware,
	}
}

// Register binds handler to the concrete type of queryType
func (b *QueryBus) Register(queryType Query, handler QueryHandler) error {
	t := reflect.TypeOf(queryType)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for %s", Name(queryType))
	}

	for i := len(b.middleware) - 1; i >= 0; i-- {
		handler = b.middleware[i].Wrap(handler)
	}
	b.handlers[t] = handler
	return nil
}

// Registered lists the names of every registered query, sorted
func (b *QueryBus) Registered() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.handlers))
	for t := range b.handlers {
		names = append(names, strings.TrimSuffix(t.Name(), "Query"))
	}
	sort.Strings(names)
	return names
}

// Ask validates query and runs its handler. Validation failures are
// returned before any handler or middleware runs.
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w for %s", ErrNoHandler, Name(query))
	}

	result, err := handler.Handle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", Name(query), err)
	}
	return result, nil
}

// Metric names reported by MetricsMiddleware.
const (
	MetricQueryDuration = "QueryDuration"
	MetricQueryCount    = "QueryCount"
	MetricQueryErrors   = "QueryErrors"
)

// Metrics records per-query measurements
type Metrics interface {
	StartTimer(metric, label string) Timer
	Increment(metric, label string)
}

// Timer measures one query execution
type Timer interface {
	Stop()
}

// MetricsMiddleware times and counts every query by name
type MetricsMiddleware struct {
	metrics Metrics
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(metrics Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

// Wrap implements Middleware
func (m *MetricsMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		name := Name(query)
		timer := m.metrics.StartTimer(MetricQueryDuration, name)
		defer timer.Stop()

		m.metrics.Increment(MetricQueryCount, name)
		result, err := next.Handle(ctx, query)
		if err != nil {
			m.metrics.Increment(MetricQueryErrors, name)
			return nil, err
		}
		return result, nil
	})
}

// LoggingMiddleware logs every query at debug level, and failures at warn
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return MiddlewareFunc(func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			began := time.Now()
			result, err := next.Handle(ctx, query)

			fields := []zap.Field{
				zap.String("query", Name(query)),
				zap.Duration("elapsed", time.Since(began)),
			}
			if err != nil {
				logger.Warn("Query failed", append(fields, zap.Error(err))...)
				return nil, err
			}
			logger.Debug("Query handled", fields...)
			return result, nil
		})
	})
}
