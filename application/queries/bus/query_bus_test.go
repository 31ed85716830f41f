package bus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingQuery struct{ Fail bool }

func (q pingQuery) Validate() error { return nil }

type badQuery struct{}

func (badQuery) Validate() error { return errors.New("bad query") }

type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	timers int
}

func (m *recordingMetrics) StartTimer(metric, label string) Timer {
	m.mu.Lock()
	m.timers++
	m.mu.Unlock()
	return stopFunc(func() {})
}

func (m *recordingMetrics) Increment(metric, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[metric+":"+label]++
}

type stopFunc func()

func (f stopFunc) Stop() { f() }

func TestQueryBus(t *testing.T) {
	metrics := &recordingMetrics{counts: map[string]int{}}
	b := NewQueryBus(NewMetricsMiddleware(metrics))

	require.NoError(t, b.Register(pingQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		if q.(pingQuery).Fail {
			return nil, errors.New("store down")
		}
		return "pong", nil
	})))

	t.Run("Should dispatch to the registered handler", func(t *testing.T) {
		result, err := b.Ask(context.Background(), pingQuery{})
		require.NoError(t, err)
		assert.Equal(t, "pong", result)
		assert.Equal(t, 1, metrics.counts[MetricQueryCount+":ping"])
		assert.Equal(t, 1, metrics.timers)
	})

	t.Run("Should count handler failures", func(t *testing.T) {
		_, err := b.Ask(context.Background(), pingQuery{Fail: true})
		assert.ErrorContains(t, err, "store down")
		assert.Equal(t, 1, metrics.counts[MetricQueryErrors+":ping"])
		assert.Equal(t, 2, metrics.counts[MetricQueryCount+":ping"])
	})

	t.Run("Should reject invalid queries before dispatch", func(t *testing.T) {
		_, err := b.Ask(context.Background(), badQuery{})
		assert.ErrorContains(t, err, "bad query")
		assert.Equal(t, 2, metrics.timers)
	})

	t.Run("Should refuse duplicate registration", func(t *testing.T) {
		err := b.Register(pingQuery{}, QueryHandlerFunc(func(context.Context, Query) (interface{}, error) { return nil, nil }))
		assert.Error(t, err)
	})

	t.Run("Should fail for unregistered queries", func(t *testing.T) {
		other := NewQueryBus()
		_, err := other.Ask(context.Background(), pingQuery{})
		assert.ErrorIs(t, err, ErrNoHandler)
	})

	t.Run("Should list registered queries", func(t *testing.T) {
		assert.Equal(t, []string{"ping"}, b.Registered())
	})
}

func TestName(t *testing.T) {
	assert.Equal(t, "ping", Name(pingQuery{}))
	assert.Equal(t, "ping", Name(&pingQuery{}))
	assert.Equal(t, "badQuery", Name(badQuery{}))
}

func TestMiddlewareOrder(t *testing.T) {
	var calls []string
	tag := func(name string) Middleware {
		return MiddlewareFunc(func(next QueryHandler) QueryHandler {
			return QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
				calls = append(calls, name)
				return next.Handle(ctx, q)
			})
		})
	}

	b := NewQueryBus(tag("outer"), tag("inner"), LoggingMiddleware(zap.NewNop()))
	require.NoError(t, b.Register(pingQuery{}, QueryHandlerFunc(func(context.Context, Query) (interface{}, error) {
		calls = append(calls, "handler")
		return "pong", nil
	})))

	_, err := b.Ask(context.Background(), pingQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "handler"}, calls)
}
