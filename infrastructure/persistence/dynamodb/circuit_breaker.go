package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"energy-dashboard/application/ports"
)

// BreakerConfig holds configuration for the store circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// trip once at least MinRequests were seen and this share failed
	FailureThreshold float64
	MinRequests      uint32
}

// BreakerClient guards a DynamoDB query client with a circuit breaker that
// trips on credential failures. While it is open calls fail fast with
// gobreaker.ErrOpenState, which the repository reports as store unavailable.
type BreakerClient struct {
	next dynamodb.QueryAPIClient
	cb   *gobreaker.CircuitBreaker
}

var _ dynamodb.QueryAPIClient = (*BreakerClient)(nil)

// NewBreakerClient wraps next and logs every state transition
func NewBreakerClient(next dynamodb.QueryAPIClient, config BreakerConfig, logger *zap.Logger) *BreakerClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Only credential failures trip the breaker. Failing queries are
		// reported as errors and must not turn into degraded empty results.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(classifyError(err), ports.ErrStoreUnavailable)
		},
	})

	return &BreakerClient{next: next, cb: cb}
}

// Query implements dynamodb.QueryAPIClient
func (c *BreakerClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.next.Query(ctx, params, optFns...)
	})
	if err != nil {
		return nil, err
	}
	return out.(*dynamodb.QueryOutput), nil
}

// State reports the breaker state
func (c *BreakerClient) State() gobreaker.State {
	return c.cb.State()
}
