package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"energy-dashboard/application/queries/bus"
)

// maxDatumsPerCall is the PutMetricData batch limit.
const maxDatumsPerCall = 20

// PutMetricDataAPI is the subset of the CloudWatch client used here
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics buffers query bus metrics and ships them to CloudWatch in batches.
// A nil client turns every call into a no-op.
type Metrics struct {
	namespace string
	client    PutMetricDataAPI
	logger    *zap.Logger

	mu     sync.Mutex
	buffer []types.MetricDatum
	now    func() time.Time
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client PutMetricDataAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

var _ bus.Metrics = (*Metrics)(nil)

type timer struct {
	m      *Metrics
	metric string
	label  string
	start  time.Time
}

func (t *timer) Stop() {
	elapsed := t.m.now().Sub(t.start)
	t.m.add(t.metric, t.label, float64(elapsed.Milliseconds()), types.StandardUnitMilliseconds)
}

// StartTimer implements bus.Metrics
func (m *Metrics) StartTimer(metric, label string) bus.Timer {
	return &timer{m: m, metric: metric, label: label, start: m.now()}
}

// Increment implements bus.Metrics
func (m *Metrics) Increment(metric, label string) {
	m.add(metric, label, 1, types.StandardUnitCount)
}

func (m *Metrics) add(metric, label string, value float64, unit types.StandardUnit) {
	if m.client == nil {
		return
	}
	datum := types.MetricDatum{
		MetricName: aws.String(metric),
		Dimensions: []types.Dimension{
			{
				Name:  aws.String("QueryName"),
				Value: aws.String(label),
			},
		},
		Value:     aws.Float64(value),
		Unit:      unit,
		Timestamp: aws.Time(m.now()),
	}

	m.mu.Lock()
	m.buffer = append(m.buffer, datum)
	m.mu.Unlock()
}

// Pending returns the number of buffered datums
func (m *Metrics) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buffer)
}

// Flush sends buffered datums. Failed batches are logged and dropped.
func (m *Metrics) Flush(ctx context.Context) {
	if m.client == nil {
		return
	}

	m.mu.Lock()
	pending := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	for start := 0; start < len(pending); start += maxDatumsPerCall {
		end := start + maxDatumsPerCall
		if end > len(pending) {
			end = len(pending)
		}
		input := &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: pending[start:end],
		}
		if _, err := m.client.PutMetricData(ctx, input); err != nil {
			m.logger.Warn("Failed to send metrics",
				zap.Error(err),
				zap.Int("datums", end-start),
			)
		}
	}
}

// Start flushes every interval until ctx is done, then flushes once more
func (m *Metrics) Start(ctx context.Context, interval time.Duration) {
	if m.client == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Flush(context.Background())
			return
		case <-ticker.C:
			m.Flush(ctx)
		}
	}
}
