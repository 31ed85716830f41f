package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"energy-dashboard/application/queries/bus"
)

type fakeCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestMetricsFlush(t *testing.T) {
	t.Run("Should batch datums per call", func(t *testing.T) {
		cw := &fakeCloudWatch{}
		m := NewMetrics("EnergyDashboard", cw, zap.NewNop())

		for i := 0; i < 45; i++ {
			m.Increment(bus.MetricQueryCount, "GetLatestRecord")
		}
		require.Equal(t, 45, m.Pending())

		m.Flush(context.Background())

		require.Len(t, cw.inputs, 3)
		assert.Len(t, cw.inputs[0].MetricData, 20)
		assert.Len(t, cw.inputs[2].MetricData, 5)
		assert.Equal(t, "EnergyDashboard", aws.ToString(cw.inputs[0].Namespace))
		assert.Equal(t, 0, m.Pending())
	})

	t.Run("Should record timer durations", func(t *testing.T) {
		cw := &fakeCloudWatch{}
		m := NewMetrics("ns", cw, zap.NewNop())
		base := time.Unix(0, 0)
		calls := 0
		m.now = func() time.Time {
			calls++
			return base.Add(time.Duration(calls) * 250 * time.Millisecond)
		}

		m.StartTimer(bus.MetricQueryDuration, "GetRange").Stop()
		m.Flush(context.Background())

		require.Len(t, cw.inputs, 1)
		datum := cw.inputs[0].MetricData[0]
		assert.Equal(t, bus.MetricQueryDuration, aws.ToString(datum.MetricName))
		assert.Equal(t, "GetRange", aws.ToString(datum.Dimensions[0].Value))
		assert.Equal(t, 250.0, aws.ToFloat64(datum.Value))
	})

	t.Run("Should drop failed batches", func(t *testing.T) {
		cw := &fakeCloudWatch{err: errors.New("throttled")}
		m := NewMetrics("ns", cw, zap.NewNop())
		m.Increment(bus.MetricQueryErrors, "GetHistory")
		m.Flush(context.Background())
		assert.Equal(t, 0, m.Pending())
	})

	t.Run("Should ignore everything without a client", func(t *testing.T) {
		m := NewMetrics("ns", nil, zap.NewNop())
		m.Increment(bus.MetricQueryCount, "x")
		m.StartTimer(bus.MetricQueryDuration, "x").Stop()
		assert.Equal(t, 0, m.Pending())
		m.Flush(context.Background())
	})
}

func TestCollector(t *testing.T) {
	c := NewCollector("energy")

	c.ObserveRequest("GET", "/energy", "200", 10*time.Millisecond)
	c.ObserveStore("lastN", 3, time.Millisecond, nil)
	c.ObserveStore("lastN", 0, time.Millisecond, errors.New("x"))
	c.SetStoreDegraded(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/energy", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("lastN", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.StoreItems.WithLabelValues("lastN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreDegraded))

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "energy_http_requests_total")

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "energy_store_degraded")

	var nilCollector *Collector
	nilCollector.ObserveRequest("GET", "/", "200", 0)
	nilCollector.SetStoreDegraded(false)
}

type pingQuery struct{}

func (pingQuery) Validate() error { return nil }

func TestTracerDisabled(t *testing.T) {
	tr := NewTracer("energy-dashboard", false)
	ctx, seg := tr.StartSubsegment(context.Background(), "dynamodb.query")
	assert.Nil(t, seg)
	assert.NotNil(t, ctx)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, tr.Middleware(next))

	t.Run("Should pass queries straight through", func(t *testing.T) {
		b := bus.NewQueryBus(tr)
		require.NoError(t, b.Register(pingQuery{}, bus.QueryHandlerFunc(func(context.Context, bus.Query) (interface{}, error) {
			return "pong", nil
		})))

		result, err := b.Ask(context.Background(), pingQuery{})
		require.NoError(t, err)
		assert.Equal(t, "pong", result)
	})

	t.Run("Should tolerate a nil tracer", func(t *testing.T) {
		var nilTracer *Tracer
		_, seg := nilTracer.StartSubsegment(context.Background(), "x")
		assert.Nil(t, seg)
	})
}

func TestTracerWithoutSegment(t *testing.T) {
	tr := NewTracer("energy-dashboard", true)

	// no request segment on the context, so nothing is opened
	ctx, seg := tr.StartSubsegment(context.Background(), "dynamodb.query")
	assert.Nil(t, seg)
	assert.NotNil(t, ctx)

	handler := tr.Wrap(bus.QueryHandlerFunc(func(context.Context, bus.Query) (interface{}, error) {
		return nil, errors.New("store down")
	}))
	_, err := handler.Handle(context.Background(), pingQuery{})
	assert.EqualError(t, err, "store down")
}
