package observability

import (
	"context"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"

	"energy-dashboard/application/queries/bus"
)

// Tracer opens X-Ray segments for requests and subsegments for queries and
// store calls. A disabled tracer is a no-op, and subsegments are only opened
// under an existing segment.
type Tracer struct {
	serviceName string
	enabled     bool
}

// NewTracer creates a new tracer instance
func NewTracer(serviceName string, enabled bool) *Tracer {
	return &Tracer{
		serviceName: serviceName,
		enabled:     enabled,
	}
}

// Middleware opens one X-Ray segment per HTTP request
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	if !t.active() {
		return next
	}
	return xray.Handler(xray.NewFixedSegmentNamer(t.serviceName), next)
}

// StartSubsegment starts a subsegment within the segment on ctx, if any.
// The returned segment is nil when nothing was opened.
func (t *Tracer) StartSubsegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	if !t.active() || xray.GetSegment(ctx) == nil {
		return ctx, nil
	}
	return xray.BeginSubsegment(ctx, name)
}

// Wrap implements bus.Middleware: each query runs in a "query.<name>"
// subsegment annotated with the query name.
func (t *Tracer) Wrap(next bus.QueryHandler) bus.QueryHandler {
	return bus.QueryHandlerFunc(func(ctx context.Context, query bus.Query) (interface{}, error) {
		name := bus.Name(query)
		ctx, seg := t.StartSubsegment(ctx, "query."+name)
		if seg == nil {
			return next.Handle(ctx, query)
		}

		_ = seg.AddAnnotation("query", name)
		result, err := next.Handle(ctx, query)
		seg.Close(err)
		return result, err
	})
}

func (t *Tracer) active() bool {
	return t != nil && t.enabled
}

var _ bus.Middleware = (*Tracer)(nil)
