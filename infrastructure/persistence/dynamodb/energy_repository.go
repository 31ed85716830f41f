package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-xray-sdk-go/xray"
	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	"energy-dashboard/domain/energy"
	"energy-dashboard/pkg/observability"
)

// RepositoryConfig locates the telemetry partition and bounds range reads
type RepositoryConfig struct {
	TableName     string
	PartitionKey  string
	SortKey       string
	MaxRangePages int
	MaxRangeItems int
	Timeout       time.Duration
}

// EnergyRepository reads telemetry records from one DynamoDB partition.
// A nil client makes every call fail with ports.ErrStoreUnavailable.
type EnergyRepository struct {
	client    dynamodb.QueryAPIClient
	config    RepositoryConfig
	logger    *zap.Logger
	tracer    *observability.Tracer
	collector *observability.Collector
}

var (
	_ ports.EnergyRepository = (*EnergyRepository)(nil)
	_ ports.RawItemReader    = (*EnergyRepository)(nil)
)

// NewEnergyRepository creates a new EnergyRepository
func NewEnergyRepository(
	client dynamodb.QueryAPIClient,
	config RepositoryConfig,
	logger *zap.Logger,
	tracer *observability.Tracer,
	collector *observability.Collector,
) *EnergyRepository {
	if config.SortKey == "" {
		config.SortKey = energy.AttrTimestamp
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRangePages < 1 {
		config.MaxRangePages = 1
	}
	if config.MaxRangeItems < 1 {
		config.MaxRangeItems = ports.MaxPoints
	}
	return &EnergyRepository{
		client:    client,
		config:    config,
		logger:    logger,
		tracer:    tracer,
		collector: collector,
	}
}

// Latest returns the newest record or nil when the partition is empty
func (r *EnergyRepository) Latest(ctx context.Context) (*energy.Record, error) {
	input, err := r.queryInput(nil, false)
	if err != nil {
		return nil, err
	}
	input.Limit = aws.Int32(1)

	out, err := r.query(ctx, "latest", input)
	if err != nil {
		return nil, err
	}
	records := r.decode(out.Items)
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// LastN returns the newest n records, clamped to 1..500, oldest first.
// Records with equal timestamps keep their fetch order.
func (r *EnergyRepository) LastN(ctx context.Context, n int) ([]energy.Record, error) {
	n = clampCount(n)

	input, err := r.queryInput(nil, false)
	if err != nil {
		return nil, err
	}

	var items []map[string]types.AttributeValue
	for {
		input.Limit = aws.Int32(int32(n - len(items)))
		out, err := r.query(ctx, "lastN", input)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(items) >= n || len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	records := r.decode(items)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ResolvedTimestamp() < records[j].ResolvedTimestamp()
	})
	return records, nil
}

// ByDateRange returns one page of records inside the UTC day range, newest
// first. cursor resumes after the page that issued it.
func (r *EnergyRepository) ByDateRange(ctx context.Context, days energy.DayRange, limit int, cursor string) (energy.Page, error) {
	start, end := days.Bounds()
	input, err := r.queryInput(&[2]int64{start, end}, false)
	if err != nil {
		return energy.Page{}, err
	}
	input.Limit = aws.Int32(int32(clampCount(limit)))

	startKey, err := decodeCursor(cursor, r.config.PartitionKey)
	if err != nil {
		return energy.Page{}, err
	}
	input.ExclusiveStartKey = startKey

	out, err := r.query(ctx, "byDateRange", input)
	if err != nil {
		return energy.Page{}, err
	}

	lastKey, err := encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return energy.Page{}, err
	}
	return energy.Page{Items: r.decode(out.Items), LastKey: lastKey}, nil
}

// ByTimestampRange returns every record between two epoch ms bounds,
// oldest first, following continuation tokens. cursor resumes a capped
// read. Reading stops once MaxRangePages pages were read or MaxRangeItems
// items were kept; the page then carries the cursor after its last item.
func (r *EnergyRepository) ByTimestampRange(ctx context.Context, startMs, endMs int64, cursor string) (energy.Page, error) {
	if r.client == nil {
		return energy.Page{}, r.unavailable("byTimestampRange")
	}

	input, err := r.queryInput(&[2]int64{startMs, endMs}, true)
	if err != nil {
		return energy.Page{}, err
	}
	if input.ExclusiveStartKey, err = decodeCursor(cursor, r.config.PartitionKey); err != nil {
		return energy.Page{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	ctx, seg := r.tracer.StartSubsegment(ctx, "dynamodb.byTimestampRange")

	paginator := dynamodb.NewQueryPaginator(r.client, input)

	var (
		items     []map[string]types.AttributeValue
		pages     int
		lastKey   map[string]types.AttributeValue
		truncated bool
		began     = time.Now()
	)
	for paginator.HasMorePages() && pages < r.config.MaxRangePages {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			err = classifyError(err)
			r.finish(seg, "byTimestampRange", len(items), began, err)
			return energy.Page{}, r.wrap("byTimestampRange", err)
		}
		pages++
		items = append(items, out.Items...)
		lastKey = out.LastEvaluatedKey

		if len(items) > r.config.MaxRangeItems {
			items = items[:r.config.MaxRangeItems]
			lastKey = r.keyOf(items[len(items)-1])
			truncated = true
		}
		if len(items) >= r.config.MaxRangeItems {
			break
		}
	}

	var next string
	if truncated || paginator.HasMorePages() {
		r.logger.Warn("Range read capped",
			zap.Int64("start", startMs),
			zap.Int64("end", endMs),
			zap.Int("pages", pages),
			zap.Int("items", len(items)),
		)
		if next, err = encodeCursor(lastKey); err != nil {
			r.finish(seg, "byTimestampRange", len(items), began, err)
			return energy.Page{}, err
		}
	}

	r.finish(seg, "byTimestampRange", len(items), began, nil)
	r.logger.Debug("Range read complete",
		zap.Int("pages", pages),
		zap.Int("items", len(items)),
		zap.Bool("capped", next != ""),
	)
	return energy.Page{Items: r.decode(items), LastKey: next}, nil
}

// RawLatest returns the newest undecoded items
func (r *EnergyRepository) RawLatest(ctx context.Context, limit int) ([]map[string]any, error) {
	input, err := r.queryInput(nil, false)
	if err != nil {
		return nil, err
	}
	input.Limit = aws.Int32(int32(clampCount(limit)))

	out, err := r.query(ctx, "rawLatest", input)
	if err != nil {
		return nil, err
	}

	raw := make([]map[string]any, 0, len(out.Items))
	for _, item := range out.Items {
		var m map[string]any
		if err := attributevalue.UnmarshalMap(item, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		raw = append(raw, m)
	}
	return raw, nil
}

// queryInput builds a partition query, optionally bounded on the sort key.
// Sort key values are stored as strings, so the bounds are too.
func (r *EnergyRepository) queryInput(bounds *[2]int64, ascending bool) (*dynamodb.QueryInput, error) {
	keyExpr := expression.Key(energy.AttrPartitionKey).Equal(expression.Value(r.config.PartitionKey))
	if bounds != nil {
		keyExpr = keyExpr.And(expression.Key(r.config.SortKey).Between(
			expression.Value(strconv.FormatInt(bounds[0], 10)),
			expression.Value(strconv.FormatInt(bounds[1], 10)),
		))
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.config.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(ascending),
	}, nil
}

// keyOf builds the primary key of item, the shape of a LastEvaluatedKey
func (r *EnergyRepository) keyOf(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		energy.AttrPartitionKey: item[energy.AttrPartitionKey],
		r.config.SortKey:        item[r.config.SortKey],
	}
}

// query runs one Query call under the store timeout, traced and measured
func (r *EnergyRepository) query(ctx context.Context, op string, input *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
	if r.client == nil {
		return nil, r.unavailable(op)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	ctx, seg := r.tracer.StartSubsegment(ctx, "dynamodb."+op)

	began := time.Now()
	out, err := r.client.Query(ctx, input)
	if err != nil {
		err = classifyError(err)
		r.finish(seg, op, 0, began, err)
		return nil, r.wrap(op, err)
	}

	r.finish(seg, op, len(out.Items), began, nil)
	return out, nil
}

func (r *EnergyRepository) finish(seg *xray.Segment, op string, items int, began time.Time, err error) {
	r.collector.ObserveStore(op, items, time.Since(began), err)
	if seg != nil {
		seg.Close(err)
	}
}

func (r *EnergyRepository) unavailable(op string) error {
	r.collector.ObserveStore(op, 0, 0, ports.ErrStoreUnavailable)
	return fmt.Errorf("%s: no store client: %w", op, ports.ErrStoreUnavailable)
}

func (r *EnergyRepository) wrap(op string, err error) error {
	r.logger.Error("Store query failed",
		zap.String("operation", op),
		zap.String("table", r.config.TableName),
		zap.Error(err),
	)
	return fmt.Errorf("failed to query %s: %w", op, err)
}

// decode normalizes items, skipping any that cannot be unmarshaled
func (r *EnergyRepository) decode(items []map[string]types.AttributeValue) []energy.Record {
	records := make([]energy.Record, 0, len(items))
	for _, item := range items {
		var raw map[string]any
		if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
			r.logger.Warn("Failed to parse item", zap.Error(err))
			continue
		}
		if r.config.SortKey != energy.AttrTimestamp {
			if v, ok := raw[r.config.SortKey]; ok {
				raw[energy.AttrSortKey] = v
			}
		}
		records = append(records, energy.NewRecord(raw, r.config.PartitionKey))
	}
	return records
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > ports.MaxPoints {
		return ports.MaxPoints
	}
	return n
}
