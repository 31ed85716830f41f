// Package dynamodbtest provides an in-memory DynamoDB query client for tests.
package dynamodbtest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Partition is the partition key value every item is stored under
const Partition = "cft/ems/site1"

var betweenPattern = regexp.MustCompile(`BETWEEN (:\w+) AND (:\w+)`)

// FakeQueryClient serves one table from memory. It understands the key
// conditions the repository builds: partition equality plus an optional
// BETWEEN on the timestamp sort key, compared as strings like DynamoDB does.
type FakeQueryClient struct {
	mu       sync.Mutex
	items    []map[string]types.AttributeValue
	PageSize int
	Err      error
	Calls    []*dynamodb.QueryInput
}

// NewFakeClient stores one item per sort key, each with nh3_unit_1 = 1
func NewFakeClient(sortKeys ...string) *FakeQueryClient {
	f := &FakeQueryClient{}
	for _, sk := range sortKeys {
		f.Put(sk, map[string]types.AttributeValue{
			"value": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"nh3_unit_1": &types.AttributeValueMemberN{Value: "1"},
			}},
		})
	}
	return f
}

// Put stores an item with the given sort key and payload attribute
func (f *FakeQueryClient) Put(sk string, payload map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: Partition},
		"timestamp": &types.AttributeValueMemberS{Value: sk},
		"payload":   &types.AttributeValueMemberM{Value: payload},
	})
}

// Query implements dynamodb.QueryAPIClient
func (f *FakeQueryClient) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, in)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}

	var pk string
	for _, v := range in.ExpressionAttributeValues {
		if s := Str(v); s == Partition {
			pk = s
		}
	}
	var lo, hi string
	bounded := false
	if m := betweenPattern.FindStringSubmatch(aws.ToString(in.KeyConditionExpression)); m != nil {
		lo, hi = Str(in.ExpressionAttributeValues[m[1]]), Str(in.ExpressionAttributeValues[m[2]])
		bounded = true
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		if Str(item["PK"]) != pk {
			continue
		}
		sk := Str(item["timestamp"])
		if bounded && (sk < lo || sk > hi) {
			continue
		}
		matched = append(matched, item)
	}

	ascending := in.ScanIndexForward == nil || *in.ScanIndexForward
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := Str(matched[i]["timestamp"]), Str(matched[j]["timestamp"])
		if ascending {
			return a < b
		}
		return a > b
	})

	if in.ExclusiveStartKey != nil {
		start := Str(in.ExclusiveStartKey["timestamp"])
		idx := len(matched)
		for i, item := range matched {
			if Str(item["timestamp"]) == start {
				idx = i + 1
				break
			}
		}
		matched = matched[idx:]
	}

	limit := len(matched)
	if in.Limit != nil && int(*in.Limit) < limit {
		limit = int(*in.Limit)
	}
	if f.PageSize > 0 && f.PageSize < limit {
		limit = f.PageSize
	}

	out := &dynamodb.QueryOutput{Items: matched[:limit], Count: int32(limit)}
	if limit < len(matched) {
		last := matched[limit-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"PK":        last["PK"],
			"timestamp": last["timestamp"],
		}
	}
	return out, nil
}

// CallCount reports how many queries were issued
func (f *FakeQueryClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// LastCall returns the most recent query input
func (f *FakeQueryClient) LastCall() *dynamodb.QueryInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return nil
	}
	return f.Calls[len(f.Calls)-1]
}

// Str returns the string behind an S attribute, or ""
func Str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// Seq renders from..to inclusive in steps as sort keys
func Seq(from, to, step int) []string {
	var out []string
	for i := from; i <= to; i += step {
		out = append(out, fmt.Sprintf("%d", i))
	}
	return out
}
