package dynamodb

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"energy-dashboard/application/ports"
	"energy-dashboard/domain/energy"
)

// encodeCursor turns a LastEvaluatedKey into an opaque URL-safe token.
func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	var plain map[string]any
	if err := attributevalue.UnmarshalMap(key, &plain); err != nil {
		return "", fmt.Errorf("failed to decode last evaluated key: %w", err)
	}
	data, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// decodeCursor reverses encodeCursor. The key must belong to partition.
func decodeCursor(cursor, partition string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrInvalidCursor, err)
	}
	var plain map[string]any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrInvalidCursor, err)
	}
	if pk, _ := plain[energy.AttrPartitionKey].(string); pk != partition {
		return nil, fmt.Errorf("%w: cursor belongs to another partition", ports.ErrInvalidCursor)
	}
	key, err := attributevalue.MarshalMap(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrInvalidCursor, err)
	}
	return key, nil
}
