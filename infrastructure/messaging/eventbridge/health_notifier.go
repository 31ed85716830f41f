package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"energy-dashboard/application/ports"
)

// Source is the EventBridge source of every event this service publishes
const Source = "energy-dashboard"

// Detail types
const (
	DetailTypeStoreDegraded  = "StoreDegraded"
	DetailTypeStoreRecovered = "StoreRecovered"
)

// PutEventsAPI is the part of the EventBridge client the notifier uses
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// StoreEvent is the detail of a store availability event
type StoreEvent struct {
	EventID    string    `json:"eventId"`
	Partition  string    `json:"partition"`
	Table      string    `json:"table"`
	Status     string    `json:"status"`
	Cause      string    `json:"cause,omitempty"`
	DowntimeMs int64     `json:"downtimeMs,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// HealthNotifier implements ports.HealthNotifier using AWS EventBridge
type HealthNotifier struct {
	client       PutEventsAPI
	eventBusName string
	table        string
	partition    string
	logger       *zap.Logger
}

var _ ports.HealthNotifier = (*HealthNotifier)(nil)

// NewHealthNotifier creates a new HealthNotifier. With no client or bus
// name events are only logged.
func NewHealthNotifier(client PutEventsAPI, eventBusName, table, partition string, logger *zap.Logger) *HealthNotifier {
	return &HealthNotifier{
		client:       client,
		eventBusName: eventBusName,
		table:        table,
		partition:    partition,
		logger:       logger,
	}
}

// StoreDegraded publishes a StoreDegraded event
func (n *HealthNotifier) StoreDegraded(ctx context.Context, cause error) error {
	event := n.event(ports.StoreDegraded)
	if cause != nil {
		event.Cause = cause.Error()
	}
	return n.publish(ctx, DetailTypeStoreDegraded, event)
}

// StoreRecovered publishes a StoreRecovered event
func (n *HealthNotifier) StoreRecovered(ctx context.Context, downtime time.Duration) error {
	event := n.event(ports.StoreAvailable)
	event.DowntimeMs = downtime.Milliseconds()
	return n.publish(ctx, DetailTypeStoreRecovered, event)
}

func (n *HealthNotifier) event(status ports.StoreStatus) StoreEvent {
	return StoreEvent{
		EventID:    uuid.New().String(),
		Partition:  n.partition,
		Table:      n.table,
		Status:     string(status),
		OccurredAt: time.Now().UTC(),
	}
}

func (n *HealthNotifier) publish(ctx context.Context, detailType string, event StoreEvent) error {
	if n.client == nil || n.eventBusName == "" {
		n.logger.Debug("Event bus not configured, skipping event",
			zap.String("detailType", detailType),
		)
		return nil
	}

	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", detailType, err)
	}

	result, err := n.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(n.eventBusName),
			Source:       aws.String(Source),
			DetailType:   aws.String(detailType),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.OccurredAt),
			Resources:    []string{fmt.Sprintf("arn:aws:dynamodb:::table/%s", n.table)},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, entry := range result.Entries {
			if entry.ErrorCode != nil {
				n.logger.Error("Failed to publish event",
					zap.String("detailType", detailType),
					zap.String("errorCode", *entry.ErrorCode),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	n.logger.Info("Store event published",
		zap.String("detailType", detailType),
		zap.String("eventId", event.EventID),
		zap.String("eventBus", n.eventBusName),
	)
	return nil
}
