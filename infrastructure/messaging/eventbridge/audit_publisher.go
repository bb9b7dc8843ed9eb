// Package eventbridge delivers audit events to AWS EventBridge for the
// compliance pipeline.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"modops-backend/application/ports"
)

const eventSource = "modops.operations"

// AuditPublisher implements ports.AuditPublisher using AWS EventBridge
type AuditPublisher struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

// NewAuditPublisher creates an EventBridge-backed audit publisher
func NewAuditPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *AuditPublisher {
	return &AuditPublisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// Publish sends a single audit event to the bus
func (p *AuditPublisher) Publish(ctx context.Context, event ports.AuditEvent) error {
	return p.PublishBatch(ctx, []ports.AuditEvent{event})
}

// PublishBatch sends multiple audit events to the bus. EventBridge limits
// PutEvents to 10 entries per call, so larger batches are chunked.
func (p *AuditPublisher) PublishBatch(ctx context.Context, events []ports.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	const batchSize = 10

	for i := 0; i < len(events); i += batchSize {
		end := i + batchSize
		if end > len(events) {
			end = len(events)
		}
		if err := p.putEvents(ctx, events[i:end]); err != nil {
			return err
		}
	}

	return nil
}

func (p *AuditPublisher) putEvents(ctx context.Context, events []ports.AuditEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(events))

	for _, event := range events {
		detail, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal audit event",
				zap.Error(err),
				zap.String("operationID", event.OperationID),
			)
			continue
		}

		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(eventSource),
			DetailType:   aws.String(fmt.Sprintf("operation.%s", event.Action)),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.OccurredAt),
			Resources: []string{
				fmt.Sprintf("arn:aws:modops::%s", event.OperationID),
			},
		})
	}

	if len(entries) == 0 {
		return nil
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("failed to publish audit events to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("Failed to publish audit event",
					zap.String("operationID", events[i].OperationID),
					zap.String("errorCode", *entry.ErrorCode),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d audit events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("Audit events published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("eventBus", p.eventBusName),
	)

	return nil
}

var _ ports.AuditPublisher = (*AuditPublisher)(nil)
