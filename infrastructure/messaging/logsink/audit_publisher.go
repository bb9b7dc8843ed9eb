// Package logsink writes audit events to the structured log. It serves as
// the audit sink for local development and tests, where no event bus is
// available.
package logsink

import (
	"context"

	"go.uber.org/zap"

	"modops-backend/application/ports"
)

// AuditPublisher logs each audit event at info level
type AuditPublisher struct {
	logger *zap.Logger
}

// NewAuditPublisher creates a log-backed audit publisher
func NewAuditPublisher(logger *zap.Logger) *AuditPublisher {
	return &AuditPublisher{logger: logger}
}

// Publish records the audit event in the log
func (p *AuditPublisher) Publish(ctx context.Context, event ports.AuditEvent) error {
	p.logger.Info("Audit event",
		zap.String("operationID", event.OperationID),
		zap.String("operationType", event.OperationType),
		zap.String("targetType", event.TargetType),
		zap.String("targetID", event.TargetID),
		zap.String("initiatorID", event.InitiatorID),
		zap.String("action", string(event.Action)),
		zap.String("outcome", event.Outcome),
		zap.String("detail", event.Detail),
		zap.Time("occurredAt", event.OccurredAt),
	)
	return nil
}

var _ ports.AuditPublisher = (*AuditPublisher)(nil)
