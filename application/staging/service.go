// Package staging owns the create path of the undo-window engine: it
// validates a reversible admin action, applies its side effect synchronously,
// and persists the PENDING record that starts the grace period.
package staging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"modops-backend/application/executor"
	"modops-backend/application/ports"
	"modops-backend/domain/operation"
	apperrors "modops-backend/pkg/errors"
	"modops-backend/pkg/observability"
)

// Request describes a reversible action to stage
type Request struct {
	Type        operation.Type
	TargetID    string
	Payload     json.RawMessage
	InitiatorID string
	Window      time.Duration
}

// Service stages reversible admin actions
type Service struct {
	store    ports.OperationStore
	registry *executor.Registry
	runner   *executor.EffectRunner
	audit    ports.AuditPublisher
	metrics  *observability.Collector
	logger   *zap.Logger
	clock    func() time.Time

	mu     sync.RWMutex
	bounds operation.WindowBounds
}

// NewService creates a staging service
func NewService(
	store ports.OperationStore,
	registry *executor.Registry,
	runner *executor.EffectRunner,
	audit ports.AuditPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
	bounds operation.WindowBounds,
) *Service {
	return &Service{
		store:    store,
		registry: registry,
		runner:   runner,
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
		bounds:   bounds,
		clock:    time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// SetWindowBounds replaces the accepted undo-window bounds. Runtime config
// reloads call this; requests already past validation keep the bounds they
// were checked against.
func (s *Service) SetWindowBounds(bounds operation.WindowBounds) {
	if bounds.Min <= 0 || bounds.Max < bounds.Min {
		return
	}
	s.mu.Lock()
	s.bounds = bounds
	s.mu.Unlock()

	s.logger.Info("Window bounds updated",
		zap.Duration("min", bounds.Min),
		zap.Duration("max", bounds.Max),
	)
}

func (s *Service) windowBounds() operation.WindowBounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// Stage validates the request, applies the side effect synchronously, and
// persists the PENDING record. The undo window only starts once the effect
// is actually live, so Apply blocks the creation call.
func (s *Service) Stage(ctx context.Context, req Request) (*operation.PendingOperation, error) {
	handler, err := s.registry.Handler(req.Type)
	if err != nil {
		return nil, err
	}

	op, err := operation.New(
		req.Type,
		handler.TargetType(),
		req.TargetID,
		req.Payload,
		req.InitiatorID,
		req.Window,
		s.windowBounds(),
		s.clock(),
	)
	if err != nil {
		return nil, err
	}

	// Apply before persisting: a record must never describe an effect that
	// is not live. If persistence then fails, undo the effect so nothing
	// un-tracked survives.
	if err := handler.Apply(ctx, op); err != nil {
		s.logger.Warn("Staging apply failed",
			zap.String("operationType", string(op.Type)),
			zap.String("targetID", op.TargetID),
			zap.Error(err),
		)
		return nil, apperrors.NewExternalError(handler.TargetType(), err)
	}

	if err := s.store.Create(ctx, op); err != nil {
		s.logger.Error("Failed to persist staged operation, compensating",
			zap.String("operationID", op.ID),
			zap.String("operationType", string(op.Type)),
			zap.Error(err),
		)
		if compErr := s.runner.Compensate(ctx, op); compErr != nil {
			s.logger.Error("Rollback compensation failed after persistence error",
				zap.String("operationID", op.ID),
				zap.Error(compErr),
			)
		}
		return nil, apperrors.NewInternalError("failed to persist staged operation").WithCause(err)
	}

	s.metrics.OperationsStaged.WithLabelValues(string(op.Type)).Inc()
	s.publishAudit(ctx, op)

	s.logger.Info("Staged reversible operation",
		zap.String("operationID", op.ID),
		zap.String("operationType", string(op.Type)),
		zap.String("targetType", op.TargetType),
		zap.String("targetID", op.TargetID),
		zap.String("initiatorID", op.InitiatorID),
		zap.Time("expiresAt", op.ExpiresAt),
	)

	return op, nil
}

func (s *Service) publishAudit(ctx context.Context, op *operation.PendingOperation) {
	event := ports.AuditEvent{
		OperationID:   op.ID,
		OperationType: string(op.Type),
		TargetType:    op.TargetType,
		TargetID:      op.TargetID,
		InitiatorID:   op.InitiatorID,
		Action:        ports.AuditActionCreated,
		Outcome:       "staged",
		OccurredAt:    s.clock().UTC(),
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish staging audit event",
			zap.String("operationID", op.ID),
			zap.Error(err),
		)
	}
}
