// Package cancel owns the synchronous undo path: it races the expiry
// sweeper for the PENDING record through the store's compare-and-swap and
// compensates the staged effect when it wins.
package cancel

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"modops-backend/application/executor"
	"modops-backend/application/ports"
	"modops-backend/domain/operation"
	apperrors "modops-backend/pkg/errors"
	"modops-backend/pkg/observability"
)

// Service cancels still-pending operations
type Service struct {
	store   ports.OperationStore
	runner  *executor.EffectRunner
	audit   ports.AuditPublisher
	metrics *observability.Collector
	logger  *zap.Logger
	clock   func() time.Time
}

// NewService creates a cancellation service
func NewService(
	store ports.OperationStore,
	runner *executor.EffectRunner,
	audit ports.AuditPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:   store,
		runner:  runner,
		audit:   audit,
		metrics: metrics,
		logger:  logger,
		clock:   time.Now,
	}
}

// Cancel attempts the PENDING -> CANCELLED transition for the operation.
// Exactly one caller can win the compare-and-swap; everyone else receives a
// conflict that distinguishes an operation that already became permanent
// from a duplicate cancel request.
func (s *Service) Cancel(ctx context.Context, operationID, adminID string) (*operation.PendingOperation, error) {
	if operationID == "" {
		return nil, apperrors.NewValidationError("operation id is required")
	}

	err := s.store.Transition(ctx, operationID, operation.StatusPending, operation.StatusCancelled)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("operation")
	}
	if errors.Is(err, ports.ErrTransitionConflict) {
		s.metrics.TransitionConflicts.WithLabelValues("cancel").Inc()
		return nil, s.conflictReason(ctx, operationID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to transition operation").WithCause(err)
	}

	op, err := s.store.Get(ctx, operationID)
	if err != nil {
		// The transition is durable even if the re-read fails; surface the
		// degraded outcome instead of pretending the cancel did not happen.
		return nil, apperrors.NewInternalError("operation cancelled but could not be re-read").WithCause(err)
	}

	s.metrics.OperationsCancelled.WithLabelValues(string(op.Type)).Inc()
	s.logger.Info("Cancelled pending operation",
		zap.String("operationID", op.ID),
		zap.String("operationType", string(op.Type)),
		zap.String("cancelledBy", adminID),
	)

	// Compensation runs after the won transition. Its failure degrades to an
	// operator-visible alert inside the runner; the status stays CANCELLED.
	if err := s.runner.Compensate(ctx, op); err != nil {
		s.publishAudit(ctx, op, adminID, "compensation_failed")
		return op, err
	}

	s.publishAudit(ctx, op, adminID, "compensated")
	return op, nil
}

// conflictReason re-reads the record after a lost race to tell the caller
// which terminal outcome already happened
func (s *Service) conflictReason(ctx context.Context, operationID string) error {
	op, err := s.store.Get(ctx, operationID)
	if err != nil {
		return apperrors.NewConflictError(apperrors.CodeAlreadyCommitted, "operation is no longer pending")
	}

	switch op.Status {
	case operation.StatusCancelled:
		return apperrors.NewConflictError(apperrors.CodeAlreadyCancelled, "operation was already cancelled")
	default:
		return apperrors.NewConflictError(apperrors.CodeAlreadyCommitted, "operation already became permanent")
	}
}

func (s *Service) publishAudit(ctx context.Context, op *operation.PendingOperation, adminID, outcome string) {
	event := ports.AuditEvent{
		OperationID:   op.ID,
		OperationType: string(op.Type),
		TargetType:    op.TargetType,
		TargetID:      op.TargetID,
		InitiatorID:   adminID,
		Action:        ports.AuditActionCancelled,
		Outcome:       outcome,
		OccurredAt:    s.clock().UTC(),
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish cancel audit event",
			zap.String("operationID", op.ID),
			zap.Error(err),
		)
	}
}
