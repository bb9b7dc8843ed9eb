package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"modops-backend/application/ports"
	"modops-backend/domain/operation"
	apperrors "modops-backend/pkg/errors"
	"modops-backend/pkg/observability"
)

const (
	effectCompensate = "compensate"
	effectFinalize   = "finalize"
)

// EffectRunner executes compensate/finalize effects after a won status
// transition. Effect failures never roll the transition back: the effect is
// retried with exponential backoff and, when retries are exhausted, flagged
// for manual operator review through the logs, metrics, and the audit sink.
type EffectRunner struct {
	registry   *Registry
	audit      ports.AuditPublisher
	metrics    *observability.Collector
	logger     *zap.Logger
	maxRetries int
	baseDelay  time.Duration
}

// NewEffectRunner creates an effect runner with the given retry policy
func NewEffectRunner(
	registry *Registry,
	audit ports.AuditPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
	maxRetries int,
	baseDelay time.Duration,
) *EffectRunner {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	return &EffectRunner{
		registry:   registry,
		audit:      audit,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Apply runs the staging side effect synchronously. It is not retried:
// staging surfaces the failure to the caller and nothing has been persisted.
func (r *EffectRunner) Apply(ctx context.Context, op *operation.PendingOperation) error {
	handler, err := r.registry.Handler(op.Type)
	if err != nil {
		return err
	}
	return handler.Apply(ctx, op)
}

// Compensate reverses the staged effect after a won cancel transition
func (r *EffectRunner) Compensate(ctx context.Context, op *operation.PendingOperation) error {
	handler, err := r.registry.Handler(op.Type)
	if err != nil {
		return err
	}

	if err := r.runWithRetry(ctx, op, effectCompensate, handler.Compensate); err != nil {
		return apperrors.NewCompensationError(op.ID, err)
	}
	return nil
}

// Finalize makes the staged effect permanent after a won commit transition
func (r *EffectRunner) Finalize(ctx context.Context, op *operation.PendingOperation) error {
	handler, err := r.registry.Handler(op.Type)
	if err != nil {
		return err
	}

	if err := r.runWithRetry(ctx, op, effectFinalize, handler.Finalize); err != nil {
		return apperrors.NewFinalizationError(op.ID, err)
	}
	return nil
}

// runWithRetry retries the effect with exponential backoff and flags
// exhausted retries for operator review
func (r *EffectRunner) runWithRetry(
	ctx context.Context,
	op *operation.PendingOperation,
	effect string,
	fn func(ctx context.Context, op *operation.PendingOperation) error,
) error {
	var lastErr error
	delay := r.baseDelay

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		if attempt > 1 {
			r.metrics.EffectRetries.WithLabelValues(string(op.Type), effect).Inc()
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				return r.flagForReview(ctx, op, effect, lastErr)
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err := fn(ctx, op); err != nil {
			lastErr = err
			r.logger.Warn("Effect execution failed",
				zap.String("operationID", op.ID),
				zap.String("operationType", string(op.Type)),
				zap.String("effect", effect),
				zap.Int("attempt", attempt),
				zap.Int("maxRetries", r.maxRetries),
				zap.Error(err),
			)
			continue
		}
		return nil
	}

	return r.flagForReview(ctx, op, effect, lastErr)
}

// flagForReview records an exhausted effect for manual intervention. The
// operation's bookkeeping state and the target's actual state may diverge
// here, but never silently.
func (r *EffectRunner) flagForReview(ctx context.Context, op *operation.PendingOperation, effect string, cause error) error {
	r.metrics.EffectFailures.WithLabelValues(string(op.Type), effect).Inc()
	r.logger.Error("Effect retries exhausted, flagging for operator review",
		zap.String("operationID", op.ID),
		zap.String("operationType", string(op.Type)),
		zap.String("targetType", op.TargetType),
		zap.String("targetID", op.TargetID),
		zap.String("effect", effect),
		zap.Error(cause),
	)

	event := ports.AuditEvent{
		OperationID:   op.ID,
		OperationType: string(op.Type),
		TargetType:    op.TargetType,
		TargetID:      op.TargetID,
		InitiatorID:   op.InitiatorID,
		Action:        ports.AuditActionEffectFailed,
		Outcome:       "failed",
		Detail:        fmt.Sprintf("%s failed after %d attempts: %v", effect, r.maxRetries, cause),
		OccurredAt:    time.Now().UTC(),
	}
	if err := r.audit.Publish(ctx, event); err != nil {
		r.logger.Error("Failed to publish effect failure audit event",
			zap.String("operationID", op.ID),
			zap.Error(err),
		)
	}

	return fmt.Errorf("%s failed after %d attempts: %w", effect, r.maxRetries, cause)
}
