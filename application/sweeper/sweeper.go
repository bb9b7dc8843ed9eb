// Package sweeper drives the undo-window state machine forward in time: a
// recurring background pass promotes expired PENDING operations to COMMITTED
// and finalizes their effects.
package sweeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"modops-backend/application/executor"
	"modops-backend/application/ports"
	"modops-backend/domain/operation"
	"modops-backend/pkg/observability"
)

// Sweeper finalizes operations whose undo window has passed
type Sweeper struct {
	store   ports.OperationStore
	runner  *executor.EffectRunner
	audit   ports.AuditPublisher
	metrics *observability.Collector
	logger  *zap.Logger

	mu       sync.Mutex
	interval time.Duration
	clock    func() time.Time

	intervalChanged chan struct{}
	stopChan        chan struct{}
	stoppedChan     chan struct{}
}

// New creates an expiry sweeper ticking at the given interval
func New(
	store ports.OperationStore,
	runner *executor.EffectRunner,
	audit ports.AuditPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
	interval time.Duration,
) *Sweeper {
	if interval <= 0 {
		interval = time.Second
	}
	return &Sweeper{
		store:           store,
		runner:          runner,
		audit:           audit,
		metrics:         metrics,
		logger:          logger,
		interval:        interval,
		clock:           time.Now,
		intervalChanged: make(chan struct{}, 1),
		stopChan:        make(chan struct{}),
		stoppedChan:     make(chan struct{}),
	}
}

// WithClock overrides the time source, for tests
func (s *Sweeper) WithClock(clock func() time.Time) *Sweeper {
	s.clock = clock
	return s
}

// SetInterval adjusts the tick interval. A running loop resets its ticker
// immediately; otherwise the next Start picks the value up.
func (s *Sweeper) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()

	select {
	case s.intervalChanged <- struct{}{}:
	default:
		// A notification is already queued; the loop re-reads the field.
	}
}

func (s *Sweeper) currentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Start runs a recovery pass for operations stranded by a previous crash,
// then begins the background sweep loop
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting expiry sweeper",
		zap.Duration("interval", s.currentInterval()),
	)

	// Recovery scan: anything that expired while the process was down is
	// finalized exactly like a regular tick would finalize it.
	if err := s.Sweep(ctx); err != nil {
		s.logger.Error("Recovery sweep failed", zap.Error(err))
	}

	go s.loop(ctx)
}

// Stop gracefully stops the sweep loop
func (s *Sweeper) Stop() {
	s.logger.Info("Stopping expiry sweeper")
	close(s.stopChan)
	<-s.stoppedChan
	s.logger.Info("Expiry sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.stoppedChan)

	ticker := time.NewTicker(s.currentInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Context cancelled, stopping expiry sweeper")
			return
		case <-s.stopChan:
			return
		case <-s.intervalChanged:
			ticker.Reset(s.currentInterval())
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("Sweep pass failed", zap.Error(err))
			}
		}
	}
}

// Sweep performs one pass: every pending operation whose window has passed
// is raced through the compare-and-swap and finalized on a win. Lost races
// mean a concurrent cancel owns the outcome, and are skipped silently.
func (s *Sweeper) Sweep(ctx context.Context) error {
	started := s.clock()

	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return err
	}
	s.metrics.SweepBacklog.Set(float64(len(pending)))

	for _, op := range pending {
		// ListPending is sorted soonest-expiring first, so the first
		// unexpired record ends the pass.
		if !op.IsExpired(s.clock()) {
			break
		}
		s.commit(ctx, op)
	}

	s.metrics.SweepDuration.Observe(s.clock().Sub(started).Seconds())
	return nil
}

func (s *Sweeper) commit(ctx context.Context, op *operation.PendingOperation) {
	err := s.store.Transition(ctx, op.ID, operation.StatusPending, operation.StatusCommitted)
	if errors.Is(err, ports.ErrTransitionConflict) || errors.Is(err, ports.ErrNotFound) {
		s.metrics.TransitionConflicts.WithLabelValues("sweeper").Inc()
		return
	}
	if err != nil {
		s.logger.Error("Commit transition failed",
			zap.String("operationID", op.ID),
			zap.Error(err),
		)
		return
	}

	s.metrics.OperationsCommitted.WithLabelValues(string(op.Type)).Inc()
	s.logger.Info("Committed expired operation",
		zap.String("operationID", op.ID),
		zap.String("operationType", string(op.Type)),
		zap.String("targetID", op.TargetID),
	)

	outcome := "finalized"
	if err := s.runner.Finalize(ctx, op); err != nil {
		// The status stays COMMITTED; the runner has already flagged the
		// effect for operator review.
		outcome = "finalization_failed"
	}
	s.publishAudit(ctx, op, outcome)
}

func (s *Sweeper) publishAudit(ctx context.Context, op *operation.PendingOperation, outcome string) {
	event := ports.AuditEvent{
		OperationID:   op.ID,
		OperationType: string(op.Type),
		TargetType:    op.TargetType,
		TargetID:      op.TargetID,
		InitiatorID:   op.InitiatorID,
		Action:        ports.AuditActionCommitted,
		Outcome:       outcome,
		OccurredAt:    s.clock().UTC(),
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish commit audit event",
			zap.String("operationID", op.ID),
			zap.Error(err),
		)
	}
}
