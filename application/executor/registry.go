package executor

import (
	"context"
	"sync"

	"modops-backend/domain/operation"
	apperrors "modops-backend/pkg/errors"
)

// ActionHandler implements the three effect hooks for one operation type.
//
// Apply performs the immediate, already-visible side effect during staging.
// Compensate reverses it after a won PENDING -> CANCELLED transition.
// Finalize makes it permanent after a won PENDING -> COMMITTED transition.
// Compensate and Finalize must be idempotent: they check the current state
// of the target and no-op when it is already in the desired condition, so a
// crash-and-retry never double-applies an effect.
type ActionHandler interface {
	// TargetType names the kind of domain record this action mutates
	TargetType() string

	Apply(ctx context.Context, op *operation.PendingOperation) error
	Compensate(ctx context.Context, op *operation.PendingOperation) error
	Finalize(ctx context.Context, op *operation.PendingOperation) error
}

// Registry maps operation types to their action handlers. Adding a new
// reversible action type means registering a handler here, never touching
// the engine's control flow.
type Registry struct {
	mu       sync.RWMutex
	handlers map[operation.Type]ActionHandler
}

// NewRegistry creates an empty action handler registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[operation.Type]ActionHandler),
	}
}

// Register adds a handler for the given operation type, replacing any
// previous registration
func (r *Registry) Register(opType operation.Type, handler ActionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[opType] = handler
}

// Handler returns the handler for the given operation type, or an
// unsupported-operation error when none is registered
func (r *Registry) Handler(opType operation.Type) (ActionHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[opType]
	if !ok {
		return nil, apperrors.NewUnsupportedOperationError(string(opType))
	}
	return handler, nil
}

// Supports reports whether a handler is registered for the operation type
func (r *Registry) Supports(opType operation.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[opType]
	return ok
}

// Types returns all registered operation types
func (r *Registry) Types() []operation.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]operation.Type, 0, len(r.handlers))
	for opType := range r.handlers {
		types = append(types, opType)
	}
	return types
}
