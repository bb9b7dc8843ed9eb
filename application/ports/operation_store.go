package ports

import (
	"context"
	"errors"

	"modops-backend/domain/operation"
)

// ErrNotFound is returned when no operation exists for the given id
var ErrNotFound = errors.New("operation not found")

// ErrTransitionConflict is returned when a compare-and-swap transition
// loses the race because the record is no longer in the expected status
var ErrTransitionConflict = errors.New("operation status transition conflict")

// OperationStore is the durable record of staged actions and their lifecycle.
// Transition is the sole source of mutual exclusion in the engine: it must be
// an atomic conditional update anchored in the persisted record, so the
// design stays correct across multiple server processes sharing one store.
type OperationStore interface {
	// Create persists a new PENDING operation record
	Create(ctx context.Context, op *operation.PendingOperation) error

	// Get retrieves an operation by id, or ErrNotFound
	Get(ctx context.Context, id string) (*operation.PendingOperation, error)

	// ListPending returns all PENDING operations sorted by expiry,
	// soonest-expiring first
	ListPending(ctx context.Context) ([]*operation.PendingOperation, error)

	// Transition atomically moves the operation from one status to another.
	// It returns ErrTransitionConflict when the record is not currently in
	// the expected "from" status, and ErrNotFound when no record exists.
	Transition(ctx context.Context, id string, from, to operation.Status) error
}
