// Package memory provides an in-memory OperationStore for local development
// and tests. The compare-and-swap semantics match the DynamoDB
// implementation exactly; only the durability differs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"modops-backend/application/ports"
	"modops-backend/domain/operation"
)

// OperationStore is a mutex-guarded map implementation of ports.OperationStore
type OperationStore struct {
	mu         sync.RWMutex
	operations map[string]*operation.PendingOperation
}

// NewOperationStore creates an empty in-memory operation store
func NewOperationStore() *OperationStore {
	return &OperationStore{
		operations: make(map[string]*operation.PendingOperation),
	}
}

// Create persists a new PENDING operation record
func (s *OperationStore) Create(ctx context.Context, op *operation.PendingOperation) error {
	if op == nil || op.ID == "" {
		return fmt.Errorf("invalid operation record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.operations[op.ID]; exists {
		return fmt.Errorf("operation %s already exists", op.ID)
	}

	copied := *op
	s.operations[op.ID] = &copied
	return nil
}

// Get retrieves an operation by id
func (s *OperationStore) Get(ctx context.Context, id string) (*operation.PendingOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, exists := s.operations[id]
	if !exists {
		return nil, ports.ErrNotFound
	}

	copied := *op
	return &copied, nil
}

// ListPending returns pending operations sorted by expiry, soonest first
func (s *OperationStore) ListPending(ctx context.Context) ([]*operation.PendingOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]*operation.PendingOperation, 0)
	for _, op := range s.operations {
		if op.Status == operation.StatusPending {
			copied := *op
			pending = append(pending, &copied)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ExpiresAt.Before(pending[j].ExpiresAt)
	})

	return pending, nil
}

// Transition performs the compare-and-swap under the store lock
func (s *OperationStore) Transition(ctx context.Context, id string, from, to operation.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, exists := s.operations[id]
	if !exists {
		return ports.ErrNotFound
	}
	if op.Status != from {
		return ports.ErrTransitionConflict
	}

	op.Status = to
	return nil
}

var _ ports.OperationStore = (*OperationStore)(nil)
