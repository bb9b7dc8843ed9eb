package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modops-backend/application/ports"
	"modops-backend/domain/operation"
)

func newTestOperation(t *testing.T, window time.Duration) *operation.PendingOperation {
	t.Helper()
	op, err := operation.New(
		operation.TypeCreateBan,
		"user",
		"user-1",
		[]byte(`{"reason":"spam"}`),
		"admin-1",
		window,
		operation.DefaultWindowBounds,
		time.Now(),
	)
	require.NoError(t, err)
	return op
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewOperationStore()
	op := newTestOperation(t, 30*time.Second)

	require.NoError(t, store.Create(ctx, op))

	got, err := store.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)
	assert.Equal(t, operation.StatusPending, got.Status)
}

func TestCreate_Duplicate(t *testing.T) {
	ctx := context.Background()
	store := NewOperationStore()
	op := newTestOperation(t, 30*time.Second)

	require.NoError(t, store.Create(ctx, op))
	assert.Error(t, store.Create(ctx, op))
}

func TestGet_NotFound(t *testing.T) {
	store := NewOperationStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestGet_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewOperationStore()
	op := newTestOperation(t, 30*time.Second)
	require.NoError(t, store.Create(ctx, op))

	got, err := store.Get(ctx, op.ID)
	require.NoError(t, err)
	got.Status = operation.StatusCommitted

	again, err := store.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, operation.StatusPending, again.Status)
}

func TestListPending_SortedByExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewOperationStore()

	late := newTestOperation(t, 120*time.Second)
	soon := newTestOperation(t, 15*time.Second)
	middle := newTestOperation(t, 60*time.Second)

	require.NoError(t, store.Create(ctx, late))
	require.NoError(t, store.Create(ctx, soon))
	require.NoError(t, store.Create(ctx, middle))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, soon.ID, pending[0].ID)
	assert.Equal(t, middle.ID, pending[1].ID)
	assert.Equal(t, late.ID, pending[2].ID)
}

func TestListPending_ExcludesTerminal(t *testing.T) {
	ctx := context.Background()
	store := NewOperationStore()

	committed := newTestOperation(t, 30*time.Second)
	cancelled := newTestOperation(t, 30*time.Second)
	pending := newTestOperation(t, 30*time.Second)

	require.NoError(t, store.Create(ctx, committed))
	require.NoError(t, store.Create(ctx, cancelled))
	require.NoError(t, store.Create(ctx, pending))

	require.NoError(t, store.Transition(ctx, committed.ID, operation.StatusPending, operation.StatusCommitted))
	require.NoError(t, store.Transition(ctx, cancelled.ID, operation.StatusPending, operation.StatusCancelled))

	got, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pending.ID, got[0].ID)
}

func TestTransition_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := NewOperationStore()
	op := newTestOperation(t, 30*time.Second)
	require.NoError(t, store.Create(ctx, op))

	err := store.Transition(ctx, op.ID, operation.StatusPending, operation.StatusCancelled)
	require.NoError(t, err)

	// The record is terminal now; every further transition loses.
	err = store.Transition(ctx, op.ID, operation.StatusPending, operation.StatusCommitted)
	assert.ErrorIs(t, err, ports.ErrTransitionConflict)

	err = store.Transition(ctx, op.ID, operation.StatusPending, operation.StatusCancelled)
	assert.ErrorIs(t, err, ports.ErrTransitionConflict)

	got, err := store.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, operation.StatusCancelled, got.Status)
}

func TestTransition_NotFound(t *testing.T) {
	store := NewOperationStore()

	err := store.Transition(context.Background(), "missing", operation.StatusPending, operation.StatusCommitted)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestTransition_ExactlyOneWinnerUnderContention(t *testing.T) {
	ctx := context.Background()
	store := NewOperationStore()
	op := newTestOperation(t, 30*time.Second)
	require.NoError(t, store.Create(ctx, op))

	const racers = 32
	var wg sync.WaitGroup
	wins := make(chan operation.Status, racers)

	for i := 0; i < racers; i++ {
		target := operation.StatusCancelled
		if i%2 == 0 {
			target = operation.StatusCommitted
		}
		wg.Add(1)
		go func(to operation.Status) {
			defer wg.Done()
			if err := store.Transition(ctx, op.ID, operation.StatusPending, to); err == nil {
				wins <- to
			}
		}(target)
	}
	wg.Wait()
	close(wins)

	var winners []operation.Status
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1)

	got, err := store.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], got.Status)
}
