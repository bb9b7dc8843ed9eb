package operation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "modops-backend/pkg/errors"
)

// Type identifies a reversible admin action
type Type string

const (
	TypeCreateBan  Type = "CREATE_BAN"
	TypeDeleteUser Type = "DELETE_USER"
	TypeDeleteCode Type = "DELETE_CODE"
)

// Status represents the lifecycle status of a pending operation.
// PENDING is the only non-terminal state; COMMITTED and CANCELLED are
// terminal and never change once set.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCommitted Status = "COMMITTED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether the status permits no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusCommitted || s == StatusCancelled
}

// WindowBounds constrains how long a staged action may remain reversible
type WindowBounds struct {
	Min time.Duration
	Max time.Duration
}

// DefaultWindowBounds matches the product default of 10s-300s undo windows
var DefaultWindowBounds = WindowBounds{
	Min: 10 * time.Second,
	Max: 300 * time.Second,
}

// PendingOperation is a staged admin action that took effect immediately
// but stays reversible until its undo window expires
type PendingOperation struct {
	ID          string          `json:"id"`
	Type        Type            `json:"operation_type"`
	TargetType  string          `json:"target_type"`
	TargetID    string          `json:"target_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	InitiatorID string          `json:"initiator_id"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Status      Status          `json:"status"`
}

// New validates the undo window against bounds and builds a PENDING operation
func New(opType Type, targetType, targetID string, payload json.RawMessage, initiatorID string, window time.Duration, bounds WindowBounds, now time.Time) (*PendingOperation, error) {
	if opType == "" {
		return nil, apperrors.NewValidationError("operation type is required")
	}
	if targetType == "" {
		return nil, apperrors.NewValidationError("target type is required")
	}
	if targetID == "" {
		return nil, apperrors.NewValidationError("target id is required")
	}
	if initiatorID == "" {
		return nil, apperrors.NewValidationError("initiator id is required")
	}
	if window < bounds.Min || window > bounds.Max {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("undo window must be between %s and %s", bounds.Min, bounds.Max),
		).WithDetails(map[string]interface{}{
			"requested_seconds": int(window.Seconds()),
			"min_seconds":       int(bounds.Min.Seconds()),
			"max_seconds":       int(bounds.Max.Seconds()),
		})
	}

	now = now.UTC()
	return &PendingOperation{
		ID:          uuid.New().String(),
		Type:        opType,
		TargetType:  targetType,
		TargetID:    targetID,
		Payload:     payload,
		InitiatorID: initiatorID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(window),
		Status:      StatusPending,
	}, nil
}

// IsExpired reports whether the undo window has passed at the given instant
func (op *PendingOperation) IsExpired(now time.Time) bool {
	return !now.Before(op.ExpiresAt)
}

// Remaining returns the time left in the undo window, floored at zero
func (op *PendingOperation) Remaining(now time.Time) time.Duration {
	remaining := op.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanTransitionTo reports whether moving to the target status is legal.
// Only PENDING -> COMMITTED and PENDING -> CANCELLED exist; the store's
// compare-and-swap enforces this atomically, this check is for validation
// before the round trip.
func (op *PendingOperation) CanTransitionTo(target Status) bool {
	return op.Status == StatusPending && target.IsTerminal()
}
