package executor

import (
	"context"
	"errors"
	"fmt"

	"modops-backend/application/ports"
	"modops-backend/domain/operation"
)

// UserActions implements the DELETE_USER handler triple against the user service
type UserActions struct {
	users ports.UserService
}

// NewUserActions creates the DELETE_USER action handler
func NewUserActions(users ports.UserService) *UserActions {
	return &UserActions{users: users}
}

// TargetType identifies the user record
func (a *UserActions) TargetType() string {
	return "user"
}

// Apply soft-marks the user for deletion; the row stays restorable for the
// duration of the undo window
func (a *UserActions) Apply(ctx context.Context, op *operation.PendingOperation) error {
	if err := a.users.SoftDeleteUser(ctx, op.TargetID); err != nil {
		return fmt.Errorf("soft delete user %s: %w", op.TargetID, err)
	}
	return nil
}

// Compensate restores the user. A user that is not soft-deleted is left alone.
func (a *UserActions) Compensate(ctx context.Context, op *operation.PendingOperation) error {
	user, err := a.users.GetUser(ctx, op.TargetID)
	if err != nil {
		return fmt.Errorf("read user %s: %w", op.TargetID, err)
	}
	if !user.Deleted {
		return nil
	}

	if err := a.users.RestoreUser(ctx, op.TargetID); err != nil {
		return fmt.Errorf("restore user %s: %w", op.TargetID, err)
	}
	return nil
}

// Finalize purges the soft-delete marker, making the deletion permanent.
// An already-purged user is treated as done.
func (a *UserActions) Finalize(ctx context.Context, op *operation.PendingOperation) error {
	_, err := a.users.GetUser(ctx, op.TargetID)
	if errors.Is(err, ports.ErrTargetNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read user %s: %w", op.TargetID, err)
	}

	if err := a.users.PurgeUser(ctx, op.TargetID); err != nil {
		return fmt.Errorf("purge user %s: %w", op.TargetID, err)
	}
	return nil
}
