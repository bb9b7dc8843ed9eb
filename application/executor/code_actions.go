package executor

import (
	"context"
	"errors"
	"fmt"

	"modops-backend/application/ports"
	"modops-backend/domain/operation"
)

// CodeActions implements the DELETE_CODE handler triple against the
// invitation code service
type CodeActions struct {
	codes ports.InviteCodeService
}

// NewCodeActions creates the DELETE_CODE action handler
func NewCodeActions(codes ports.InviteCodeService) *CodeActions {
	return &CodeActions{codes: codes}
}

// TargetType identifies the invitation code record
func (a *CodeActions) TargetType() string {
	return "invitation_code"
}

// Apply soft-marks the invitation code deleted
func (a *CodeActions) Apply(ctx context.Context, op *operation.PendingOperation) error {
	if err := a.codes.SoftDeleteCode(ctx, op.TargetID); err != nil {
		return fmt.Errorf("soft delete code %s: %w", op.TargetID, err)
	}
	return nil
}

// Compensate restores the code. A code that is not soft-deleted is left alone.
func (a *CodeActions) Compensate(ctx context.Context, op *operation.PendingOperation) error {
	code, err := a.codes.GetCode(ctx, op.TargetID)
	if err != nil {
		return fmt.Errorf("read code %s: %w", op.TargetID, err)
	}
	if !code.Deleted {
		return nil
	}

	if err := a.codes.RestoreCode(ctx, op.TargetID); err != nil {
		return fmt.Errorf("restore code %s: %w", op.TargetID, err)
	}
	return nil
}

// Finalize purges the code. An already-purged code is treated as done.
func (a *CodeActions) Finalize(ctx context.Context, op *operation.PendingOperation) error {
	_, err := a.codes.GetCode(ctx, op.TargetID)
	if errors.Is(err, ports.ErrTargetNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read code %s: %w", op.TargetID, err)
	}

	if err := a.codes.PurgeCode(ctx, op.TargetID); err != nil {
		return fmt.Errorf("purge code %s: %w", op.TargetID, err)
	}
	return nil
}
