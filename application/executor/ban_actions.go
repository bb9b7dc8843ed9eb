package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modops-backend/application/ports"
	"modops-backend/domain/operation"
)

// BanPayload carries the request parameters needed to apply, reverse, or
// finalize a ban
type BanPayload struct {
	Reason          string `json:"reason"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// BanActions implements the CREATE_BAN handler triple against the ban service
type BanActions struct {
	bans ports.BanService
}

// NewBanActions creates the CREATE_BAN action handler
func NewBanActions(bans ports.BanService) *BanActions {
	return &BanActions{bans: bans}
}

// TargetType identifies the banned user record
func (a *BanActions) TargetType() string {
	return "user"
}

// Apply inserts an immediately-active ban row
func (a *BanActions) Apply(ctx context.Context, op *operation.PendingOperation) error {
	var payload BanPayload
	if err := json.Unmarshal(op.Payload, &payload); err != nil {
		return fmt.Errorf("decode ban payload: %w", err)
	}

	duration := time.Duration(payload.DurationSeconds) * time.Second
	if err := a.bans.CreateBan(ctx, op.TargetID, payload.Reason, op.InitiatorID, duration); err != nil {
		return fmt.Errorf("create ban for user %s: %w", op.TargetID, err)
	}
	return nil
}

// Compensate lifts the ban. Already-lifted bans are left alone.
func (a *BanActions) Compensate(ctx context.Context, op *operation.PendingOperation) error {
	ban, err := a.bans.GetBan(ctx, op.TargetID)
	if errors.Is(err, ports.ErrTargetNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read ban for user %s: %w", op.TargetID, err)
	}
	if !ban.Active {
		return nil
	}

	if err := a.bans.LiftBan(ctx, op.TargetID); err != nil {
		return fmt.Errorf("lift ban for user %s: %w", op.TargetID, err)
	}
	return nil
}

// Finalize marks the ban permanent, releasing grace-period bookkeeping
func (a *BanActions) Finalize(ctx context.Context, op *operation.PendingOperation) error {
	ban, err := a.bans.GetBan(ctx, op.TargetID)
	if err != nil {
		return fmt.Errorf("read ban for user %s: %w", op.TargetID, err)
	}
	if ban.Permanent {
		return nil
	}

	if err := a.bans.MarkBanPermanent(ctx, op.TargetID); err != nil {
		return fmt.Errorf("mark ban permanent for user %s: %w", op.TargetID, err)
	}
	return nil
}
