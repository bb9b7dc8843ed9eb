package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modops-backend/application/ports"
	"modops-backend/domain/operation"
	collabmemory "modops-backend/infrastructure/collaborators/memory"
)

func banOperation(t *testing.T, userID string) *operation.PendingOperation {
	t.Helper()
	op, err := operation.New(
		operation.TypeCreateBan,
		"user",
		userID,
		[]byte(`{"reason":"spam","duration_seconds":3600}`),
		"admin-1",
		30*time.Second,
		operation.DefaultWindowBounds,
		time.Now(),
	)
	require.NoError(t, err)
	return op
}

func targetOperation(t *testing.T, opType operation.Type, targetType, targetID string) *operation.PendingOperation {
	t.Helper()
	op, err := operation.New(
		opType,
		targetType,
		targetID,
		nil,
		"admin-1",
		30*time.Second,
		operation.DefaultWindowBounds,
		time.Now(),
	)
	require.NoError(t, err)
	return op
}

func TestBanActions_ApplyCompensateRoundTrip(t *testing.T) {
	ctx := context.Background()
	bans := collabmemory.NewBanService()
	actions := NewBanActions(bans)
	op := banOperation(t, "user-1")

	require.NoError(t, actions.Apply(ctx, op))

	ban, err := bans.GetBan(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ban.Active)
	assert.Equal(t, "spam", ban.Reason)
	assert.Equal(t, "admin-1", ban.CreatedBy)

	require.NoError(t, actions.Compensate(ctx, op))

	_, err = bans.GetBan(ctx, "user-1")
	assert.ErrorIs(t, err, ports.ErrTargetNotFound)

	// Compensate is idempotent: a second run finds no ban and does nothing.
	assert.NoError(t, actions.Compensate(ctx, op))
}

func TestBanActions_Finalize(t *testing.T) {
	ctx := context.Background()
	bans := collabmemory.NewBanService()
	actions := NewBanActions(bans)
	op := banOperation(t, "user-1")

	require.NoError(t, actions.Apply(ctx, op))
	require.NoError(t, actions.Finalize(ctx, op))

	ban, err := bans.GetBan(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ban.Permanent)

	// Finalize is idempotent on an already-permanent ban.
	assert.NoError(t, actions.Finalize(ctx, op))
}

func TestBanActions_ApplyRejectsBadPayload(t *testing.T) {
	ctx := context.Background()
	actions := NewBanActions(collabmemory.NewBanService())
	op := banOperation(t, "user-1")
	op.Payload = []byte(`{broken`)

	assert.Error(t, actions.Apply(ctx, op))
}

func TestUserActions_ApplyCompensateRoundTrip(t *testing.T) {
	ctx := context.Background()
	users := collabmemory.NewUserService()
	users.Seed(ports.UserRecord{ID: "user-1", Username: "alice", InviteCount: 7, ReportCount: 2})
	actions := NewUserActions(users)
	op := targetOperation(t, operation.TypeDeleteUser, "user", "user-1")

	require.NoError(t, actions.Apply(ctx, op))

	user, err := users.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, user.Deleted)

	require.NoError(t, actions.Compensate(ctx, op))

	user, err = users.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, user.Deleted)
	// Counters survive the soft-delete/restore round trip.
	assert.Equal(t, 7, user.InviteCount)
	assert.Equal(t, 2, user.ReportCount)

	// A second compensate sees an already-restored user and does nothing.
	assert.NoError(t, actions.Compensate(ctx, op))
}

func TestUserActions_Finalize(t *testing.T) {
	ctx := context.Background()
	users := collabmemory.NewUserService()
	users.Seed(ports.UserRecord{ID: "user-1", Username: "alice"})
	actions := NewUserActions(users)
	op := targetOperation(t, operation.TypeDeleteUser, "user", "user-1")

	require.NoError(t, actions.Apply(ctx, op))
	require.NoError(t, actions.Finalize(ctx, op))

	_, err := users.GetUser(ctx, "user-1")
	assert.ErrorIs(t, err, ports.ErrTargetNotFound)
	assert.True(t, users.WasPurged("user-1"))

	// Finalize is idempotent on an already-purged user.
	assert.NoError(t, actions.Finalize(ctx, op))
}

func TestCodeActions_ApplyCompensateRoundTrip(t *testing.T) {
	ctx := context.Background()
	codes := collabmemory.NewInviteCodeService()
	codes.Seed(ports.CodeRecord{Code: "WELCOME1", IssuerID: "user-9", UsageCount: 3})
	actions := NewCodeActions(codes)
	op := targetOperation(t, operation.TypeDeleteCode, "invitation_code", "WELCOME1")

	require.NoError(t, actions.Apply(ctx, op))

	code, err := codes.GetCode(ctx, "WELCOME1")
	require.NoError(t, err)
	assert.True(t, code.Deleted)

	require.NoError(t, actions.Compensate(ctx, op))

	code, err = codes.GetCode(ctx, "WELCOME1")
	require.NoError(t, err)
	assert.False(t, code.Deleted)
	assert.Equal(t, 3, code.UsageCount)
}

func TestCodeActions_Finalize(t *testing.T) {
	ctx := context.Background()
	codes := collabmemory.NewInviteCodeService()
	codes.Seed(ports.CodeRecord{Code: "WELCOME1"})
	actions := NewCodeActions(codes)
	op := targetOperation(t, operation.TypeDeleteCode, "invitation_code", "WELCOME1")

	require.NoError(t, actions.Apply(ctx, op))
	require.NoError(t, actions.Finalize(ctx, op))

	_, err := codes.GetCode(ctx, "WELCOME1")
	assert.ErrorIs(t, err, ports.ErrTargetNotFound)

	assert.NoError(t, actions.Finalize(ctx, op))
}
