package ports

import (
	"context"
	"errors"
	"time"
)

// ErrTargetNotFound is returned by collaborator services when the target
// domain record does not exist
var ErrTargetNotFound = errors.New("target record not found")

// BanRecord mirrors the ban state owned by the ban service
type BanRecord struct {
	UserID    string        `json:"user_id"`
	Reason    string        `json:"reason"`
	Duration  time.Duration `json:"duration"`
	Active    bool          `json:"active"`
	Permanent bool          `json:"permanent"`
	CreatedBy string        `json:"created_by"`
	CreatedAt time.Time     `json:"created_at"`
}

// UserRecord mirrors the user state owned by the user service
type UserRecord struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Deleted     bool   `json:"deleted"`
	InviteCount int    `json:"invite_count"`
	ReportCount int    `json:"report_count"`
}

// CodeRecord mirrors the invitation code state owned by the code service
type CodeRecord struct {
	Code       string `json:"code"`
	IssuerID   string `json:"issuer_id"`
	UsageCount int    `json:"usage_count"`
	Deleted    bool   `json:"deleted"`
}

// BanService is the collaborator that owns ban rows
type BanService interface {
	// CreateBan inserts an immediately-active ban for the user
	CreateBan(ctx context.Context, userID, reason, createdBy string, duration time.Duration) error

	// LiftBan removes an active ban; lifting an absent ban is a no-op
	LiftBan(ctx context.Context, userID string) error

	// MarkBanPermanent releases the grace-period bookkeeping on the ban
	MarkBanPermanent(ctx context.Context, userID string) error

	// GetBan returns the current ban state, or ErrTargetNotFound
	GetBan(ctx context.Context, userID string) (*BanRecord, error)
}

// UserService is the collaborator that owns user rows
type UserService interface {
	// SoftDeleteUser marks the user deleted while keeping the row restorable
	SoftDeleteUser(ctx context.Context, userID string) error

	// RestoreUser clears the soft-delete marker
	RestoreUser(ctx context.Context, userID string) error

	// PurgeUser makes the deletion permanent
	PurgeUser(ctx context.Context, userID string) error

	// GetUser returns the current user state, or ErrTargetNotFound
	GetUser(ctx context.Context, userID string) (*UserRecord, error)
}

// InviteCodeService is the collaborator that owns invitation code rows
type InviteCodeService interface {
	// SoftDeleteCode marks the code deleted while keeping it restorable
	SoftDeleteCode(ctx context.Context, code string) error

	// RestoreCode clears the soft-delete marker
	RestoreCode(ctx context.Context, code string) error

	// PurgeCode makes the deletion permanent
	PurgeCode(ctx context.Context, code string) error

	// GetCode returns the current code state, or ErrTargetNotFound
	GetCode(ctx context.Context, code string) (*CodeRecord, error)
}
