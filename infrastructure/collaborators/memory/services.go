// Package memory provides in-memory collaborator services for local
// development and tests. Counters and flags are preserved across
// soft-delete/restore cycles so apply-then-compensate round trips are
// observable.
package memory

import (
	"context"
	"sync"
	"time"

	"modops-backend/application/ports"
)

// BanService is an in-memory ports.BanService
type BanService struct {
	mu   sync.RWMutex
	bans map[string]*ports.BanRecord
}

// NewBanService creates an empty in-memory ban service
func NewBanService() *BanService {
	return &BanService{bans: make(map[string]*ports.BanRecord)}
}

// CreateBan inserts an immediately-active ban for the user
func (s *BanService) CreateBan(ctx context.Context, userID, reason, createdBy string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bans[userID] = &ports.BanRecord{
		UserID:    userID,
		Reason:    reason,
		Duration:  duration,
		Active:    true,
		Permanent: false,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// LiftBan removes an active ban; lifting an absent ban is a no-op
func (s *BanService) LiftBan(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bans, userID)
	return nil
}

// MarkBanPermanent releases the grace-period bookkeeping on the ban
func (s *BanService) MarkBanPermanent(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ban, ok := s.bans[userID]
	if !ok {
		return ports.ErrTargetNotFound
	}
	ban.Permanent = true
	return nil
}

// GetBan returns the current ban state
func (s *BanService) GetBan(ctx context.Context, userID string) (*ports.BanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ban, ok := s.bans[userID]
	if !ok {
		return nil, ports.ErrTargetNotFound
	}
	copied := *ban
	return &copied, nil
}

// UserService is an in-memory ports.UserService
type UserService struct {
	mu     sync.RWMutex
	users  map[string]*ports.UserRecord
	purged map[string]bool
}

// NewUserService creates an in-memory user service
func NewUserService() *UserService {
	return &UserService{
		users:  make(map[string]*ports.UserRecord),
		purged: make(map[string]bool),
	}
}

// Seed adds a user record, for development and tests
func (s *UserService) Seed(user ports.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := user
	s.users[user.ID] = &copied
}

// SoftDeleteUser marks the user deleted while keeping the row restorable
func (s *UserService) SoftDeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ports.ErrTargetNotFound
	}
	user.Deleted = true
	return nil
}

// RestoreUser clears the soft-delete marker
func (s *UserService) RestoreUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ports.ErrTargetNotFound
	}
	user.Deleted = false
	return nil
}

// PurgeUser makes the deletion permanent
func (s *UserService) PurgeUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return ports.ErrTargetNotFound
	}
	delete(s.users, userID)
	s.purged[userID] = true
	return nil
}

// GetUser returns the current user state
func (s *UserService) GetUser(ctx context.Context, userID string) (*ports.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, ports.ErrTargetNotFound
	}
	copied := *user
	return &copied, nil
}

// WasPurged reports whether the user was permanently removed, for tests
func (s *UserService) WasPurged(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.purged[userID]
}

// InviteCodeService is an in-memory ports.InviteCodeService
type InviteCodeService struct {
	mu     sync.RWMutex
	codes  map[string]*ports.CodeRecord
	purged map[string]bool
}

// NewInviteCodeService creates an in-memory invitation code service
func NewInviteCodeService() *InviteCodeService {
	return &InviteCodeService{
		codes:  make(map[string]*ports.CodeRecord),
		purged: make(map[string]bool),
	}
}

// Seed adds a code record, for development and tests
func (s *InviteCodeService) Seed(code ports.CodeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := code
	s.codes[code.Code] = &copied
}

// SoftDeleteCode marks the code deleted while keeping it restorable
func (s *InviteCodeService) SoftDeleteCode(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.codes[code]
	if !ok {
		return ports.ErrTargetNotFound
	}
	record.Deleted = true
	return nil
}

// RestoreCode clears the soft-delete marker
func (s *InviteCodeService) RestoreCode(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.codes[code]
	if !ok {
		return ports.ErrTargetNotFound
	}
	record.Deleted = false
	return nil
}

// PurgeCode makes the deletion permanent
func (s *InviteCodeService) PurgeCode(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[code]; !ok {
		return ports.ErrTargetNotFound
	}
	delete(s.codes, code)
	s.purged[code] = true
	return nil
}

// GetCode returns the current code state
func (s *InviteCodeService) GetCode(ctx context.Context, code string) (*ports.CodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.codes[code]
	if !ok {
		return nil, ports.ErrTargetNotFound
	}
	copied := *record
	return &copied, nil
}

var (
	_ ports.BanService        = (*BanService)(nil)
	_ ports.UserService       = (*UserService)(nil)
	_ ports.InviteCodeService = (*InviteCodeService)(nil)
)
