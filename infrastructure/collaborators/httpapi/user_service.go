package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"modops-backend/application/ports"
)

// UserService is an HTTP client for the admin platform's user API
type UserService struct {
	client *client
}

// NewUserService creates a circuit-breaker-wrapped user service client
func NewUserService(baseURL string, httpClient *http.Client, config BreakerConfig, logger *zap.Logger) *UserService {
	return &UserService{
		client: newClient("user-service", baseURL, httpClient, config, logger),
	}
}

// SoftDeleteUser marks the user deleted while keeping the row restorable
func (s *UserService) SoftDeleteUser(ctx context.Context, userID string) error {
	return s.client.do(ctx, http.MethodPost, fmt.Sprintf("/internal/v1/users/%s/soft-delete", userID), nil, nil)
}

// RestoreUser clears the soft-delete marker
func (s *UserService) RestoreUser(ctx context.Context, userID string) error {
	return s.client.do(ctx, http.MethodPost, fmt.Sprintf("/internal/v1/users/%s/restore", userID), nil, nil)
}

// PurgeUser makes the deletion permanent
func (s *UserService) PurgeUser(ctx context.Context, userID string) error {
	return s.client.do(ctx, http.MethodDelete, fmt.Sprintf("/internal/v1/users/%s", userID), nil, nil)
}

// GetUser returns the current user state
func (s *UserService) GetUser(ctx context.Context, userID string) (*ports.UserRecord, error) {
	var record ports.UserRecord
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("/internal/v1/users/%s", userID), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

var _ ports.UserService = (*UserService)(nil)
