package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"modops-backend/application/ports"
)

// InviteCodeService is an HTTP client for the admin platform's invitation
// code API
type InviteCodeService struct {
	client *client
}

// NewInviteCodeService creates a circuit-breaker-wrapped invitation code
// service client
func NewInviteCodeService(baseURL string, httpClient *http.Client, config BreakerConfig, logger *zap.Logger) *InviteCodeService {
	return &InviteCodeService{
		client: newClient("invite-code-service", baseURL, httpClient, config, logger),
	}
}

// SoftDeleteCode marks the code deleted while keeping it restorable
func (s *InviteCodeService) SoftDeleteCode(ctx context.Context, code string) error {
	return s.client.do(ctx, http.MethodPost, fmt.Sprintf("/internal/v1/codes/%s/soft-delete", code), nil, nil)
}

// RestoreCode clears the soft-delete marker
func (s *InviteCodeService) RestoreCode(ctx context.Context, code string) error {
	return s.client.do(ctx, http.MethodPost, fmt.Sprintf("/internal/v1/codes/%s/restore", code), nil, nil)
}

// PurgeCode makes the deletion permanent
func (s *InviteCodeService) PurgeCode(ctx context.Context, code string) error {
	return s.client.do(ctx, http.MethodDelete, fmt.Sprintf("/internal/v1/codes/%s", code), nil, nil)
}

// GetCode returns the current code state
func (s *InviteCodeService) GetCode(ctx context.Context, code string) (*ports.CodeRecord, error) {
	var record ports.CodeRecord
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("/internal/v1/codes/%s", code), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

var _ ports.InviteCodeService = (*InviteCodeService)(nil)
