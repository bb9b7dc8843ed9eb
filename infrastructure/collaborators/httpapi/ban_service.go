package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"modops-backend/application/ports"
)

// BanService is an HTTP client for the admin platform's ban API
type BanService struct {
	client *client
}

// NewBanService creates a circuit-breaker-wrapped ban service client
func NewBanService(baseURL string, httpClient *http.Client, config BreakerConfig, logger *zap.Logger) *BanService {
	return &BanService{
		client: newClient("ban-service", baseURL, httpClient, config, logger),
	}
}

type createBanRequest struct {
	UserID          string `json:"user_id"`
	Reason          string `json:"reason"`
	CreatedBy       string `json:"created_by"`
	DurationSeconds int64  `json:"duration_seconds"`
}

type banResponse struct {
	UserID          string    `json:"user_id"`
	Reason          string    `json:"reason"`
	DurationSeconds int64     `json:"duration_seconds"`
	Active          bool      `json:"active"`
	Permanent       bool      `json:"permanent"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateBan inserts an immediately-active ban for the user
func (s *BanService) CreateBan(ctx context.Context, userID, reason, createdBy string, duration time.Duration) error {
	body := createBanRequest{
		UserID:          userID,
		Reason:          reason,
		CreatedBy:       createdBy,
		DurationSeconds: int64(duration.Seconds()),
	}
	return s.client.do(ctx, http.MethodPost, "/internal/v1/bans", body, nil)
}

// LiftBan removes an active ban
func (s *BanService) LiftBan(ctx context.Context, userID string) error {
	return s.client.do(ctx, http.MethodDelete, fmt.Sprintf("/internal/v1/bans/%s", userID), nil, nil)
}

// MarkBanPermanent releases the grace-period bookkeeping on the ban
func (s *BanService) MarkBanPermanent(ctx context.Context, userID string) error {
	return s.client.do(ctx, http.MethodPost, fmt.Sprintf("/internal/v1/bans/%s/permanent", userID), nil, nil)
}

// GetBan returns the current ban state
func (s *BanService) GetBan(ctx context.Context, userID string) (*ports.BanRecord, error) {
	var resp banResponse
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("/internal/v1/bans/%s", userID), nil, &resp); err != nil {
		return nil, err
	}
	return &ports.BanRecord{
		UserID:    resp.UserID,
		Reason:    resp.Reason,
		Duration:  time.Duration(resp.DurationSeconds) * time.Second,
		Active:    resp.Active,
		Permanent: resp.Permanent,
		CreatedBy: resp.CreatedBy,
		CreatedAt: resp.CreatedAt,
	}, nil
}

var _ ports.BanService = (*BanService)(nil)
