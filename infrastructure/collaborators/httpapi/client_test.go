package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"modops-backend/application/ports"
	apperrors "modops-backend/pkg/errors"
)

func TestUserService_GetUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/internal/v1/users/user-1", r.URL.Path)
		json.NewEncoder(w).Encode(ports.UserRecord{ID: "user-1", Username: "alice", InviteCount: 4})
	}))
	defer server.Close()

	service := NewUserService(server.URL, server.Client(), DefaultBreakerConfig(), zap.NewNop())

	user, err := service.GetUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 4, user.InviteCount)
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	service := NewUserService(server.URL, server.Client(), DefaultBreakerConfig(), zap.NewNop())

	_, err := service.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ports.ErrTargetNotFound)
}

func TestUserService_SoftDeleteAndRestorePaths(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	service := NewUserService(server.URL, server.Client(), DefaultBreakerConfig(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, service.SoftDeleteUser(ctx, "user-1"))
	require.NoError(t, service.RestoreUser(ctx, "user-1"))
	require.NoError(t, service.PurgeUser(ctx, "user-1"))

	assert.Equal(t, []string{
		"POST /internal/v1/users/user-1/soft-delete",
		"POST /internal/v1/users/user-1/restore",
		"DELETE /internal/v1/users/user-1",
	}, paths)
}

func TestBanService_CreateBanBody(t *testing.T) {
	var received createBanRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/v1/bans", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	service := NewBanService(server.URL, server.Client(), DefaultBreakerConfig(), zap.NewNop())

	err := service.CreateBan(context.Background(), "user-1", "spam", "admin-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "user-1", received.UserID)
	assert.Equal(t, "spam", received.Reason)
	assert.Equal(t, "admin-1", received.CreatedBy)
	assert.Equal(t, int64(3600), received.DurationSeconds)
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	config := BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
	service := NewUserService(server.URL, server.Client(), config, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.GetUser(ctx, "user-1")
		require.Error(t, err)
	}

	// The breaker is open now: calls are rejected without hitting the server.
	_, err := service.GetUser(ctx, "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestCodeService_Paths(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(ports.CodeRecord{Code: "WELCOME1"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	service := NewInviteCodeService(server.URL, server.Client(), DefaultBreakerConfig(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, service.SoftDeleteCode(ctx, "WELCOME1"))
	require.NoError(t, service.RestoreCode(ctx, "WELCOME1"))
	_, err := service.GetCode(ctx, "WELCOME1")
	require.NoError(t, err)
	require.NoError(t, service.PurgeCode(ctx, "WELCOME1"))

	assert.Equal(t, []string{
		"POST /internal/v1/codes/WELCOME1/soft-delete",
		"POST /internal/v1/codes/WELCOME1/restore",
		"GET /internal/v1/codes/WELCOME1",
		"DELETE /internal/v1/codes/WELCOME1",
	}, paths)
}
