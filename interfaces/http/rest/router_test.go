package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"modops-backend/application/cancel"
	"modops-backend/application/executor"
	"modops-backend/application/ports"
	"modops-backend/application/staging"
	"modops-backend/domain/operation"
	collabmemory "modops-backend/infrastructure/collaborators/memory"
	storememory "modops-backend/infrastructure/persistence/memory"
	"modops-backend/infrastructure/messaging/logsink"
	"modops-backend/interfaces/http/rest/handlers"
	"modops-backend/pkg/auth"
	"modops-backend/pkg/common"
	apperrors "modops-backend/pkg/errors"
	"modops-backend/pkg/observability"
)

const (
	testSecret = "test-secret"
	testIssuer = "modops-backend"
)

type apiFixture struct {
	handler http.Handler
	store   ports.OperationStore
	bans    *collabmemory.BanService
	users   *collabmemory.UserService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewCollector("modops")
	audit := logsink.NewAuditPublisher(logger)
	store := storememory.NewOperationStore()

	bans := collabmemory.NewBanService()
	users := collabmemory.NewUserService()
	codes := collabmemory.NewInviteCodeService()

	registry := executor.NewRegistry()
	registry.Register(operation.TypeCreateBan, executor.NewBanActions(bans))
	registry.Register(operation.TypeDeleteUser, executor.NewUserActions(users))
	registry.Register(operation.TypeDeleteCode, executor.NewCodeActions(codes))

	runner := executor.NewEffectRunner(registry, audit, metrics, logger, 2, time.Millisecond)
	stagingService := staging.NewService(store, registry, runner, audit, metrics, logger, operation.DefaultWindowBounds)
	cancelService := cancel.NewService(store, runner, audit, metrics, logger)

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: testSecret,
		Issuer:    testIssuer,
	})
	require.NoError(t, err)

	operationHandler := handlers.NewOperationHandler(stagingService, cancelService, store, logger)
	router := NewRouter(operationHandler, validator, metrics, logger, false)

	return &apiFixture{
		handler: router.Setup(),
		store:   store,
		bans:    bans,
		users:   users,
	}
}

func adminToken(t *testing.T, adminID string) string {
	t.Helper()
	claims := auth.Claims{
		AdminID: adminID,
		Email:   adminID + "@example.com",
		Roles:   []string{"moderator"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(encoded)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeData(t *testing.T, recorder *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) common.ErrorInfo {
	t.Helper()
	var envelope struct {
		Success bool              `json:"success"`
		Error   *common.ErrorInfo `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	return *envelope.Error
}

func createBanRequest(windowSeconds int) map[string]any {
	return map[string]any{
		"operation_type": "CREATE_BAN",
		"target_id":      "user-1",
		"payload":        map[string]any{"reason": "spam", "duration_seconds": 3600},
		"window_seconds": windowSeconds,
	}
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	recorder := f.request(t, http.MethodPost, "/api/v1/operations", "", createBanRequest(30))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = f.request(t, http.MethodGet, "/api/v1/operations/pending", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAPI_RejectsBadToken(t *testing.T) {
	f := newAPIFixture(t)

	recorder := f.request(t, http.MethodGet, "/api/v1/operations/pending", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAPI_CreateOperation(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, "admin-1")

	recorder := f.request(t, http.MethodPost, "/api/v1/operations", token, createBanRequest(30))
	require.Equal(t, http.StatusCreated, recorder.Code)

	var op handlers.OperationResponse
	decodeData(t, recorder, &op)
	assert.NotEmpty(t, op.ID)
	assert.Equal(t, "CREATE_BAN", op.OperationType)
	assert.Equal(t, "user", op.TargetType)
	assert.Equal(t, "admin-1", op.InitiatorID)
	assert.Equal(t, "PENDING", op.Status)
	assert.LessOrEqual(t, op.RemainingSeconds, 30)
	assert.Greater(t, op.RemainingSeconds, 25)

	// The ban effect is live immediately.
	ban, err := f.bans.GetBan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ban.Active)
}

func TestAPI_CreateOperation_InvalidBody(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, "admin-1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/operations", bytes.NewBufferString("{broken"))
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAPI_CreateOperation_UnknownType(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, "admin-1")

	body := createBanRequest(30)
	body["operation_type"] = "REBOOT_UNIVERSE"

	recorder := f.request(t, http.MethodPost, "/api/v1/operations", token, body)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// The handler registry owns the operation-type set, so the rejection
	// carries its code rather than a DTO validation failure.
	errInfo := decodeError(t, recorder)
	assert.Equal(t, "UNSUPPORTED_OPERATION", errInfo.Code)
}

func TestAPI_CreateOperation_WindowOutOfBounds(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, "admin-1")

	recorder := f.request(t, http.MethodPost, "/api/v1/operations", token, createBanRequest(5))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errInfo := decodeError(t, recorder)
	assert.Contains(t, errInfo.Details, "min_seconds")
}

func TestAPI_ListPending(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, "admin-1")

	recorder := f.request(t, http.MethodPost, "/api/v1/operations", token, createBanRequest(30))
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = f.request(t, http.MethodGet, "/api/v1/operations/pending", token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var listing struct {
		Operations []handlers.OperationResponse `json:"operations"`
		Count      int                          `json:"count"`
	}
	decodeData(t, recorder, &listing)
	require.Equal(t, 1, listing.Count)
	assert.Equal(t, "PENDING", listing.Operations[0].Status)
	assert.Greater(t, listing.Operations[0].RemainingSeconds, 0)
}

func TestAPI_GetOperation(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, "admin-1")

	recorder := f.request(t, http.MethodPost, "/api/v1/operations", token, createBanRequest(30))
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created handlers.OperationResponse
	decodeData(t, recorder, &created)

	recorder = f.request(t, http.MethodGet, "/api/v1/operations/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got handlers.OperationResponse
	decodeData(t, recorder, &got)
	assert.Equal(t, created.ID, got.ID)
}

func TestAPI_GetOperation_NotFound(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, "admin-1")

	recorder := f.request(t, http.MethodGet, "/api/v1/operations/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestAPI_CancelOperation(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, "admin-1")

	recorder := f.request(t, http.MethodPost, "/api/v1/operations", token, createBanRequest(30))
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created handlers.OperationResponse
	decodeData(t, recorder, &created)

	cancelPath := fmt.Sprintf("/api/v1/operations/%s/cancel", created.ID)
	recorder = f.request(t, http.MethodPost, cancelPath, token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var cancelled handlers.OperationResponse
	decodeData(t, recorder, &cancelled)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	// The ban is gone again.
	_, err := f.bans.GetBan(context.Background(), "user-1")
	assert.ErrorIs(t, err, ports.ErrTargetNotFound)
}

func TestAPI_CancelTwiceReturnsConflict(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, "admin-1")

	recorder := f.request(t, http.MethodPost, "/api/v1/operations", token, createBanRequest(30))
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created handlers.OperationResponse
	decodeData(t, recorder, &created)

	cancelPath := fmt.Sprintf("/api/v1/operations/%s/cancel", created.ID)
	recorder = f.request(t, http.MethodPost, cancelPath, token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = f.request(t, http.MethodPost, cancelPath, token, nil)
	require.Equal(t, http.StatusConflict, recorder.Code)
	errInfo := decodeError(t, recorder)
	assert.Equal(t, apperrors.CodeAlreadyCancelled, errInfo.Code)
}

func TestAPI_CancelCommittedReturnsConflict(t *testing.T) {
	f := newAPIFixture(t)
	token := adminToken(t, "admin-1")

	recorder := f.request(t, http.MethodPost, "/api/v1/operations", token, createBanRequest(30))
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created handlers.OperationResponse
	decodeData(t, recorder, &created)

	// The sweeper won the race and committed the operation.
	require.NoError(t, f.store.Transition(
		context.Background(),
		created.ID,
		operation.StatusPending,
		operation.StatusCommitted,
	))

	cancelPath := fmt.Sprintf("/api/v1/operations/%s/cancel", created.ID)
	recorder = f.request(t, http.MethodPost, cancelPath, token, nil)
	require.Equal(t, http.StatusConflict, recorder.Code)
	errInfo := decodeError(t, recorder)
	assert.Equal(t, apperrors.CodeAlreadyCommitted, errInfo.Code)
}

func TestAPI_HealthAndReady(t *testing.T) {
	f := newAPIFixture(t)

	recorder := f.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = f.request(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestAPI_Metrics(t *testing.T) {
	f := newAPIFixture(t)

	recorder := f.request(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
