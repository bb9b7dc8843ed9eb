// Package handlers contains the HTTP handlers for the operations API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"modops-backend/application/cancel"
	"modops-backend/application/ports"
	"modops-backend/application/staging"
	"modops-backend/domain/operation"
	"modops-backend/pkg/auth"
	"modops-backend/pkg/common"
	apperrors "modops-backend/pkg/errors"
	"modops-backend/pkg/utils"
)

const maxRequestBodyBytes = 64 * 1024

// OperationHandler serves the reversible operation endpoints
type OperationHandler struct {
	staging *staging.Service
	cancel  *cancel.Service
	store   ports.OperationStore
	logger  *zap.Logger
	clock   func() time.Time
}

// NewOperationHandler creates an operation handler
func NewOperationHandler(
	stagingService *staging.Service,
	cancelService *cancel.Service,
	store ports.OperationStore,
	logger *zap.Logger,
) *OperationHandler {
	return &OperationHandler{
		staging: stagingService,
		cancel:  cancelService,
		store:   store,
		logger:  logger,
		clock:   time.Now,
	}
}

// WithClock overrides the time source, for tests
func (h *OperationHandler) WithClock(clock func() time.Time) *OperationHandler {
	h.clock = clock
	return h
}

// CreateOperationRequest is the POST /operations body
type CreateOperationRequest struct {
	// The registry decides which operation types exist; unknown ones come
	// back as UNSUPPORTED_OPERATION.
	OperationType string          `json:"operation_type" validate:"required"`
	TargetID      string          `json:"target_id" validate:"required,max=128"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	WindowSeconds int             `json:"window_seconds" validate:"required,min=1"`
}

// OperationResponse is the wire representation of a staged operation
type OperationResponse struct {
	ID               string          `json:"id"`
	OperationType    string          `json:"operation_type"`
	TargetType       string          `json:"target_type"`
	TargetID         string          `json:"target_id"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	InitiatorID      string          `json:"initiator_id"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	ExpiresAt        time.Time       `json:"expires_at"`
	RemainingSeconds int             `json:"remaining_seconds"`
}

func (h *OperationHandler) toResponse(op *operation.PendingOperation) OperationResponse {
	return OperationResponse{
		ID:               op.ID,
		OperationType:    string(op.Type),
		TargetType:       op.TargetType,
		TargetID:         op.TargetID,
		Payload:          op.Payload,
		InitiatorID:      op.InitiatorID,
		Status:           string(op.Status),
		CreatedAt:        op.CreatedAt,
		ExpiresAt:        op.ExpiresAt,
		RemainingSeconds: int(op.Remaining(h.clock()) / time.Second),
	}
}

// Create stages a new reversible operation
func (h *OperationHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin, err := auth.AdminFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing admin context")
		return
	}

	var req CreateOperationRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	op, err := h.staging.Stage(r.Context(), staging.Request{
		Type:        operation.Type(req.OperationType),
		TargetID:    req.TargetID,
		Payload:     req.Payload,
		InitiatorID: admin.AdminID,
		Window:      time.Duration(req.WindowSeconds) * time.Second,
	})
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, h.toResponse(op))
}

// ListPending returns all pending operations with their remaining window
func (h *OperationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.store.ListPending(r.Context())
	if err != nil {
		h.logger.Error("Failed to list pending operations", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list pending operations")
		return
	}

	responses := make([]OperationResponse, 0, len(pending))
	for _, op := range pending {
		responses = append(responses, h.toResponse(op))
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"operations": responses,
		"count":      len(responses),
	})
}

// Get returns a single operation by id
func (h *OperationHandler) Get(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operationID")
	if operationID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "operation id is required")
		return
	}

	op, err := h.store.Get(r.Context(), operationID)
	if errors.Is(err, ports.ErrNotFound) {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "operation not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load operation",
			zap.String("operationID", operationID),
			zap.Error(err),
		)
		common.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load operation")
		return
	}

	common.RespondJSON(w, http.StatusOK, h.toResponse(op))
}

// Cancel aborts a still-pending operation
func (h *OperationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	admin, err := auth.AdminFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing admin context")
		return
	}

	operationID := chi.URLParam(r, "operationID")
	op, err := h.cancel.Cancel(r.Context(), operationID, admin.AdminID)
	if err != nil {
		// A compensation failure still reports the cancelled record: the
		// transition is durable and the effect is flagged for review.
		if op != nil && apperrors.IsType(err, apperrors.ErrorTypeCompensation) {
			common.RespondJSON(w, http.StatusOK, h.toResponse(op))
			return
		}
		h.respondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, h.toResponse(op))
}

func (h *OperationHandler) respondAppError(w http.ResponseWriter, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr.HTTPStatus >= 500 {
		h.logger.Error("Request failed", zap.Error(err))
	}
	if len(appErr.Details) > 0 {
		common.RespondErrorWithDetails(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.RespondError(w, appErr.HTTPStatus, appErr.Code, appErr.Message)
}
