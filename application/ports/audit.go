package ports

import (
	"context"
	"time"
)

// AuditAction identifies the lifecycle event being recorded
type AuditAction string

const (
	AuditActionCreated      AuditAction = "created"
	AuditActionCommitted    AuditAction = "committed"
	AuditActionCancelled    AuditAction = "cancelled"
	AuditActionEffectFailed AuditAction = "effect_failed"
)

// AuditEvent is one append-only compliance record per lifecycle transition
type AuditEvent struct {
	OperationID   string      `json:"operation_id"`
	OperationType string      `json:"operation_type"`
	TargetType    string      `json:"target_type"`
	TargetID      string      `json:"target_id"`
	InitiatorID   string      `json:"initiator_id"`
	Action        AuditAction `json:"action"`
	Outcome       string      `json:"outcome"`
	Detail        string      `json:"detail,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// AuditPublisher delivers audit events to the compliance sink.
// Publishing is best-effort relative to the state machine: a failed publish
// is logged and counted, never allowed to block or roll back a transition.
type AuditPublisher interface {
	Publish(ctx context.Context, event AuditEvent) error
}
