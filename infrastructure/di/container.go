package di

import (
	"go.uber.org/zap"

	"modops-backend/application/cancel"
	"modops-backend/application/executor"
	"modops-backend/application/ports"
	"modops-backend/application/staging"
	"modops-backend/application/sweeper"
	"modops-backend/infrastructure/config"
	"modops-backend/pkg/auth"
	"modops-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Metrics        *observability.Collector
	JWTValidator   *auth.JWTValidator
	OperationStore ports.OperationStore
	Audit          ports.AuditPublisher
	Registry       *executor.Registry
	EffectRunner   *executor.EffectRunner
	Staging        *staging.Service
	Cancel         *cancel.Service
	Sweeper        *sweeper.Sweeper
}
