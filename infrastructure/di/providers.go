// Package di wires the application together. Providers are plain
// constructors consumed by wire; the memory/dynamodb and logsink/eventbridge
// backend choices are made here from configuration so the rest of the code
// only sees the ports.
package di

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"modops-backend/application/cancel"
	"modops-backend/application/executor"
	"modops-backend/application/ports"
	"modops-backend/application/staging"
	"modops-backend/application/sweeper"
	"modops-backend/domain/operation"
	collabhttp "modops-backend/infrastructure/collaborators/httpapi"
	collabmemory "modops-backend/infrastructure/collaborators/memory"
	"modops-backend/infrastructure/config"
	"modops-backend/infrastructure/messaging/eventbridge"
	"modops-backend/infrastructure/messaging/logsink"
	storedynamodb "modops-backend/infrastructure/persistence/dynamodb"
	storememory "modops-backend/infrastructure/persistence/memory"
	"modops-backend/pkg/auth"
	"modops-backend/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the Prometheus metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("modops")
}

// ProvideJWTValidator creates the admin token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideWindowBounds builds the undo window bounds from configuration
func ProvideWindowBounds(cfg *config.Config) operation.WindowBounds {
	return operation.WindowBounds{
		Min: secondsToDuration(cfg.MinWindowSeconds),
		Max: secondsToDuration(cfg.MaxWindowSeconds),
	}
}

// ProvideOperationStore selects the store backend from configuration
func ProvideOperationStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.OperationStore {
	if cfg.StoreBackend == "dynamodb" {
		return storedynamodb.NewOperationRepository(client, cfg.DynamoDBTable, cfg.StatusIndex, logger)
	}
	return storememory.NewOperationStore()
}

// ProvideAuditPublisher selects the audit sink from configuration
func ProvideAuditPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.AuditPublisher {
	if cfg.IsProduction() {
		return eventbridge.NewAuditPublisher(client, cfg.EventBusName, logger)
	}
	return logsink.NewAuditPublisher(logger)
}

// ProvideBanService selects the ban collaborator from configuration
func ProvideBanService(cfg *config.Config, logger *zap.Logger) ports.BanService {
	if cfg.BanServiceURL == "" {
		return collabmemory.NewBanService()
	}
	return collabhttp.NewBanService(cfg.BanServiceURL, defaultHTTPClient(), collabhttp.DefaultBreakerConfig(), logger)
}

// ProvideUserService selects the user collaborator from configuration
func ProvideUserService(cfg *config.Config, logger *zap.Logger) ports.UserService {
	if cfg.UserServiceURL == "" {
		return collabmemory.NewUserService()
	}
	return collabhttp.NewUserService(cfg.UserServiceURL, defaultHTTPClient(), collabhttp.DefaultBreakerConfig(), logger)
}

// ProvideInviteCodeService selects the invitation code collaborator from
// configuration
func ProvideInviteCodeService(cfg *config.Config, logger *zap.Logger) ports.InviteCodeService {
	if cfg.CodeServiceURL == "" {
		return collabmemory.NewInviteCodeService()
	}
	return collabhttp.NewInviteCodeService(cfg.CodeServiceURL, defaultHTTPClient(), collabhttp.DefaultBreakerConfig(), logger)
}

// ProvideRegistry registers the action handler for every supported
// operation type
func ProvideRegistry(
	bans ports.BanService,
	users ports.UserService,
	codes ports.InviteCodeService,
) *executor.Registry {
	registry := executor.NewRegistry()
	registry.Register(operation.TypeCreateBan, executor.NewBanActions(bans))
	registry.Register(operation.TypeDeleteUser, executor.NewUserActions(users))
	registry.Register(operation.TypeDeleteCode, executor.NewCodeActions(codes))
	return registry
}

// ProvideEffectRunner creates the effect runner with the configured retry
// policy
func ProvideEffectRunner(
	registry *executor.Registry,
	audit ports.AuditPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
	cfg *config.Config,
) *executor.EffectRunner {
	return executor.NewEffectRunner(registry, audit, metrics, logger, cfg.EffectMaxRetries, cfg.EffectBaseDelay)
}

// ProvideStagingService creates the staging service
func ProvideStagingService(
	store ports.OperationStore,
	registry *executor.Registry,
	runner *executor.EffectRunner,
	audit ports.AuditPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
	bounds operation.WindowBounds,
) *staging.Service {
	return staging.NewService(store, registry, runner, audit, metrics, logger, bounds)
}

// ProvideCancelService creates the cancellation service
func ProvideCancelService(
	store ports.OperationStore,
	runner *executor.EffectRunner,
	audit ports.AuditPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *cancel.Service {
	return cancel.NewService(store, runner, audit, metrics, logger)
}

// ProvideSweeper creates the expiry sweeper
func ProvideSweeper(
	store ports.OperationStore,
	runner *executor.EffectRunner,
	audit ports.AuditPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
	cfg *config.Config,
) *sweeper.Sweeper {
	return sweeper.New(store, runner, audit, metrics, logger, cfg.SweepInterval)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
