// Package dynamodb implements the OperationStore on a single DynamoDB
// table. The status transition is a conditional update, which anchors the
// engine's mutual exclusion in the persisted row and keeps it correct
// across horizontally-scaled server processes.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"modops-backend/application/ports"
	"modops-backend/domain/operation"
)

// OperationRepository implements ports.OperationStore using DynamoDB
type OperationRepository struct {
	client      *dynamodb.Client
	tableName   string
	statusIndex string
	logger      *zap.Logger
}

// NewOperationRepository creates a DynamoDB-backed operation store.
// statusIndex is a GSI keyed by status with the expiry timestamp as sort
// key, so ListPending reads back soonest-expiring first without a scan.
func NewOperationRepository(client *dynamodb.Client, tableName, statusIndex string, logger *zap.Logger) *OperationRepository {
	return &OperationRepository{
		client:      client,
		tableName:   tableName,
		statusIndex: statusIndex,
		logger:      logger,
	}
}

// operationItem represents the DynamoDB item structure for an operation
type operationItem struct {
	PK          string `dynamodbav:"PK"`     // OPERATION#<id>
	SK          string `dynamodbav:"SK"`     // METADATA
	GSI1PK      string `dynamodbav:"GSI1PK"` // STATUS#<status>
	GSI1SK      string `dynamodbav:"GSI1SK"` // <expires_at RFC3339>
	EntityType  string `dynamodbav:"EntityType"`
	OperationID string `dynamodbav:"OperationID"`
	OpType      string `dynamodbav:"OpType"`
	TargetType  string `dynamodbav:"TargetType"`
	TargetID    string `dynamodbav:"TargetID"`
	Payload     []byte `dynamodbav:"Payload,omitempty"`
	InitiatorID string `dynamodbav:"InitiatorID"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	ExpiresAt   string `dynamodbav:"ExpiresAt"`
	OpStatus    string `dynamodbav:"OpStatus"`
}

func operationKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("OPERATION#%s", id)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

func statusPartition(status operation.Status) string {
	return fmt.Sprintf("STATUS#%s", status)
}

func toItem(op *operation.PendingOperation) operationItem {
	return operationItem{
		PK:          fmt.Sprintf("OPERATION#%s", op.ID),
		SK:          "METADATA",
		GSI1PK:      statusPartition(op.Status),
		GSI1SK:      op.ExpiresAt.UTC().Format(time.RFC3339),
		EntityType:  "PendingOperation",
		OperationID: op.ID,
		OpType:      string(op.Type),
		TargetType:  op.TargetType,
		TargetID:    op.TargetID,
		Payload:     op.Payload,
		InitiatorID: op.InitiatorID,
		CreatedAt:   op.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:   op.ExpiresAt.UTC().Format(time.RFC3339),
		OpStatus:    string(op.Status),
	}
}

func fromItem(item operationItem) (*operation.PendingOperation, error) {
	createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	expiresAt, err := time.Parse(time.RFC3339, item.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	return &operation.PendingOperation{
		ID:          item.OperationID,
		Type:        operation.Type(item.OpType),
		TargetType:  item.TargetType,
		TargetID:    item.TargetID,
		Payload:     item.Payload,
		InitiatorID: item.InitiatorID,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
		Status:      operation.Status(item.OpStatus),
	}, nil
}

// Create persists a new PENDING operation record
func (r *OperationRepository) Create(ctx context.Context, op *operation.PendingOperation) error {
	item, err := attributevalue.MarshalMap(toItem(op))
	if err != nil {
		return fmt.Errorf("marshal operation item: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return fmt.Errorf("operation %s already exists", op.ID)
		}
		return fmt.Errorf("put operation item: %w", err)
	}

	return nil
}

// Get retrieves an operation by id, or ports.ErrNotFound
func (r *OperationRepository) Get(ctx context.Context, id string) (*operation.PendingOperation, error) {
	output, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            operationKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get operation item: %w", err)
	}
	if output.Item == nil {
		return nil, ports.ErrNotFound
	}

	var item operationItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal operation item: %w", err)
	}
	return fromItem(item)
}

// ListPending queries the status GSI; the expiry sort key returns records
// soonest-expiring first
func (r *OperationRepository) ListPending(ctx context.Context) ([]*operation.PendingOperation, error) {
	keyCondition := expression.Key("GSI1PK").Equal(expression.Value(statusPartition(operation.StatusPending)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, fmt.Errorf("build pending query expression: %w", err)
	}

	operations := make([]*operation.PendingOperation, 0)
	var startKey map[string]types.AttributeValue

	for {
		output, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(r.statusIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(true),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query pending operations: %w", err)
		}

		for _, raw := range output.Items {
			var item operationItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshal operation item: %w", err)
			}
			op, err := fromItem(item)
			if err != nil {
				return nil, err
			}
			operations = append(operations, op)
		}

		if output.LastEvaluatedKey == nil {
			break
		}
		startKey = output.LastEvaluatedKey
	}

	return operations, nil
}

// Transition performs the compare-and-swap as a conditional update. The
// condition on the persisted status is the engine's only lock.
func (r *OperationRepository) Transition(ctx context.Context, id string, from, to operation.Status) error {
	update := expression.
		Set(expression.Name("OpStatus"), expression.Value(string(to))).
		Set(expression.Name("GSI1PK"), expression.Value(statusPartition(to)))
	condition := expression.Name("OpStatus").Equal(expression.Value(string(from)))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("build transition expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       operationKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			// Distinguish a lost race from a record that never existed.
			if _, getErr := r.Get(ctx, id); errors.Is(getErr, ports.ErrNotFound) {
				return ports.ErrNotFound
			}
			return ports.ErrTransitionConflict
		}
		return fmt.Errorf("transition operation %s: %w", id, err)
	}

	r.logger.Debug("Operation status transition succeeded",
		zap.String("operationID", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

var _ ports.OperationStore = (*OperationRepository)(nil)
