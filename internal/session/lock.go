package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/aoki/docquery/internal/model"
)

// DefaultTTL bounds how long a refresh lock can be held. A refresh is a
// single HTTP round trip, so anything holding the lock longer has crashed.
const DefaultTTL = 30 * time.Second

// ErrLockHeld is returned when another request is refreshing the same credential.
var ErrLockHeld = errors.New("refresh lock held by another request")

// LockManager implements Locker on a DynamoDB table using conditional writes.
type LockManager struct {
	client      *dynamodb.Client
	tableName   string
	ttlDuration time.Duration
}

// NewLockManager creates a new LockManager.
func NewLockManager(client *dynamodb.Client, tableName string) *LockManager {
	return &LockManager{
		client:      client,
		tableName:   tableName,
		ttlDuration: DefaultTTL,
	}
}

// Acquire attempts to take the refresh lock for key. It succeeds if no lock
// exists, the existing lock has expired, or the same owner already holds it.
func (m *LockManager) Acquire(ctx context.Context, key, owner string) (*model.RefreshLock, error) {
	now := time.Now().Unix()
	lock := model.RefreshLock{
		Key:       key,
		Owner:     owner,
		ExpiresAt: now + int64(m.ttlDuration.Seconds()),
	}

	item, err := attributevalue.MarshalMap(lock)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh lock: %w", err)
	}

	_, err = m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.tableName),
		Item:      item,
		ConditionExpression: aws.String(
			"attribute_not_exists(lock_key) OR expires_at < :now OR #owner = :owner",
		),
		ExpressionAttributeNames: map[string]string{
			"#owner": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now)},
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil, ErrLockHeld
		}
		return nil, fmt.Errorf("failed to acquire refresh lock: %w", err)
	}

	return &lock, nil
}

// Release removes the lock if the owner holds it.
func (m *LockManager) Release(ctx context.Context, key, owner string) error {
	_, err := m.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(m.tableName),
		Key: map[string]types.AttributeValue{
			"lock_key": &types.AttributeValueMemberS{Value: key},
		},
		ConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to release refresh lock: %w", err)
	}
	return nil
}
