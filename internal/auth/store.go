package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/aoki/docquery/internal/crypto"
	"github.com/aoki/docquery/internal/model"
)

// ErrNotConnected is returned when no credential exists for a (user, provider) pair.
var ErrNotConnected = errors.New("provider not connected")

// CredentialStore persists per-user, per-provider OAuth credentials in
// DynamoDB, encrypting token material at rest. When no DynamoDB client is
// configured it falls back to an in-memory map (dev mode, tests).
type CredentialStore struct {
	dynamoClient *dynamodb.Client
	tableName    string
	encryptor    crypto.Encryptor

	// In-memory fallback
	creds map[string]model.Credential
	mu    sync.RWMutex
}

// NewCredentialStore creates a new CredentialStore.
func NewCredentialStore(dynamoClient *dynamodb.Client, tableName string, encryptor crypto.Encryptor) *CredentialStore {
	return &CredentialStore{
		dynamoClient: dynamoClient,
		tableName:    tableName,
		encryptor:    encryptor,
		creds:        make(map[string]model.Credential),
	}
}

func credKey(userID, provider string) string {
	return userID + "#" + provider
}

// Get retrieves the credential for (userID, provider) with tokens decrypted.
// Returns ErrNotConnected if none exists.
func (s *CredentialStore) Get(ctx context.Context, userID, provider string) (*model.Credential, error) {
	var cred model.Credential

	if s.dynamoClient == nil {
		s.mu.RLock()
		c, ok := s.creds[credKey(userID, provider)]
		s.mu.RUnlock()
		if !ok {
			return nil, ErrNotConnected
		}
		cred = c
	} else {
		out, err := s.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"user_id":  &types.AttributeValueMemberS{Value: userID},
				"provider": &types.AttributeValueMemberS{Value: provider},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get credential from DynamoDB: %w", err)
		}
		if out.Item == nil {
			return nil, ErrNotConnected
		}
		if err := attributevalue.UnmarshalMap(out.Item, &cred); err != nil {
			return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
		}
	}

	accessToken, err := s.encryptor.Decrypt(ctx, cred.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refreshToken, err := s.encryptor.Decrypt(ctx, cred.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}
	cred.AccessToken = accessToken
	cred.RefreshToken = refreshToken

	return &cred, nil
}

// Upsert stores the credential with tokens encrypted. The caller passes
// plaintext tokens; the stored copy never contains them.
func (s *CredentialStore) Upsert(ctx context.Context, cred model.Credential) error {
	encAccess, err := s.encryptor.Encrypt(ctx, cred.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh, err := s.encryptor.Encrypt(ctx, cred.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}
	cred.AccessToken = encAccess
	cred.RefreshToken = encRefresh
	cred.UpdatedAt = time.Now()

	if s.dynamoClient == nil {
		s.mu.Lock()
		s.creds[credKey(cred.UserID, cred.Provider)] = cred
		s.mu.Unlock()
		return nil
	}

	item, err := attributevalue.MarshalMap(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	_, err = s.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save credential to DynamoDB: %w", err)
	}

	return nil
}

// Delete removes the credential. Only called on explicit revoke.
func (s *CredentialStore) Delete(ctx context.Context, userID, provider string) error {
	if s.dynamoClient == nil {
		s.mu.Lock()
		delete(s.creds, credKey(userID, provider))
		s.mu.Unlock()
		return nil
	}

	_, err := s.dynamoClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"user_id":  &types.AttributeValueMemberS{Value: userID},
			"provider": &types.AttributeValueMemberS{Value: provider},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
