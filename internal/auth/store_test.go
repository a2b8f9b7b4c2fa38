package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aoki/docquery/internal/crypto"
	"github.com/aoki/docquery/internal/model"
)

func testStore() *CredentialStore {
	// No DynamoDB client — uses in-memory fallback
	return NewCredentialStore(nil, "test-credentials-table", crypto.NewMockEncryptor())
}

func TestCredentialStore_UpsertAndGet(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	err := s.Upsert(ctx, model.Credential{
		UserID:       "user1",
		Provider:     model.ProviderGoogle,
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		ExpiresAt:    time.Now().Add(1 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	cred, err := s.Get(ctx, "user1", model.ProviderGoogle)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	// Tokens come back decrypted
	if cred.AccessToken != "access-123" {
		t.Errorf("Expected access token 'access-123', got '%s'", cred.AccessToken)
	}
	if cred.RefreshToken != "refresh-456" {
		t.Errorf("Expected refresh token 'refresh-456', got '%s'", cred.RefreshToken)
	}
}

func TestCredentialStore_TokensEncryptedAtRest(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	s.Upsert(ctx, model.Credential{
		UserID:       "user1",
		Provider:     model.ProviderGoogle,
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		ExpiresAt:    time.Now().Add(1 * time.Hour),
	})

	// MockEncryptor prefixes with "mock:"
	stored := s.creds[credKey("user1", model.ProviderGoogle)]
	if stored.AccessToken != "mock:access-123" {
		t.Errorf("Expected stored access token 'mock:access-123', got '%s'", stored.AccessToken)
	}
	if stored.RefreshToken != "mock:refresh-456" {
		t.Errorf("Expected stored refresh token 'mock:refresh-456', got '%s'", stored.RefreshToken)
	}
}

func TestCredentialStore_Get_NotConnected(t *testing.T) {
	s := testStore()

	_, err := s.Get(context.Background(), "nobody", model.ProviderGoogle)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestCredentialStore_Delete(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	s.Upsert(ctx, model.Credential{
		UserID:       "user1",
		Provider:     model.ProviderGoogle,
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(1 * time.Hour),
	})

	if err := s.Delete(ctx, "user1", model.ProviderGoogle); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := s.Get(ctx, "user1", model.ProviderGoogle)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected after delete, got %v", err)
	}
}

func TestCredentialStore_UpsertOverwrites(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	s.Upsert(ctx, model.Credential{
		UserID:       "user1",
		Provider:     model.ProviderGoogle,
		AccessToken:  "old-access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(-1 * time.Hour),
	})

	newExpiry := time.Now().Add(1 * time.Hour)
	s.Upsert(ctx, model.Credential{
		UserID:       "user1",
		Provider:     model.ProviderGoogle,
		AccessToken:  "new-access",
		RefreshToken: "refresh",
		ExpiresAt:    newExpiry,
	})

	cred, _ := s.Get(ctx, "user1", model.ProviderGoogle)
	if cred.AccessToken != "new-access" {
		t.Errorf("Expected 'new-access', got '%s'", cred.AccessToken)
	}
	if cred.Expired(0) {
		t.Error("Expected credential to be valid after overwrite")
	}
}
