package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/aoki/docquery/internal/model"
	"github.com/aoki/docquery/internal/session"
)

const (
	// expirySkew is subtracted from a credential's lifetime when checking
	// validity, so a token is refreshed shortly before it actually dies.
	expirySkew = 1 * time.Minute

	// lockPollInterval is how often a request waiting on a concurrent
	// refresh re-checks the store and re-tries the lock.
	lockPollInterval = 200 * time.Millisecond
)

// Service handles the OAuth2 flow and the credential lifecycle: exchange on
// connect, expiry check + refresh + persist before every remote call.
type Service struct {
	oauthConfig *oauth2.Config
	store       *CredentialStore
	refresher   *Refresher
	locker      session.Locker
}

// NewService creates a new auth Service.
// The oauthConfig should be constructed by the caller (e.g., from configuration).
func NewService(oauthConfig *oauth2.Config, store *CredentialStore, refresher *Refresher, locker session.Locker) *Service {
	return &Service{
		oauthConfig: oauthConfig,
		store:       store,
		refresher:   refresher,
		locker:      locker,
	}
}

// Config returns the OAuth2 config.
func (s *Service) Config() *oauth2.Config {
	return s.oauthConfig
}

// GenerateAuthURL returns the URL to redirect the user to for Google consent.
func (s *Service) GenerateAuthURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode exchanges the authorization code for a token.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return s.oauthConfig.Exchange(ctx, code)
}

// SaveToken stores the credential obtained from an OAuth exchange. If the
// provider omitted the refresh token (repeat consent), the previously stored
// one is preserved.
func (s *Service) SaveToken(ctx context.Context, userID string, token *oauth2.Token) error {
	refreshToken := token.RefreshToken
	if refreshToken == "" {
		existing, err := s.store.Get(ctx, userID, model.ProviderGoogle)
		if err != nil {
			return fmt.Errorf("no refresh token in response and none stored")
		}
		refreshToken = existing.RefreshToken
	}

	return s.store.Upsert(ctx, model.Credential{
		UserID:       userID,
		Provider:     model.ProviderGoogle,
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    token.Expiry,
	})
}

// EnsureValidCredential returns a credential whose access token is valid,
// refreshing and persisting it first if expired. The refresh runs under a
// per-(user, provider) lock so concurrent requests cannot interleave the
// check-refresh-persist sequence.
func (s *Service) EnsureValidCredential(ctx context.Context, userID string) (*model.Credential, error) {
	cred, err := s.store.Get(ctx, userID, model.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	if !cred.Expired(expirySkew) {
		return cred, nil
	}

	key := userID + "#" + model.ProviderGoogle
	owner := uuid.New().String()
	deadline := time.Now().Add(session.DefaultTTL)
	for {
		if _, err := s.locker.Acquire(ctx, key, owner); err == nil {
			return s.refreshLocked(ctx, userID, key, owner)
		} else if !errors.Is(err, session.ErrLockHeld) {
			return nil, fmt.Errorf("failed to lock credential for refresh: %w", err)
		}

		// Another request holds the lock. It either persists a fresh
		// credential or fails and releases; wait briefly, then re-check
		// the store and re-try the lock so a terminal refresh failure
		// surfaces here too instead of a timeout.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}

		cred, err = s.store.Get(ctx, userID, model.ProviderGoogle)
		if err != nil {
			return nil, err
		}
		if !cred.Expired(expirySkew) {
			return cred, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for concurrent token refresh")
		}
	}
}

// refreshLocked runs the re-read / refresh / persist sequence while holding
// the refresh lock, releasing it on the way out.
func (s *Service) refreshLocked(ctx context.Context, userID, key, owner string) (*model.Credential, error) {
	defer func() {
		if err := s.locker.Release(ctx, key, owner); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("failed to release refresh lock")
		}
	}()

	// Re-read under the lock: the winner of a concurrent race has already
	// refreshed by the time we get here.
	cred, err := s.store.Get(ctx, userID, model.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	if !cred.Expired(expirySkew) {
		return cred, nil
	}

	accessToken, expiresIn, err := s.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return nil, err
	}

	cred.AccessToken = accessToken
	cred.ExpiresAt = time.Now().Add(expiresIn)
	if err := s.store.Upsert(ctx, *cred); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	log.Info().Str("user_id", userID).Time("expires_at", cred.ExpiresAt).Msg("access token refreshed")
	return cred, nil
}

// HTTPClient returns an http.Client authenticated as the user, refreshing
// the stored credential first if necessary.
func (s *Service) HTTPClient(ctx context.Context, userID string) (*http.Client, error) {
	cred, err := s.EnsureValidCredential(ctx, userID)
	if err != nil {
		return nil, err
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   "Bearer",
		Expiry:      cred.ExpiresAt,
	})
	return oauth2.NewClient(ctx, src), nil
}

// Connection reports whether the user has a Google credential on file.
func (s *Service) Connection(ctx context.Context, userID string) (model.Connection, error) {
	cred, err := s.store.Get(ctx, userID, model.ProviderGoogle)
	if errors.Is(err, ErrNotConnected) {
		return model.Connection{Provider: model.ProviderGoogle, Connected: false}, nil
	}
	if err != nil {
		return model.Connection{}, err
	}
	return model.Connection{
		Provider:  model.ProviderGoogle,
		Connected: true,
		ExpiresAt: cred.ExpiresAt,
	}, nil
}

// Disconnect removes the stored credential. The provider-side revoke call is
// best effort; local deletion is what actually cuts off access.
func (s *Service) Disconnect(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, userID, model.ProviderGoogle)
}
