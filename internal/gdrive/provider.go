package gdrive

import (
	"context"
	"fmt"

	"github.com/aoki/docquery/internal/auth"
)

// Provider builds a per-user API client from stored credentials.
type Provider struct {
	authService *auth.Service
}

// NewProvider creates a new Provider.
func NewProvider(authService *auth.Service) *Provider {
	return &Provider{authService: authService}
}

// ClientFor returns an API client authenticated as the given user. This is
// where credential expiry is checked and a refresh happens if needed.
func (p *Provider) ClientFor(ctx context.Context, userID string) (API, error) {
	httpClient, err := p.authService.HTTPClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(ctx, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return client, nil
}
