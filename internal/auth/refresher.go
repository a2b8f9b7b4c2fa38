package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrReconnectRequired is returned when a refresh-token grant fails.
// The stored credential is unusable; the user must re-run the OAuth flow.
var ErrReconnectRequired = errors.New("token refresh failed, reconnect required")

// Refresher exchanges a refresh token for a new access token at the
// provider's token endpoint. Refresh failures are never retried.
type Refresher struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewRefresher creates a Refresher for the given token endpoint.
func NewRefresher(tokenURL, clientID, clientSecret string) *Refresher {
	return &Refresher{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Refresh posts a standard refresh_token grant and returns the new access
// token and its lifetime.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (string, time.Duration, error) {
	if refreshToken == "" {
		return "", 0, fmt.Errorf("%w: no refresh token stored", ErrReconnectRequired)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {r.clientID},
		"client_secret": {r.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrReconnectRequired, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("%w: token endpoint returned %d: %s", ErrReconnectRequired, resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", 0, fmt.Errorf("%w: invalid token response: %v", ErrReconnectRequired, err)
	}
	if tokenResp.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: token response missing access_token", ErrReconnectRequired)
	}

	return tokenResp.AccessToken, time.Duration(tokenResp.ExpiresIn) * time.Second, nil
}
