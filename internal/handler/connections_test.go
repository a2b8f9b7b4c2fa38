package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/aoki/docquery/internal/auth"
	"github.com/aoki/docquery/internal/crypto"
	"github.com/aoki/docquery/internal/model"
	"github.com/aoki/docquery/internal/session"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	store := auth.NewCredentialStore(nil, "", crypto.NewMockEncryptor())
	refresher := auth.NewRefresher("http://unused.invalid/token", "client-id", "client-secret")
	return auth.NewService(&oauth2.Config{ClientID: "client-id"}, store, refresher, session.NewMemoryLocker())
}

func connectUser(t *testing.T, svc *auth.Service, userID string) {
	t.Helper()
	err := svc.SaveToken(context.Background(), userID, &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
}

func TestConnectionListConnected(t *testing.T) {
	svc := newAuthService(t)
	connectUser(t, svc, "user-1")
	h := NewConnectionHandler(svc, testJWTSecret)

	resp, err := h.List(context.Background(), authedRequest(t, "user-1"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var conns []model.Connection
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &conns))
	require.Len(t, conns, 1)
	assert.Equal(t, model.ProviderGoogle, conns[0].Provider)
	assert.True(t, conns[0].Connected)
}

func TestConnectionListNotConnected(t *testing.T) {
	h := NewConnectionHandler(newAuthService(t), testJWTSecret)

	resp, err := h.List(context.Background(), authedRequest(t, "user-1"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var conns []model.Connection
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &conns))
	require.Len(t, conns, 1)
	assert.False(t, conns[0].Connected)
}

func TestConnectionListUnauthorized(t *testing.T) {
	h := NewConnectionHandler(newAuthService(t), testJWTSecret)

	resp, err := h.List(context.Background(), events.APIGatewayProxyRequest{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConnectionRevoke(t *testing.T) {
	svc := newAuthService(t)
	connectUser(t, svc, "user-1")
	h := NewConnectionHandler(svc, testJWTSecret)

	resp, err := h.Revoke(context.Background(), authedRequest(t, "user-1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn, err := svc.Connection(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, conn.Connected)
}
