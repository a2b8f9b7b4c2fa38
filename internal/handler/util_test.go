package handler

import (
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func signSession(t *testing.T, secret, sub string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authedRequest(t *testing.T, userID string) events.APIGatewayProxyRequest {
	t.Helper()
	return events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"Authorization": "Bearer " + signSession(t, testJWTSecret, userID),
		},
	}
}

func TestGetUserIDFromBearer(t *testing.T) {
	req := authedRequest(t, "user-1")
	userID, err := GetUserID(req, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestGetUserIDFromCookie(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"cookie": "other=x; session_token=" + signSession(t, testJWTSecret, "user-2"),
		},
	}
	userID, err := GetUserID(req, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)
}

func TestGetUserIDMissingToken(t *testing.T) {
	_, err := GetUserID(events.APIGatewayProxyRequest{}, testJWTSecret)
	assert.Error(t, err)
}

func TestGetUserIDWrongSecret(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"Authorization": "Bearer " + signSession(t, "other-secret", "user-1"),
		},
	}
	_, err := GetUserID(req, testJWTSecret)
	assert.Error(t, err)
}

func TestGetUserIDExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}
	_, err = GetUserID(req, testJWTSecret)
	assert.Error(t, err)
}
