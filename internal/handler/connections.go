package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/aoki/docquery/internal/auth"
	"github.com/aoki/docquery/internal/model"
)

// ConnectionHandler reports and revokes provider connections.
type ConnectionHandler struct {
	authService *auth.Service
	jwtSecret   string
}

// NewConnectionHandler creates a new ConnectionHandler.
func NewConnectionHandler(authService *auth.Service, jwtSecret string) *ConnectionHandler {
	return &ConnectionHandler{authService: authService, jwtSecret: jwtSecret}
}

// List handles GET /api/user/connections.
func (h *ConnectionHandler) List(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return errorResponse(http.StatusUnauthorized, "Unauthorized"), nil
	}

	conn, err := h.authService.Connection(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to read connection state")
		return errorResponse(http.StatusInternalServerError, "Failed to get connections"), nil
	}

	return jsonResponse(http.StatusOK, []model.Connection{conn}), nil
}

// Revoke handles POST /api/user/connections/google/revoke. The credential is
// deleted locally; the user can reconnect at any time.
func (h *ConnectionHandler) Revoke(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return errorResponse(http.StatusUnauthorized, "Unauthorized"), nil
	}

	if err := h.authService.Disconnect(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to revoke connection")
		return errorResponse(http.StatusInternalServerError, "Failed to revoke connection"), nil
	}

	return jsonResponse(http.StatusOK, map[string]bool{"success": true}), nil
}
