package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"

	"github.com/aoki/docquery/internal/auth"
	"github.com/aoki/docquery/internal/document"
)

// DocumentHandler serves aggregated document content.
type DocumentHandler struct {
	documents *document.Service
	jwtSecret string
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documents *document.Service, jwtSecret string) *DocumentHandler {
	return &DocumentHandler{documents: documents, jwtSecret: jwtSecret}
}

// List handles GET /api/documents. An empty query returns all supported
// files; otherwise results are filtered by name or full text.
func (h *DocumentHandler) List(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return errorResponse(http.StatusUnauthorized, "Unauthorized"), nil
	}

	query := req.QueryStringParameters["query"]
	docs, err := h.documents.SearchDocuments(ctx, userID, query)
	if err != nil {
		return documentErrorResponse(userID, err), nil
	}

	return jsonResponse(http.StatusOK, docs), nil
}

// Get handles GET /api/documents/{id}.
func (h *DocumentHandler) Get(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return errorResponse(http.StatusUnauthorized, "Unauthorized"), nil
	}

	fileID := req.PathParameters["id"]
	if fileID == "" {
		return errorResponse(http.StatusBadRequest, "Document ID is required"), nil
	}

	doc, err := h.documents.GetDocument(ctx, userID, fileID)
	if err != nil {
		if isNotFound(err) {
			return errorResponse(http.StatusNotFound, "Document not found"), nil
		}
		return documentErrorResponse(userID, err), nil
	}

	return jsonResponse(http.StatusOK, doc), nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// documentErrorResponse maps aggregation failures onto HTTP statuses:
// missing or dead credentials mean the user must (re)connect Google.
func documentErrorResponse(userID string, err error) events.APIGatewayProxyResponse {
	switch {
	case errors.Is(err, auth.ErrNotConnected):
		return errorResponse(http.StatusForbidden, "Google account not connected")
	case errors.Is(err, auth.ErrReconnectRequired):
		return errorResponse(http.StatusForbidden, "Google connection expired, please reconnect")
	default:
		log.Error().Err(err).Str("user_id", userID).Msg("document aggregation failed")
		return errorResponse(http.StatusInternalServerError, "Failed to fetch documents")
	}
}
