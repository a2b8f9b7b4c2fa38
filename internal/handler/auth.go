package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/aoki/docquery/internal/auth"
)

// AuthHandler handles the Google OAuth flow and session management.
type AuthHandler struct {
	authService *auth.Service
	jwtSecret   string
	frontendURL string
	devMode     bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service, jwtSecret, frontendURL string, devMode bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   jwtSecret,
		frontendURL: frontendURL,
		devMode:     devMode,
	}
}

// Connect handles GET /auth/google/connect: redirects to the Google consent
// screen with a random state nonce stored in a short-lived cookie.
func (h *AuthHandler) Connect(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	state := uuid.New().String()
	url := h.authService.GenerateAuthURL(state)

	stateCookie := fmt.Sprintf("oauth_state=%s; HttpOnly; Path=/; Max-Age=600; SameSite=%s; Secure", state, h.sameSite())
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": url,
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {stateCookie},
		},
	}, nil
}

// Callback handles GET /auth/google/callback: verifies state, exchanges the
// code, stores the credential and issues a session JWT.
func (h *AuthHandler) Callback(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	code := req.QueryStringParameters["code"]
	if code == "" {
		return errorResponse(http.StatusBadRequest, "Missing code"), nil
	}
	state := req.QueryStringParameters["state"]
	if state == "" || state != cookieValue(req, "oauth_state") {
		return errorResponse(http.StatusBadRequest, "Invalid state"), nil
	}

	token, err := h.authService.ExchangeCode(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("code exchange failed")
		return errorResponse(http.StatusInternalServerError, "Failed to exchange code"), nil
	}

	// Identify the user by their Google subject ID.
	oauth2Service, err := oauth2.NewService(ctx, option.WithTokenSource(h.authService.Config().TokenSource(ctx, token)))
	if err != nil {
		log.Error().Err(err).Msg("failed to create oauth2 service")
		return errorResponse(http.StatusInternalServerError, "Failed to create oauth2 service"), nil
	}
	userinfo, err := oauth2Service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		log.Error().Err(err).Msg("failed to get user info")
		return errorResponse(http.StatusInternalServerError, "Failed to get user info"), nil
	}
	userID := userinfo.Id

	if err := h.authService.SaveToken(ctx, userID, token); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to save credential")
		return errorResponse(http.StatusInternalServerError, "Failed to save credential"), nil
	}

	claims := jwt.MapClaims{
		"sub":   userID,
		"email": userinfo.Email,
		"name":  userinfo.Name,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "Failed to sign token"), nil
	}

	sessionCookie := fmt.Sprintf("session_token=%s; HttpOnly; Path=/; Max-Age=86400; SameSite=%s; Secure", signedToken, h.sameSite())
	clearStateCookie := fmt.Sprintf("oauth_state=; HttpOnly; Path=/; Max-Age=0; SameSite=%s; Secure", h.sameSite())

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": fmt.Sprintf("%s/?connected=true", h.frontendURL),
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {sessionCookie, clearStateCookie},
		},
	}, nil
}

// Logout handles POST /auth/logout: clears the session cookie.
func (h *AuthHandler) Logout(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	cookie := fmt.Sprintf("session_token=; HttpOnly; Path=/; Max-Age=0; SameSite=%s; Secure", h.sameSite())
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       `{"success":true}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {cookie},
		},
	}, nil
}

// sameSite must be None in production: the frontend and the API sit on
// different origins behind CloudFront.
func (h *AuthHandler) sameSite() string {
	if h.devMode {
		return "Lax"
	}
	return "None"
}

func cookieValue(req events.APIGatewayProxyRequest, name string) string {
	for _, part := range strings.Split(getHeader(req, "Cookie"), ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, name+"=") {
			return strings.TrimPrefix(part, name+"=")
		}
	}
	return ""
}
