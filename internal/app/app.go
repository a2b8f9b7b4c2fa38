// Package app wires the service's dependencies and routes API Gateway
// events to handlers.
package app

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/aoki/docquery/internal/auth"
	"github.com/aoki/docquery/internal/config"
	"github.com/aoki/docquery/internal/crypto"
	"github.com/aoki/docquery/internal/document"
	"github.com/aoki/docquery/internal/gdrive"
	"github.com/aoki/docquery/internal/handler"
	"github.com/aoki/docquery/internal/llm"
	"github.com/aoki/docquery/internal/secret"
	"github.com/aoki/docquery/internal/session"
)

// App holds the dependencies for the Lambda function.
type App struct {
	authHandler       *handler.AuthHandler
	documentHandler   *handler.DocumentHandler
	chatHandler       *handler.ChatHandler
	connectionHandler *handler.ConnectionHandler

	frontendURL      string
	apiGatewaySecret string
	devMode          bool
}

// NewApp initializes the application dependencies.
func NewApp(ctx context.Context) *App {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.DevMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load AWS SDK config")
	}

	// In dev mode the credential store and refresh lock run in memory and
	// tokens are "encrypted" with the mock, so no AWS services are needed.
	var dynamoClient *dynamodb.Client
	var encryptor crypto.Encryptor
	var resolver secret.Resolver
	var locker session.Locker
	if cfg.DevMode {
		encryptor = crypto.NewMockEncryptor()
		resolver = secret.NewEnvResolver()
		locker = session.NewMemoryLocker()
		log.Info().Msg("dev mode: in-memory store, mock encryptor, env secrets")
	} else {
		dynamoClient = dynamodb.NewFromConfig(awsCfg)
		encryptor = crypto.NewKMSService(kms.NewFromConfig(awsCfg), cfg.KMSKeyID)
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(awsCfg))
		locker = session.NewLockManager(dynamoClient, cfg.Tables.RefreshLocks)
	}

	googleClientSecret, err := resolver.GetSecret(ctx, cfg.Google.ClientSecretParam)
	if err != nil {
		log.Warn().Err(err).Msg("failed to resolve google client secret")
	}
	jwtSecret, err := resolver.GetSecret(ctx, cfg.JWTSecretParam)
	if err != nil {
		log.Warn().Err(err).Msg("failed to resolve jwt secret")
		jwtSecret = "default-dev-secret"
	}
	apiGatewaySecret, err := resolver.GetSecret(ctx, cfg.APIGatewaySecretParam)
	if err != nil {
		log.Warn().Err(err).Msg("failed to resolve api gateway secret")
	}
	llmAPIKey, err := resolver.GetSecret(ctx, cfg.LLM.APIKeyParam)
	if err != nil {
		log.Warn().Err(err).Msg("failed to resolve llm api key")
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: googleClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/drive.readonly",
			"https://www.googleapis.com/auth/userinfo.email",
		},
		Endpoint: google.Endpoint,
	}

	store := auth.NewCredentialStore(dynamoClient, cfg.Tables.UserTokens, encryptor)
	refresher := auth.NewRefresher(google.Endpoint.TokenURL, cfg.Google.ClientID, googleClientSecret)
	authService := auth.NewService(oauthConfig, store, refresher, locker)

	documents := document.NewService(gdrive.NewProvider(authService), document.NewFetcher())

	llmClient := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		APIKey:      llmAPIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	return &App{
		authHandler:       handler.NewAuthHandler(authService, jwtSecret, cfg.FrontendURL, cfg.DevMode),
		documentHandler:   handler.NewDocumentHandler(documents, jwtSecret),
		chatHandler:       handler.NewChatHandler(documents, llmClient, jwtSecret),
		connectionHandler: handler.NewConnectionHandler(authService, jwtSecret),
		frontendURL:       cfg.FrontendURL,
		apiGatewaySecret:  apiGatewaySecret,
		devMode:           cfg.DevMode,
	}
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	log.Debug().Str("method", method).Str("path", path).Msg("request")

	// CORS preflight
	if method == http.MethodOptions {
		return app.corsResponse(events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}), nil
	}

	// Only requests that came through CloudFront carry the shared secret.
	if !app.devMode {
		if getHeader(req, "X-Origin-Verify") != app.apiGatewaySecret {
			log.Warn().Str("path", path).Msg("missing or invalid X-Origin-Verify header")
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusForbidden,
				Body:       "Forbidden: Access denied",
			}, nil
		}
	}

	switch {
	case path == "/api/documents" && method == http.MethodGet:
		return app.corsResponse(app.must(app.documentHandler.List(ctx, req))), nil
	case strings.HasPrefix(path, "/api/documents/") && method == http.MethodGet:
		if req.PathParameters == nil {
			req.PathParameters = make(map[string]string)
		}
		req.PathParameters["id"] = strings.TrimPrefix(path, "/api/documents/")
		return app.corsResponse(app.must(app.documentHandler.Get(ctx, req))), nil
	case path == "/api/chat" && method == http.MethodPost:
		return app.corsResponse(app.must(app.chatHandler.Chat(ctx, req))), nil
	case path == "/api/user/connections" && method == http.MethodGet:
		return app.corsResponse(app.must(app.connectionHandler.List(ctx, req))), nil
	case path == "/api/user/connections/google/revoke" && method == http.MethodPost:
		return app.corsResponse(app.must(app.connectionHandler.Revoke(ctx, req))), nil
	case path == "/auth/google/connect" && method == http.MethodGet:
		return app.corsResponse(app.must(app.authHandler.Connect(ctx, req))), nil
	case path == "/auth/google/callback" && method == http.MethodGet:
		return app.corsResponse(app.must(app.authHandler.Callback(ctx, req))), nil
	case path == "/auth/logout" && method == http.MethodPost:
		return app.corsResponse(app.must(app.authHandler.Logout(ctx, req))), nil
	}

	return app.corsResponse(events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       "Not Found",
	}), nil
}

// corsResponse adds CORS headers to an API Gateway response.
func (app *App) corsResponse(resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Access-Control-Allow-Origin"] = app.frontendURL
	resp.Headers["Access-Control-Allow-Credentials"] = "true"
	resp.Headers["Access-Control-Allow-Methods"] = "GET,POST,OPTIONS"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,Authorization"
	return resp
}

// must unwraps a handler response; handlers report failures through status
// codes, so an error here is a bug.
func (app *App) must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		log.Error().Err(err).Msg("handler error")
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Internal Server Error"}
	}
	return resp
}

func getHeader(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
