// Package config loads service configuration from an optional yaml file
// overridden by DOCQUERY_-prefixed environment variables. Secret values are
// not stored here; config carries the parameter names resolved through
// internal/secret at startup.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full service configuration.
type Config struct {
	DevMode     bool   `koanf:"dev_mode"`
	FrontendURL string `koanf:"frontend_url"`

	Google GoogleConfig `koanf:"google"`
	LLM    LLMConfig    `koanf:"llm"`
	Tables TablesConfig `koanf:"tables"`

	KMSKeyID              string `koanf:"kms_key_id"`
	JWTSecretParam        string `koanf:"jwt_secret_param"`
	APIGatewaySecretParam string `koanf:"api_gateway_secret_param"`
}

// GoogleConfig configures the OAuth client for Google.
type GoogleConfig struct {
	ClientID          string `koanf:"client_id"`
	ClientSecretParam string `koanf:"client_secret_param"`
	RedirectURL       string `koanf:"redirect_url"`
}

// LLMConfig configures the chat completions backend.
type LLMConfig struct {
	BaseURL     string  `koanf:"base_url"`
	Model       string  `koanf:"model"`
	APIKeyParam string  `koanf:"api_key_param"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
}

// TablesConfig names the DynamoDB tables.
type TablesConfig struct {
	UserTokens   string `koanf:"user_tokens"`
	RefreshLocks string `koanf:"refresh_locks"`
}

// Load reads configuration from path (skipped when empty or absent), then
// applies environment overrides, e.g. DOCQUERY_GOOGLE__CLIENT_ID sets
// google.client_id.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("DOCQUERY_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "DOCQUERY_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.FrontendURL == "" {
		c.FrontendURL = "http://localhost:3000"
	}
	if c.Google.ClientSecretParam == "" {
		c.Google.ClientSecretParam = "/docquery/google-client-secret"
	}
	if c.Google.RedirectURL == "" {
		if c.DevMode {
			c.Google.RedirectURL = "http://localhost:8080/auth/google/callback"
		} else {
			c.Google.RedirectURL = c.FrontendURL + "/api/auth/google/callback"
		}
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:8000"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.APIKeyParam == "" {
		c.LLM.APIKeyParam = "/docquery/llm-api-key"
	}
	if c.Tables.UserTokens == "" {
		c.Tables.UserTokens = "UserTokens"
	}
	if c.Tables.RefreshLocks == "" {
		c.Tables.RefreshLocks = "RefreshLocks"
	}
	if c.KMSKeyID == "" {
		c.KMSKeyID = "alias/docquery-token-key"
	}
	if c.JWTSecretParam == "" {
		c.JWTSecretParam = "/docquery/jwt-secret"
	}
	if c.APIGatewaySecretParam == "" {
		c.APIGatewaySecretParam = "/docquery/api-gateway-secret"
	}
}
