// Package esign obtains access tokens for the e-signature provider using
// the JWT authorization grant, so campaign agreements can be routed for
// signature.
package esign

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sailnathona/ImpactHub/pkg/config"
	"github.com/sailnathona/ImpactHub/pkg/logging"
)

const jwtGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

type Config struct {
	IntegrationKey string
	UserID         string
	OAuthHost      string
	PrivateKeyPEM  string
}

// LoadConfig reads the e-sign settings from the environment. An empty
// integration key means the integration is disabled.
func LoadConfig() Config {
	return Config{
		IntegrationKey: config.GetEnv("ESIGN_INTEGRATION_KEY", ""),
		UserID:         config.GetEnv("ESIGN_USER_ID", ""),
		OAuthHost:      config.GetEnv("ESIGN_OAUTH_HOST", "account-d.docusign.com"),
		PrivateKeyPEM:  config.GetEnv("ESIGN_PRIVATE_KEY", ""),
	}
}

type Client struct {
	cfg        Config
	privateKey *rsa.PrivateKey
	httpClient *http.Client
	tokenURL   string
	logger     logging.Logger
	now        func() time.Time
}

// NewClient parses the configured private key up front so a bad key fails
// at startup, not on the first signing request.
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.IntegrationKey == "" {
		return nil, fmt.Errorf("e-sign integration key not configured")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse e-sign private key: %w", err)
	}
	return &Client{
		cfg:        cfg,
		privateKey: key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokenURL:   fmt.Sprintf("https://%s/oauth/token", cfg.OAuthHost),
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Enabled reports whether the integration is configured at all.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.IntegrationKey != ""
}

// AccessToken signs a one-hour impersonation assertion and exchanges it
// for an access token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	now := c.now()
	claims := jwt.MapClaims{
		"iss":   c.cfg.IntegrationKey,
		"sub":   c.cfg.UserID,
		"aud":   c.cfg.OAuthHost,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"scope": "signature impersonation",
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign e-sign assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {jwtGrantType},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("e-sign token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("e-sign token exchange failed with status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode e-sign token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("e-sign token response missing access_token")
	}
	return payload.AccessToken, nil
}
