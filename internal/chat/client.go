package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"streamify/internal/config"
)

// User is the identity payload mirrored to the chat provider.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Provider is the interface to the external chat-identity SaaS.
// The real implementation talks HTTP; tests substitute a stub.
type Provider interface {
	UpsertUser(ctx context.Context, user User) error
	CreateToken(userID string) (string, error)
}

// Client is the HTTP implementation of Provider.
//
// User tokens are minted locally: the provider trusts any JWT signed with the
// shared API secret, so CreateToken never performs a network call. Only
// UpsertUser reaches the provider's REST API.
type Client struct {
	apiKey     string
	apiSecret  []byte
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a chat provider client from configuration.
func NewClient(cfg config.ChatConfig) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("chat provider requires both API key and secret")
	}
	return &Client{
		apiKey:    cfg.APIKey,
		apiSecret: []byte(cfg.APISecret),
		baseURL:   cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// CreateToken mints a provider token for the given user ID.
func (c *Client) CreateToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
	})
	signed, err := token.SignedString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("signing chat token: %w", err)
	}
	return signed, nil
}

// serverToken authenticates this backend against the provider API.
func (c *Client) serverToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"server": true,
	})
	return token.SignedString(c.apiSecret)
}

// UpsertUser creates or updates the user's identity at the provider.
func (c *Client) UpsertUser(ctx context.Context, user User) error {
	payload := map[string]interface{}{
		"users": map[string]User{user.ID: user},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding upsert payload: %w", err)
	}

	url := fmt.Sprintf("%s/users?api_key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building upsert request: %w", err)
	}

	auth, err := c.serverToken()
	if err != nil {
		return fmt.Errorf("signing server token: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	req.Header.Set("Stream-Auth-Type", "jwt")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat provider upsert call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chat provider upsert returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
