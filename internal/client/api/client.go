// Package api implements the HTTP and WebSocket client for the chat relay.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/D-Abramoc/chatrelay/internal/common"
	"github.com/D-Abramoc/chatrelay/internal/server/models"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	RepeatPassword string `json:"repeat_password"`
	TelegramID     *int64 `json:"tg_id,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

// Register creates a new account. telegramID may be nil.
func (c *Client) Register(ctx context.Context, email, password, repeatPassword string, telegramID *int64) error {
	status, err := c.postJSON(ctx, "/auth/register", registerRequest{
		Email:          email,
		Password:       password,
		RepeatPassword: repeatPassword,
		TelegramID:     telegramID,
	}, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusCreated:
		return nil
	case http.StatusConflict:
		return common.ErrorAlreadyExists
	case http.StatusBadRequest:
		return common.ErrorPasswordMismatch
	default:
		return fmt.Errorf("register failed: status %d", status)
	}
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	status, err := c.postJSON(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized {
		return "", common.ErrorUnauthorized
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login failed: status %d", status)
	}
	return resp.AccessToken, nil
}

// History fetches the conversation with another user, oldest first.
func (c *Client) History(ctx context.Context, token string, userID int64) ([]*models.Message, error) {
	u := fmt.Sprintf("%s/chat/messages/%d?token=%s", c.baseURL, userID, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history failed: status %d", resp.StatusCode)
	}

	var history []*models.Message
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return history, nil
}

// DialChat opens the WebSocket connection, authenticating with the token
// query parameter.
func (c *Client) DialChat(ctx context.Context, token string) (*websocket.Conn, error) {
	wsBase := c.baseURL
	switch {
	case strings.HasPrefix(wsBase, "https"):
		wsBase = "wss" + strings.TrimPrefix(wsBase, "https")
	case strings.HasPrefix(wsBase, "http"):
		wsBase = "ws" + strings.TrimPrefix(wsBase, "http")
	}

	u := fmt.Sprintf("%s/ws/1?token=%s", wsBase, url.QueryEscape(token))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	return conn, nil
}
