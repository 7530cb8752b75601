package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient talks to an agent service exposing the session API over JSON.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type createSessionRequest struct {
	Repo   string `json:"repo,omitempty"`
	Prompt string `json:"prompt"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type sessionStateResponse struct {
	State string `json:"state"`
}

func (c *HTTPClient) CreateSession(ctx context.Context, repo, prompt string) (string, error) {
	var out createSessionResponse
	err := c.do(ctx, http.MethodPost, "/v1/sessions", createSessionRequest{
		Repo:   repo,
		Prompt: prompt,
	}, &out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.SessionID) == "" {
		return "", fmt.Errorf("agent returned empty session id")
	}
	return out.SessionID, nil
}

func (c *HTTPClient) SessionState(ctx context.Context, sessionID string) (string, error) {
	var out sessionStateResponse
	err := c.do(ctx, http.MethodGet, "/v1/sessions/"+sessionID, nil, &out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.State), nil
}

func (c *HTTPClient) ApprovePlan(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/approve-plan", nil, nil)
}

func (c *HTTPClient) ApproveDiff(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/approve-diff", nil, nil)
}

func (c *HTTPClient) CancelSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/cancel", nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("agent http status %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
