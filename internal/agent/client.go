package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Client wraps the remote coding agent's session lifecycle API. All calls
// are stateless request/response; the agent owns session state.
type Client interface {
	CreateSession(ctx context.Context, repo, prompt string) (string, error)
	SessionState(ctx context.Context, sessionID string) (string, error)
	ApprovePlan(ctx context.Context, sessionID string) error
	ApproveDiff(ctx context.Context, sessionID string) error
	CancelSession(ctx context.Context, sessionID string) error
}

// Config controls client construction.
type Config struct {
	Mode    string
	BaseURL string
	Token   string
}

func New(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.BaseURL) != "" {
			return NewHTTPClient(cfg.BaseURL, cfg.Token), nil
		}
		return NewMockClient(), nil
	case "http":
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, errors.New("agent base URL is required for http mode")
		}
		return NewHTTPClient(cfg.BaseURL, cfg.Token), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported agent client mode %q", cfg.Mode)
	}
}
