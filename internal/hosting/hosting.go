package hosting

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// PullRequest describes the pull request to open. Repo is in owner/name
// form; Base defaults upstream when empty.
type PullRequest struct {
	Repo  string
	Head  string
	Base  string
	Title string
	Body  string
}

// Client wraps the source-hosting provider's pull-request creation.
type Client interface {
	CreatePullRequest(ctx context.Context, pr PullRequest) (string, error)
}

// SplitRepo splits an owner/name repository identifier.
func SplitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimSpace(repo), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repo %q is not in owner/name form", repo)
	}
	return parts[0], parts[1], nil
}

// MockClient fabricates pull request URLs for tests and agentless runs.
type MockClient struct {
	nextNumber atomic.Int64
}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) CreatePullRequest(ctx context.Context, pr PullRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	owner, name, err := SplitRepo(pr.Repo)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(pr.Head) == "" {
		return "", fmt.Errorf("head branch is required")
	}
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", owner, name, c.nextNumber.Add(1)), nil
}
