package hosting

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubClient opens pull requests through the GitHub REST API.
type GitHubClient struct {
	client     *github.Client
	baseBranch string
}

func NewGitHubClient(ctx context.Context, token, baseBranch string) (*GitHubClient, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("github token not set")
	}
	if strings.TrimSpace(baseBranch) == "" {
		baseBranch = "main"
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(token)})
	tc := oauth2.NewClient(ctx, ts)
	return &GitHubClient{
		client:     github.NewClient(tc),
		baseBranch: baseBranch,
	}, nil
}

func (c *GitHubClient) CreatePullRequest(ctx context.Context, pr PullRequest) (string, error) {
	owner, name, err := SplitRepo(pr.Repo)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(pr.Head) == "" {
		return "", fmt.Errorf("head branch is required")
	}
	base := strings.TrimSpace(pr.Base)
	if base == "" {
		base = c.baseBranch
	}

	created, _, err := c.client.PullRequests.Create(ctx, owner, name, &github.NewPullRequest{
		Title: github.String(pr.Title),
		Head:  github.String(pr.Head),
		Base:  github.String(base),
		Body:  github.String(pr.Body),
	})
	if err != nil {
		return "", fmt.Errorf("create pull request: %w", err)
	}
	url := created.GetHTMLURL()
	if url == "" {
		return "", fmt.Errorf("github returned pull request without URL")
	}
	return url, nil
}
