package hosting

import (
	"context"
	"testing"
)

func TestSplitRepo(t *testing.T) {
	cases := []struct {
		repo      string
		owner     string
		name      string
		wantError bool
	}{
		{"org/app", "org", "app", false},
		{"  org/app  ", "org", "app", false},
		{"orgapp", "", "", true},
		{"org/app/extra", "", "", true},
		{"/app", "", "", true},
		{"org/", "", "", true},
		{"", "", "", true},
	}
	for _, tc := range cases {
		owner, name, err := SplitRepo(tc.repo)
		if tc.wantError {
			if err == nil {
				t.Fatalf("SplitRepo(%q) error = nil, want error", tc.repo)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SplitRepo(%q) error = %v", tc.repo, err)
		}
		if owner != tc.owner || name != tc.name {
			t.Fatalf("SplitRepo(%q) = (%q, %q), want (%q, %q)", tc.repo, owner, name, tc.owner, tc.name)
		}
	}
}

func TestMockClientFabricatesSequentialURLs(t *testing.T) {
	c := NewMockClient()
	ctx := context.Background()

	first, err := c.CreatePullRequest(ctx, PullRequest{Repo: "org/app", Head: "agent/s1"})
	if err != nil {
		t.Fatalf("CreatePullRequest() error = %v", err)
	}
	if first != "https://github.com/org/app/pull/1" {
		t.Fatalf("first URL = %q", first)
	}

	second, err := c.CreatePullRequest(ctx, PullRequest{Repo: "org/app", Head: "agent/s2"})
	if err != nil {
		t.Fatalf("CreatePullRequest() error = %v", err)
	}
	if second != "https://github.com/org/app/pull/2" {
		t.Fatalf("second URL = %q, want pull number to advance", second)
	}
}

func TestMockClientValidatesInput(t *testing.T) {
	c := NewMockClient()
	ctx := context.Background()

	if _, err := c.CreatePullRequest(ctx, PullRequest{Repo: "not-a-repo", Head: "b"}); err == nil {
		t.Fatalf("CreatePullRequest(bad repo) error = nil, want error")
	}
	if _, err := c.CreatePullRequest(ctx, PullRequest{Repo: "org/app"}); err == nil {
		t.Fatalf("CreatePullRequest(no head) error = nil, want error")
	}
}
