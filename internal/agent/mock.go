package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MockClient provides deterministic local sessions when no agent service is
// configured. Sessions walk a fixed state script: one poll planning, then
// awaiting-plan-approval; approval runs the session, then awaiting-diff-
// approval; diff approval reports done.
type MockClient struct {
	mu       sync.Mutex
	nextID   atomic.Int64
	sessions map[string]*mockSession
}

type mockSession struct {
	polls        int
	planApproved bool
	diffApproved bool
	cancelled    bool
}

func NewMockClient() *MockClient {
	return &MockClient{sessions: make(map[string]*mockSession)}
}

func (c *MockClient) CreateSession(ctx context.Context, _, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	id := fmt.Sprintf("mock-%d", c.nextID.Add(1))
	c.mu.Lock()
	c.sessions[id] = &mockSession{}
	c.mu.Unlock()
	return id, nil
}

func (c *MockClient) SessionState(_ context.Context, sessionID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return "", fmt.Errorf("unknown session %q", sessionID)
	}
	switch {
	case s.cancelled:
		return "cancelled", nil
	case s.diffApproved:
		return "done", nil
	case s.planApproved:
		return "awaiting-diff-approval", nil
	case s.polls == 0:
		s.polls++
		return "planning", nil
	default:
		return "awaiting-plan-approval", nil
	}
}

func (c *MockClient) ApprovePlan(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return fmt.Errorf("unknown session %q", sessionID)
	}
	s.planApproved = true
	return nil
}

func (c *MockClient) ApproveDiff(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return fmt.Errorf("unknown session %q", sessionID)
	}
	s.diffApproved = true
	return nil
}

func (c *MockClient) CancelSession(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return fmt.Errorf("unknown session %q", sessionID)
	}
	s.cancelled = true
	return nil
}
