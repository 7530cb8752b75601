package tasks

import (
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusNew                    Status = "new"
	StatusQueued                 Status = "queued"
	StatusPlanning               Status = "planning"
	StatusWaitingForPlanApproval Status = "waiting_for_plan_approval"
	StatusRunning                Status = "running"
	StatusWaitingForDiffApproval Status = "waiting_for_diff_approval"
	StatusReadyForPR             Status = "ready_for_pr"
	StatusPRCreated              Status = "pr_created"
	StatusMerged                 Status = "merged"
	StatusCancelled              Status = "cancelled"
	StatusFailed                 Status = "failed"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrInvalidTaskState = errors.New("invalid task state")
)

// Task is the unit of delegated work tracked through the lifecycle.
// ID, Title, Description, Repo and CreatedAt are immutable after creation.
// AgentSessionID and PullRequestURL are each set at most once.
type Task struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Repo           string    `json:"repo,omitempty"`
	Status         Status    `json:"status"`
	AgentSessionID string    `json:"agent_session_id,omitempty"`
	PullRequestURL string    `json:"pull_request_url,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (t Task) Terminal() bool {
	switch t.Status {
	case StatusMerged, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// InFlight reports whether the reconciler should poll the remote agent
// session for this task.
func (t Task) InFlight() bool {
	switch t.Status {
	case StatusQueued, StatusPlanning, StatusRunning:
		return true
	default:
		return false
	}
}

// Update carries the fields a partial store update may change. Nil fields
// are left untouched; UpdatedAt is always advanced by the store.
type Update struct {
	Status         *Status
	AgentSessionID *string
	PullRequestURL *string
	Error          *string
}

// Apply merges the update over a task snapshot. UpdatedAt strictly
// increases even when the wall clock has not moved between mutations.
func (u Update) Apply(task Task, now time.Time) Task {
	if u.Status != nil {
		task.Status = *u.Status
	}
	if u.AgentSessionID != nil {
		task.AgentSessionID = *u.AgentSessionID
	}
	if u.PullRequestURL != nil {
		task.PullRequestURL = *u.PullRequestURL
	}
	if u.Error != nil {
		task.Error = *u.Error
	}
	if !now.After(task.UpdatedAt) {
		now = task.UpdatedAt.Add(time.Microsecond)
	}
	task.UpdatedAt = now
	return task
}

// remoteTransitions maps the agent API's opaque session state labels to the
// local status they imply. Labels missing from the table are pass-through:
// the task keeps its current status on that tick. This table is the single
// place to teach the reconciler a new remote state.
var remoteTransitions = map[string]Status{
	"awaiting-plan-approval": StatusWaitingForPlanApproval,
	"awaiting-diff-approval": StatusWaitingForDiffApproval,
	"done":                   StatusReadyForPR,
	"failed":                 StatusFailed,
	"error":                  StatusFailed,
}

// MapRemoteState translates a remote session state label into the local
// status it implies. Labels are matched case-insensitively; the second
// return is false for pass-through labels.
func MapRemoteState(label string) (Status, bool) {
	next, ok := remoteTransitions[strings.ToLower(strings.TrimSpace(label))]
	return next, ok
}
