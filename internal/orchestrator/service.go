package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/foreman/internal/agent"
	"github.com/ent0n29/foreman/internal/hosting"
	"github.com/ent0n29/foreman/internal/observability"
	"github.com/ent0n29/foreman/internal/tasks"
)

// Service holds the command handlers that drive explicit, user-requested
// task transitions. The reconciler owns remote-state-driven transitions;
// both write through the same store.
type Service struct {
	store   tasks.Store
	agent   agent.Client
	hosting hosting.Client
	broker  *tasks.Broker
	metrics *observability.Metrics
}

func NewService(store tasks.Store, agentClient agent.Client, hostingClient hosting.Client, broker *tasks.Broker, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		agent:   agentClient,
		hosting: hostingClient,
		broker:  broker,
		metrics: metrics,
	}
}

type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Repo        string `json:"repo,omitempty"`
}

type PullRequestRequest struct {
	Branch string `json:"branch"`
	Title  string `json:"title,omitempty"`
	Body   string `json:"body,omitempty"`
}

// Create persists a new task and hands it to the remote agent. It never
// fails outward on a remote error: a session that cannot be created leaves
// the task terminal in failed with the detail recorded.
func (s *Service) Create(ctx context.Context, req CreateRequest) (tasks.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Repo = strings.TrimSpace(req.Repo)
	if req.Title == "" {
		return tasks.Task{}, errors.New("title is required")
	}

	now := time.Now().UTC()
	task := tasks.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Repo:        req.Repo,
		Status:      tasks.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveTask(ctx, task); err != nil {
		return tasks.Task{}, fmt.Errorf("persist new task: %w", err)
	}
	s.metrics.ObserveTaskEvent("created")
	s.publish(tasks.Event{Type: tasks.EventTaskCreated, TaskID: task.ID, Status: task.Status})

	prompt := req.Title
	if req.Description != "" {
		prompt = req.Title + "\n\n" + req.Description
	}
	sessionID, err := s.agent.CreateSession(ctx, req.Repo, prompt)
	if err != nil {
		s.metrics.ObserveRemoteError("agent", "create_session")
		detail := fmt.Sprintf("agent session creation failed: %v", err)
		log.Printf("task %s: %s", task.ID, detail)
		return s.transition(ctx, task, tasks.StatusFailed, tasks.Update{Error: &detail})
	}
	return s.transition(ctx, task, tasks.StatusPlanning, tasks.Update{AgentSessionID: &sessionID})
}

func (s *Service) List(ctx context.Context) ([]tasks.Task, error) {
	return s.store.ListTasks(ctx)
}

func (s *Service) Get(ctx context.Context, taskID string) (tasks.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrStoreNotFound) {
			return tasks.Task{}, tasks.ErrTaskNotFound
		}
		return tasks.Task{}, err
	}
	return task, nil
}

// Approve dispatches to plan or diff approval depending on which gate the
// task is waiting at. A remote failure propagates without mutating the task.
func (s *Service) Approve(ctx context.Context, taskID string) (tasks.Task, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return tasks.Task{}, err
	}
	if task.AgentSessionID == "" {
		return tasks.Task{}, fmt.Errorf("%w: task has no agent session", tasks.ErrInvalidTaskState)
	}

	switch task.Status {
	case tasks.StatusWaitingForPlanApproval:
		if err := s.agent.ApprovePlan(ctx, task.AgentSessionID); err != nil {
			s.metrics.ObserveRemoteError("agent", "approve_plan")
			return tasks.Task{}, fmt.Errorf("approve plan: %w", err)
		}
		merged, err := s.transition(ctx, task, tasks.StatusRunning, tasks.Update{})
		if err != nil {
			return tasks.Task{}, err
		}
		s.metrics.ObserveTaskEvent("plan_approved")
		return merged, nil
	case tasks.StatusWaitingForDiffApproval:
		if err := s.agent.ApproveDiff(ctx, task.AgentSessionID); err != nil {
			s.metrics.ObserveRemoteError("agent", "approve_diff")
			return tasks.Task{}, fmt.Errorf("approve diff: %w", err)
		}
		merged, err := s.transition(ctx, task, tasks.StatusReadyForPR, tasks.Update{})
		if err != nil {
			return tasks.Task{}, err
		}
		s.metrics.ObserveTaskEvent("diff_approved")
		return merged, nil
	default:
		return tasks.Task{}, fmt.Errorf("%w: approve is only valid while waiting for plan or diff approval", tasks.ErrInvalidTaskState)
	}
}

// Cancel marks the task cancelled. The remote cancel is best-effort: a
// failure there is logged, never surfaced, since local state is
// authoritative for cancellation.
func (s *Service) Cancel(ctx context.Context, taskID string) (tasks.Task, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return tasks.Task{}, err
	}
	if task.Terminal() {
		return tasks.Task{}, fmt.Errorf("%w: task is already terminal", tasks.ErrInvalidTaskState)
	}

	if task.AgentSessionID != "" {
		if err := s.agent.CancelSession(ctx, task.AgentSessionID); err != nil {
			s.metrics.ObserveRemoteError("agent", "cancel_session")
			log.Printf("task %s: remote cancel failed, cancelling locally anyway: %v", task.ID, err)
		}
	}
	merged, err := s.transition(ctx, task, tasks.StatusCancelled, tasks.Update{})
	if err != nil {
		return tasks.Task{}, err
	}
	s.metrics.ObserveTaskEvent("cancelled")
	return merged, nil
}

// CreatePullRequest opens a pull request for a task whose session finished.
// A remote failure propagates without mutating the task.
func (s *Service) CreatePullRequest(ctx context.Context, taskID string, req PullRequestRequest) (tasks.Task, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return tasks.Task{}, err
	}
	if task.Status != tasks.StatusReadyForPR {
		return tasks.Task{}, fmt.Errorf("%w: pull request creation is only valid in %s", tasks.ErrInvalidTaskState, tasks.StatusReadyForPR)
	}
	if strings.TrimSpace(req.Branch) == "" {
		return tasks.Task{}, errors.New("branch is required")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = task.Title
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		body = task.Description
	}

	url, err := s.hosting.CreatePullRequest(ctx, hosting.PullRequest{
		Repo:  task.Repo,
		Head:  strings.TrimSpace(req.Branch),
		Title: title,
		Body:  body,
	})
	if err != nil {
		s.metrics.ObserveRemoteError("hosting", "create_pull_request")
		return tasks.Task{}, fmt.Errorf("create pull request: %w", err)
	}
	merged, err := s.transition(ctx, task, tasks.StatusPRCreated, tasks.Update{PullRequestURL: &url})
	if err != nil {
		return tasks.Task{}, err
	}
	s.metrics.ObserveTaskEvent("pr_created")
	return merged, nil
}

func (s *Service) transition(ctx context.Context, task tasks.Task, next tasks.Status, fields tasks.Update) (tasks.Task, error) {
	fields.Status = &next
	merged, err := s.store.UpdateTask(ctx, task.ID, fields)
	if err != nil {
		if errors.Is(err, tasks.ErrStoreNotFound) {
			return tasks.Task{}, tasks.ErrTaskNotFound
		}
		return tasks.Task{}, fmt.Errorf("persist transition to %s: %w", next, err)
	}
	s.metrics.ObserveTransition(string(task.Status), string(next))
	s.publish(tasks.Event{
		Type:   tasks.EventTaskTransition,
		TaskID: task.ID,
		From:   task.Status,
		Status: next,
		Detail: merged.Error,
	})
	return merged, nil
}

func (s *Service) publish(evt tasks.Event) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(evt)
}
