package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/ent0n29/foreman/internal/tasks"
)

func TestTickAppliesRemoteTransition(t *testing.T) {
	store := tasks.NewMemoryStore()
	agent := &fakeAgent{state: "done"}
	r := NewReconciler(store, agent, nil, nil, 0)
	seedTask(t, store, "t1", tasks.StatusRunning, "s1")

	r.Tick(context.Background())

	got, _ := store.GetTask(context.Background(), "t1")
	if got.Status != tasks.StatusReadyForPR {
		t.Fatalf("task.Status = %q, want %q", got.Status, tasks.StatusReadyForPR)
	}
}

func TestTickIsIdempotentWhenRemoteStateUnchanged(t *testing.T) {
	store := tasks.NewMemoryStore()
	agent := &fakeAgent{state: "done"}
	r := NewReconciler(store, agent, nil, nil, 0)
	seedTask(t, store, "t1", tasks.StatusRunning, "s1")

	r.Tick(context.Background())
	first, _ := store.GetTask(context.Background(), "t1")

	// ready_for_pr is not in-flight, so the second tick must not even poll.
	r.Tick(context.Background())
	second, _ := store.GetTask(context.Background(), "t1")

	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("UpdatedAt changed without a transition: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	if agent.statePolls != 1 {
		t.Fatalf("statePolls = %d, want 1", agent.statePolls)
	}
}

func TestTickNoWriteWhenMappedStateMatches(t *testing.T) {
	store := tasks.NewMemoryStore()
	agent := &fakeAgent{state: "awaiting-plan-approval"}
	r := NewReconciler(store, agent, nil, nil, 0)
	seedTask(t, store, "t1", tasks.StatusPlanning, "s1")

	r.Tick(context.Background())
	first, _ := store.GetTask(context.Background(), "t1")
	if first.Status != tasks.StatusWaitingForPlanApproval {
		t.Fatalf("task.Status = %q, want %q", first.Status, tasks.StatusWaitingForPlanApproval)
	}
}

func TestTickRecordsFailureDetail(t *testing.T) {
	store := tasks.NewMemoryStore()
	agent := &fakeAgent{state: "error"}
	r := NewReconciler(store, agent, nil, nil, 0)
	seedTask(t, store, "t1", tasks.StatusRunning, "s1")

	r.Tick(context.Background())

	got, _ := store.GetTask(context.Background(), "t1")
	if got.Status != tasks.StatusFailed {
		t.Fatalf("task.Status = %q, want %q", got.Status, tasks.StatusFailed)
	}
	if got.Error != `agent session reported "error"` {
		t.Fatalf("task.Error = %q, want remote state recorded", got.Error)
	}
}

func TestTickIgnoresUnknownRemoteState(t *testing.T) {
	store := tasks.NewMemoryStore()
	agent := &fakeAgent{state: "compiling"}
	r := NewReconciler(store, agent, nil, nil, 0)
	seedTask(t, store, "t1", tasks.StatusRunning, "s1")
	before, _ := store.GetTask(context.Background(), "t1")

	r.Tick(context.Background())

	after, _ := store.GetTask(context.Background(), "t1")
	if after.Status != tasks.StatusRunning || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("task mutated on unknown remote state: %+v", after)
	}
}

func TestTickRetriesPollFailureNextTick(t *testing.T) {
	store := tasks.NewMemoryStore()
	agent := &fakeAgent{stateErr: errors.New("agent unreachable")}
	r := NewReconciler(store, agent, nil, nil, 0)
	seedTask(t, store, "t1", tasks.StatusRunning, "s1")
	before, _ := store.GetTask(context.Background(), "t1")

	r.Tick(context.Background())

	after, _ := store.GetTask(context.Background(), "t1")
	if after.Status != tasks.StatusRunning || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("task mutated on poll failure: %+v", after)
	}

	// Once the remote recovers, the same task is picked up again.
	agent.stateErr = nil
	agent.state = "awaiting-diff-approval"
	r.Tick(context.Background())

	got, _ := store.GetTask(context.Background(), "t1")
	if got.Status != tasks.StatusWaitingForDiffApproval {
		t.Fatalf("task.Status = %q after recovery, want %q", got.Status, tasks.StatusWaitingForDiffApproval)
	}
}

func TestTickSkipsTasksWithoutSession(t *testing.T) {
	store := tasks.NewMemoryStore()
	agent := &fakeAgent{state: "done"}
	r := NewReconciler(store, agent, nil, nil, 0)
	seedTask(t, store, "t1", tasks.StatusQueued, "")

	r.Tick(context.Background())

	if agent.statePolls != 0 {
		t.Fatalf("statePolls = %d, want 0 for session-less task", agent.statePolls)
	}
}

func TestTickPublishesTransitionEvents(t *testing.T) {
	store := tasks.NewMemoryStore()
	agent := &fakeAgent{state: "done"}
	broker := tasks.NewBroker()
	ch, unsubscribe := broker.Subscribe()
	defer unsubscribe()
	r := NewReconciler(store, agent, broker, nil, 0)
	seedTask(t, store, "t1", tasks.StatusRunning, "s1")

	r.Tick(context.Background())

	select {
	case evt := <-ch:
		if evt.Type != tasks.EventTaskTransition || evt.From != tasks.StatusRunning || evt.Status != tasks.StatusReadyForPR {
			t.Fatalf("event = %+v, want running -> ready_for_pr transition", evt)
		}
	default:
		t.Fatalf("no transition event published")
	}
}
