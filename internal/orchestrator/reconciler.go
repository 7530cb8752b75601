package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ent0n29/foreman/internal/agent"
	"github.com/ent0n29/foreman/internal/observability"
	"github.com/ent0n29/foreman/internal/tasks"
)

// Reconciler closes the gap between authoritative remote agent state and
// local task state. Each tick lists all tasks, polls the remote session for
// every in-flight one and applies the remote-state translation table. A
// failed poll is logged and retried on the next tick; there is no backoff
// and no per-task quarantine.
type Reconciler struct {
	store    tasks.Store
	agent    agent.Client
	broker   *tasks.Broker
	metrics  *observability.Metrics
	interval time.Duration
}

func NewReconciler(store tasks.Store, agentClient agent.Client, broker *tasks.Broker, metrics *observability.Metrics, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Reconciler{
		store:    store,
		agent:    agentClient,
		broker:   broker,
		metrics:  metrics,
		interval: interval,
	}
}

// Start runs the loop until ctx is cancelled. Ticks are serialized: a slow
// remote call delays the next tick rather than overlapping it.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Tick(ctx)
			}
		}
	}()
}

// Tick performs one reconciliation pass. Exported so tests can drive the
// loop without waiting on the timer.
func (r *Reconciler) Tick(ctx context.Context) {
	all, err := r.store.ListTasks(ctx)
	if err != nil {
		log.Printf("reconcile: list tasks failed: %v", err)
		return
	}

	inFlight := 0
	for _, task := range all {
		if !task.InFlight() || task.AgentSessionID == "" {
			continue
		}
		inFlight++
		r.reconcileTask(ctx, task)
	}
	if r.metrics != nil {
		r.metrics.InFlightTasks.Set(float64(inFlight))
		r.metrics.ReconcileTicks.Inc()
	}
}

func (r *Reconciler) reconcileTask(ctx context.Context, task tasks.Task) {
	state, err := r.agent.SessionState(ctx, task.AgentSessionID)
	if err != nil {
		r.metrics.ObserveRemoteError("agent", "session_state")
		log.Printf("reconcile: task %s: session %s poll failed, retrying next tick: %v", task.ID, task.AgentSessionID, err)
		return
	}

	next, ok := tasks.MapRemoteState(state)
	if !ok || next == task.Status {
		return
	}

	fields := tasks.Update{Status: &next}
	if next == tasks.StatusFailed {
		detail := fmt.Sprintf("agent session reported %q", state)
		fields.Error = &detail
	}
	merged, err := r.store.UpdateTask(ctx, task.ID, fields)
	if err != nil {
		log.Printf("reconcile: task %s: persist %s -> %s failed: %v", task.ID, task.Status, next, err)
		return
	}

	log.Printf("reconcile: task %s: %s -> %s (remote %q)", task.ID, task.Status, next, state)
	r.metrics.ObserveTransition(string(task.Status), string(next))
	if r.broker != nil {
		r.broker.Publish(tasks.Event{
			Type:   tasks.EventTaskTransition,
			TaskID: task.ID,
			From:   task.Status,
			Status: next,
			Detail: merged.Error,
		})
	}
}
