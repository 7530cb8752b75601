package tasks

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSaveGetList(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	older := Task{ID: "t1", Title: "older", Status: StatusNew, CreatedAt: now.Add(-time.Minute), UpdatedAt: now.Add(-time.Minute)}
	newer := Task{ID: "t2", Title: "newer", Status: StatusNew, CreatedAt: now, UpdatedAt: now}
	if err := store.SaveTask(ctx, older); err != nil {
		t.Fatalf("SaveTask(older) error = %v", err)
	}
	if err := store.SaveTask(ctx, newer); err != nil {
		t.Fatalf("SaveTask(newer) error = %v", err)
	}

	got, err := store.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Title != "older" {
		t.Fatalf("GetTask() title = %q, want %q", got.Title, "older")
	}

	all, err := store.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListTasks() len = %d, want 2", len(all))
	}
	if all[0].ID != "t2" {
		t.Fatalf("ListTasks()[0].ID = %q, want newest first", all[0].ID)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.GetTask(context.Background(), "nope"); !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("GetTask(missing) error = %v, want ErrStoreNotFound", err)
	}
}

func TestMemoryStoreUpdateMergesAndAdvancesUpdatedAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC().Add(-time.Minute)
	task := Task{ID: "t1", Title: "fix bug", Status: StatusNew, CreatedAt: now, UpdatedAt: now}
	if err := store.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask() error = %v", err)
	}

	status := StatusPlanning
	session := "s1"
	merged, err := store.UpdateTask(ctx, "t1", Update{Status: &status, AgentSessionID: &session})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if merged.Status != StatusPlanning || merged.AgentSessionID != "s1" {
		t.Fatalf("UpdateTask() = %+v, fields not merged", merged)
	}
	if !merged.UpdatedAt.After(now) {
		t.Fatalf("UpdatedAt = %v, want after %v", merged.UpdatedAt, now)
	}

	stored, err := store.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if stored.Status != StatusPlanning {
		t.Fatalf("stored.Status = %q, update not persisted", stored.Status)
	}
}

func TestMemoryStoreUpdateMissing(t *testing.T) {
	store := NewMemoryStore()
	status := StatusPlanning
	if _, err := store.UpdateTask(context.Background(), "nope", Update{Status: &status}); !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("UpdateTask(missing) error = %v, want ErrStoreNotFound", err)
	}
}
