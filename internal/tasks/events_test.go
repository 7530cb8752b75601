package tasks

import (
	"testing"
	"time"
)

func TestBrokerDeliversToSubscribers(t *testing.T) {
	b := NewBroker()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Publish(Event{Type: EventTaskCreated, TaskID: "t1", Status: StatusNew})

	select {
	case evt := <-ch:
		if evt.TaskID != "t1" {
			t.Fatalf("evt.TaskID = %q, want %q", evt.TaskID, "t1")
		}
		if evt.At.IsZero() {
			t.Fatalf("evt.At is zero, want stamped by Publish")
		}
	case <-time.After(time.Second):
		t.Fatalf("no event delivered")
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	ch, unsubscribe := b.Subscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after unsubscribe")
	}

	// Publishing after the last subscriber left must not panic.
	b.Publish(Event{Type: EventTaskTransition, TaskID: "t1", Status: StatusPlanning})
}

func TestBrokerDropsWhenSubscriberSaturated(t *testing.T) {
	b := NewBroker()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	for i := 0; i < 200; i++ {
		b.Publish(Event{Type: EventTaskTransition, TaskID: "t1", Status: StatusRunning})
	}

	// The buffer holds 64; the rest are dropped rather than blocking.
	if got := len(ch); got != 64 {
		t.Fatalf("len(ch) = %d, want 64", got)
	}
}
