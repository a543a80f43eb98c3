package chat

import (
	"testing"
)

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	want := []string{"one", "two", "three"}
	for _, msg := range want {
		bus.Publish(newErrorEvent(msg))
	}

	for i, wantMsg := range want {
		ev := <-sub.Events()
		errEv, ok := ev.(ErrorEvent)
		if !ok {
			t.Fatalf("event %d: got %T, want ErrorEvent", i, ev)
		}
		if errEv.Message != wantMsg {
			t.Errorf("event %d: got %q, want %q", i, errEv.Message, wantMsg)
		}
	}
}

func TestBusMulticastsToAllSubscribers(t *testing.T) {
	bus := NewBus()
	subA := bus.Subscribe()
	defer subA.Close()
	subB := bus.Subscribe()
	defer subB.Close()

	if delivered := bus.Publish(newErrorEvent("hello")); delivered != 2 {
		t.Fatalf("delivered = %d, want 2", delivered)
	}

	for _, sub := range []*Subscription{subA, subB} {
		ev := <-sub.Events()
		if errEv := ev.(ErrorEvent); errEv.Message != "hello" {
			t.Errorf("got %q, want %q", errEv.Message, "hello")
		}
	}
}

func TestBusNoReplayForLateSubscriber(t *testing.T) {
	bus := NewBus()

	bus.Publish(newErrorEvent("before"))

	sub := bus.Subscribe()
	defer sub.Close()

	bus.Publish(newErrorEvent("after"))

	ev := <-sub.Events()
	if errEv := ev.(ErrorEvent); errEv.Message != "after" {
		t.Fatalf("late subscriber got %q, want %q", errEv.Message, "after")
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	full := bus.Subscribe()
	defer full.Close()
	draining := bus.Subscribe()

	for i := 0; i < subscriptionBuffer; i++ {
		bus.Publish(newErrorEvent("fill"))
	}
	// Drain the second subscriber so only the first is saturated.
	for i := 0; i < subscriptionBuffer; i++ {
		<-draining.Events()
	}

	if delivered := bus.Publish(newErrorEvent("overflow")); delivered != 1 {
		t.Fatalf("delivered = %d, want 1 (full subscriber skipped)", delivered)
	}

	ev := <-draining.Events()
	if errEv := ev.(ErrorEvent); errEv.Message != "overflow" {
		t.Errorf("draining subscriber got %q, want %q", errEv.Message, "overflow")
	}
	draining.Close()
}

func TestBusCloseClosesSubscriberChannels(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	bus.Close()

	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected subscription channel to be closed")
	}

	// Publishing after close is a silent no-op.
	if delivered := bus.Publish(newErrorEvent("late")); delivered != 0 {
		t.Fatalf("delivered = %d after close, want 0", delivered)
	}

	// Closing the subscription after the bus closed must not panic.
	sub.Close()
}

func TestBusSubscribeAfterClose(t *testing.T) {
	bus := NewBus()
	bus.Close()

	sub := bus.Subscribe()
	if _, ok := <-sub.Events(); ok {
		t.Fatal("subscription on closed bus should come back already closed")
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	sub.Close()
	sub.Close()

	// The detached subscriber no longer counts toward delivery.
	other := bus.Subscribe()
	defer other.Close()
	if delivered := bus.Publish(newErrorEvent("x")); delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}
}
