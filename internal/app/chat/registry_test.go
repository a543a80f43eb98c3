package chat

import (
	"sync"
	"testing"
)

func TestRegistryRegisterCounts(t *testing.T) {
	r := NewRegistry()

	state1, first := r.Register(7)
	if !first {
		t.Fatal("first registration should report first=true")
	}
	state2, first := r.Register(7)
	if first {
		t.Fatal("second registration should report first=false")
	}
	if state1 != state2 {
		t.Fatal("connections of the same user must share one state")
	}
	if got := r.Connections(7); got != 2 {
		t.Fatalf("Connections = %d, want 2", got)
	}

	if remaining := r.Unregister(7); remaining != 1 {
		t.Fatalf("remaining = %d, want 1", remaining)
	}
	if remaining := r.Unregister(7); remaining != 0 {
		t.Fatalf("remaining = %d, want 0", remaining)
	}
	if got := r.Connections(7); got != 0 {
		t.Fatalf("Connections after teardown = %d, want 0", got)
	}
}

func TestRegistryTeardownClosesBus(t *testing.T) {
	r := NewRegistry()

	state, _ := r.Register(1)
	sub := state.Bus().Subscribe()

	r.Unregister(1)

	if _, ok := <-sub.Events(); ok {
		t.Fatal("bus should close when the last connection unregisters")
	}
	if r.Lookup(1) != nil {
		t.Fatal("Lookup should return nil after teardown")
	}
}

func TestRegistryFreshStateAfterTeardown(t *testing.T) {
	r := NewRegistry()

	old, _ := r.Register(1)
	r.Unregister(1)

	fresh, first := r.Register(1)
	if !first {
		t.Fatal("re-registration after teardown should be a first connection")
	}
	if fresh == old {
		t.Fatal("re-registration must not resurrect the torn-down state")
	}

	// The fresh bus is live even though the old one is closed.
	sub := fresh.Bus().Subscribe()
	defer sub.Close()
	if delivered := fresh.Bus().Publish(newErrorEvent("x")); delivered != 1 {
		t.Fatalf("delivered = %d on fresh bus, want 1", delivered)
	}
	r.Unregister(1)
}

func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()

	const workers = 16
	const rounds = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				r.Register(42)
				r.Unregister(42)
			}
		}()
	}
	wg.Wait()

	if got := r.Connections(42); got != 0 {
		t.Fatalf("Connections after churn = %d, want 0", got)
	}
}

func TestRegistryUnregisterUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("unregister of an unknown user should panic")
		}
	}()
	NewRegistry().Unregister(99)
}

func TestGenerationSingleFlight(t *testing.T) {
	state := newUserState(1)

	if !state.BeginGeneration(10) {
		t.Fatal("idle slot should be claimable")
	}
	if state.BeginGeneration(11) {
		t.Fatal("slot must reject a second claim, even for another conversation")
	}
	if got := state.GeneratingConversation(); got != 10 {
		t.Fatalf("GeneratingConversation = %d, want 10", got)
	}

	// Releasing with the wrong conversation id must not free the slot.
	state.EndGeneration(11)
	if got := state.GeneratingConversation(); got != 10 {
		t.Fatalf("GeneratingConversation after mismatched release = %d, want 10", got)
	}

	state.EndGeneration(10)
	if got := state.GeneratingConversation(); got != 0 {
		t.Fatalf("GeneratingConversation after release = %d, want 0", got)
	}
	if !state.BeginGeneration(12) {
		t.Fatal("released slot should be claimable again")
	}
}
