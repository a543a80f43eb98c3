package chat

import (
	"context"
	"testing"
	"time"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/errs"
)

func waitForIdle(t *testing.T, state *UserState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if state.GeneratingConversation() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("generation slot never released")
}

func TestGenerationStreamsAndPersists(t *testing.T) {
	store := newFakeStore()
	store.addUser(1, "alice")
	store.addModel(2, "gpt-test")

	modelClient := &fakeModelClient{
		chunks: []string{"drink ", "more ", "water"},
		result: "drink more water",
	}
	s := NewServer(store, modelClient)
	defer s.Shutdown()

	conv, _ := store.CreateConversation(context.Background(), 1, "", nil)
	alice, aliceSub := testConn(t, s, 1, "alice")

	err := s.handleCommand(context.Background(), alice, &SendMessageCommand{
		ConversationID: conv.ID,
		Message:        "any advice?",
		AIModelID:      2,
	})
	if err != nil {
		t.Fatalf("SendMessage with model failed: %v", err)
	}

	// The triggering message lands first, then the stream, then the final
	// persisted model message.
	ev := recvEvent(t, aliceSub)
	if msgEv := ev.(MessageEvent); msgEv.Message.Content != "any advice?" {
		t.Fatalf("first event = %+v, want triggering message", ev)
	}

	var streamID string
	for _, wantChunk := range []string{"drink ", "more ", "water"} {
		ev = recvEvent(t, aliceSub)
		chunk, ok := ev.(StreamDataEvent)
		if !ok {
			t.Fatalf("got %T, want StreamDataEvent", ev)
		}
		if chunk.Chunk != wantChunk {
			t.Fatalf("chunk = %q, want %q", chunk.Chunk, wantChunk)
		}
		if streamID == "" {
			streamID = chunk.StreamID
		} else if chunk.StreamID != streamID {
			t.Fatal("stream id changed mid-generation")
		}
	}

	ev = recvEvent(t, aliceSub)
	final, ok := ev.(MessageEvent)
	if !ok {
		t.Fatalf("got %T, want final MessageEvent", ev)
	}
	if final.Message.Content != "drink more water" || final.Message.ModelID != 2 {
		t.Fatalf("final message payload wrong: %+v", final.Message)
	}

	waitForIdle(t, alice.state)
}

func TestGenerationSingleFlightConflict(t *testing.T) {
	store := newFakeStore()
	store.addUser(1, "alice")
	store.addModel(2, "gpt-test")

	modelClient := &fakeModelClient{block: make(chan struct{}), result: "late"}
	s := NewServer(store, modelClient)
	defer s.Shutdown()

	conv, _ := store.CreateConversation(context.Background(), 1, "", nil)
	other, _ := store.CreateConversation(context.Background(), 1, "", nil)
	alice, _ := testConn(t, s, 1, "alice")

	if err := s.handleCommand(context.Background(), alice, &SendMessageCommand{
		ConversationID: conv.ID,
		Message:        "go",
		AIModelID:      2,
	}); err != nil {
		t.Fatalf("first generation failed to start: %v", err)
	}

	// A second model request is rejected while the first is in flight, even
	// in another conversation. The plain message itself is not persisted.
	err := s.handleCommand(context.Background(), alice, &SendMessageCommand{
		ConversationID: other.ID,
		Message:        "again",
		AIModelID:      2,
	})
	wantCustomErr(t, err, errs.ErrGenerationRunning)

	if _, getErr := store.GetMessage(context.Background(), 2); getErr == nil {
		t.Fatal("losing send must not persist its message")
	}

	// A message without a model request still goes through.
	if err := s.handleCommand(context.Background(), alice, &SendMessageCommand{
		ConversationID: other.ID,
		Message:        "plain is fine",
	}); err != nil {
		t.Fatalf("plain message during generation failed: %v", err)
	}

	close(modelClient.block)
	waitForIdle(t, alice.state)

	// With the slot free, a new model request is accepted again.
	if err := s.handleCommand(context.Background(), alice, &SendMessageCommand{
		ConversationID: other.ID,
		Message:        "round two",
		AIModelID:      2,
	}); err != nil {
		t.Fatalf("generation after release failed: %v", err)
	}
	waitForIdle(t, alice.state)
}

func TestCancelGenerationSuppressesCompletion(t *testing.T) {
	store := newFakeStore()
	store.addUser(1, "alice")
	store.addModel(2, "gpt-test")

	modelClient := &fakeModelClient{block: make(chan struct{}), result: "too late"}
	s := NewServer(store, modelClient)
	defer s.Shutdown()

	conv, _ := store.CreateConversation(context.Background(), 1, "", nil)
	alice, aliceSub := testConn(t, s, 1, "alice")

	if err := s.handleCommand(context.Background(), alice, &SendMessageCommand{
		ConversationID: conv.ID,
		Message:        "go",
		AIModelID:      2,
	}); err != nil {
		t.Fatalf("generation failed to start: %v", err)
	}

	// Triggering message.
	if _, ok := recvEvent(t, aliceSub).(MessageEvent); !ok {
		t.Fatal("expected triggering MessageEvent first")
	}

	if err := s.handleCommand(context.Background(), alice, &CancelGenerationCommand{}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	ev := recvEvent(t, aliceSub)
	canceled, ok := ev.(CanceledGenerationEvent)
	if !ok {
		t.Fatalf("got %T, want CanceledGenerationEvent", ev)
	}
	if canceled.ConversationID != conv.ID {
		t.Fatalf("canceled conversation = %d, want %d", canceled.ConversationID, conv.ID)
	}

	waitForIdle(t, alice.state)

	// The blocked model query observes the canceled context; no model
	// message may surface afterwards.
	expectNoEvent(t, aliceSub, 150*time.Millisecond)

	msgs, _ := store.ListMessages(context.Background(), conv.ID, 0, 10)
	for _, msg := range msgs {
		if msg.ModelID != 0 {
			t.Fatalf("canceled generation persisted a model message: %+v", msg)
		}
	}
}

func TestCancelDuringTriggerPersistIsObserved(t *testing.T) {
	store := newFakeStore()
	store.addUser(1, "alice")
	store.addModel(2, "gpt-test")

	gate := make(chan struct{})
	store.createGate = gate

	modelClient := &fakeModelClient{block: make(chan struct{}), result: "too late"}
	s := NewServer(store, modelClient)
	defer s.Shutdown()

	conv, _ := store.CreateConversation(context.Background(), 1, "", nil)
	alice, aliceSub := testConn(t, s, 1, "alice")

	// The triggering insert stalls on the gate while the slot is already
	// claimed.
	sendDone := make(chan error, 1)
	go func() {
		sendDone <- s.handleCommand(context.Background(), alice, &SendMessageCommand{
			ConversationID: conv.ID,
			Message:        "go",
			AIModelID:      2,
		})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for alice.state.GeneratingConversation() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("generation slot never claimed")
		}
		time.Sleep(time.Millisecond)
	}

	// A cancel accepted in this window must not be lost.
	if err := s.handleCommand(context.Background(), alice, &CancelGenerationCommand{}); err != nil {
		t.Fatalf("cancel rejected while slot held: %v", err)
	}

	close(gate)
	if err := <-sendDone; err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	// Triggering message first, then the cancel wins over the blocked
	// model query.
	if _, ok := recvEvent(t, aliceSub).(MessageEvent); !ok {
		t.Fatal("expected triggering MessageEvent first")
	}
	ev := recvEvent(t, aliceSub)
	canceled, ok := ev.(CanceledGenerationEvent)
	if !ok {
		t.Fatalf("got %T, want CanceledGenerationEvent", ev)
	}
	if canceled.ConversationID != conv.ID {
		t.Fatalf("canceled conversation = %d, want %d", canceled.ConversationID, conv.ID)
	}

	waitForIdle(t, alice.state)
	expectNoEvent(t, aliceSub, 150*time.Millisecond)

	msgs, _ := store.ListMessages(context.Background(), conv.ID, 0, 10)
	for _, msg := range msgs {
		if msg.ModelID != 0 {
			t.Fatalf("canceled generation persisted a model message: %+v", msg)
		}
	}
}

func TestGenerationFailureReportsError(t *testing.T) {
	store := newFakeStore()
	store.addUser(1, "alice")
	store.addModel(2, "gpt-test")

	modelClient := &fakeModelClient{err: context.DeadlineExceeded}
	s := NewServer(store, modelClient)
	defer s.Shutdown()

	conv, _ := store.CreateConversation(context.Background(), 1, "", nil)
	alice, aliceSub := testConn(t, s, 1, "alice")

	if err := s.handleCommand(context.Background(), alice, &SendMessageCommand{
		ConversationID: conv.ID,
		Message:        "go",
		AIModelID:      2,
	}); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if _, ok := recvEvent(t, aliceSub).(MessageEvent); !ok {
		t.Fatal("expected triggering MessageEvent first")
	}

	ev := recvEvent(t, aliceSub)
	if _, ok := ev.(ErrorEvent); !ok {
		t.Fatalf("got %T, want ErrorEvent on model failure", ev)
	}

	waitForIdle(t, alice.state)
}

func TestSendMessageUnknownModel(t *testing.T) {
	store := newFakeStore()
	store.addUser(1, "alice")
	s := NewServer(store, &fakeModelClient{})
	defer s.Shutdown()

	conv, _ := store.CreateConversation(context.Background(), 1, "", nil)
	alice, _ := testConn(t, s, 1, "alice")

	err := s.handleCommand(context.Background(), alice, &SendMessageCommand{
		ConversationID: conv.ID,
		Message:        "go",
		AIModelID:      99,
	})
	wantCustomErr(t, err, errs.ErrModelNotFound)

	if alice.state.GeneratingConversation() != 0 {
		t.Fatal("failed model lookup must not leave the slot claimed")
	}
}
