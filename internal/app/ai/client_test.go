package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
)

func testModel() model.AIModel {
	return model.AIModel{ID: 1, Name: "test", ProviderModel: "test-provider/model"}
}

func TestCompleteSendsRoleTaggedHistory(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-123" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123")

	history := []model.Message{
		{UserID: 1, Content: "hi"},
		{UserID: 1, ModelID: 2, Content: "hello"},
		{UserID: 1, Content: "how are you"},
	}

	out, err := c.Complete(context.Background(), testModel(), history)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "hello there" {
		t.Fatalf("completion = %q", out)
	}

	if got.Model != "test-provider/model" {
		t.Errorf("model = %q", got.Model)
	}
	wantRoles := []string{"user", "assistant", "user"}
	if len(got.Messages) != len(wantRoles) {
		t.Fatalf("sent %d messages, want %d", len(got.Messages), len(wantRoles))
	}
	for i, want := range wantRoles {
		if got.Messages[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, got.Messages[i].Role, want)
		}
	}
}

func TestStreamDecodesSSEChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`data: {"choices":[{"delta":{"content":"take "}}]}`,
			``,
			`data: {"choices":[{"delta":{"content":"a walk"}}]}`,
			`: keep-alive comment`,
			`data: [DONE]`,
		}
		for _, line := range chunks {
			w.Write([]byte(line + "\n"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")

	var received []string
	out, err := c.Stream(context.Background(), testModel(), nil, func(chunk string) {
		received = append(received, chunk)
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if out != "take a walk" {
		t.Fatalf("accumulated = %q, want %q", out, "take a walk")
	}
	if len(received) != 2 || received[0] != "take " || received[1] != "a walk" {
		t.Fatalf("chunks = %v", received)
	}
}

func TestStreamSurfacesCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"partial"}}]}` + "\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, "")

	ctx, cancel := context.WithCancel(context.Background())
	gotChunk := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		_, err := c.Stream(ctx, testModel(), nil, func(string) {
			select {
			case gotChunk <- struct{}{}:
			default:
			}
		})
		done <- err
	}()

	<-gotChunk
	cancel()

	if err := <-done; err == nil || ctx.Err() == nil {
		t.Fatalf("Stream returned %v after cancel, want context error", err)
	}
}

func TestCompleteNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Complete(context.Background(), testModel(), nil)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want status 429 error", err)
	}
}

func TestHistoryToPromptWindow(t *testing.T) {
	history := make([]model.Message, maxHistoryMessages+10)
	for i := range history {
		history[i] = model.Message{Content: "m", UserID: 1}
	}

	prompt := historyToPrompt(history)
	if len(prompt) != maxHistoryMessages {
		t.Fatalf("prompt length = %d, want %d", len(prompt), maxHistoryMessages)
	}
}
