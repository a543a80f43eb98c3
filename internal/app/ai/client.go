/*
Package ai implements the model-query collaborator: a thin HTTP client for an
OpenAI-compatible chat-completions endpoint.

The chat engine consumes it through a narrow interface; everything here is
plain request/response plumbing plus SSE decoding for streamed completions.
All calls honor context cancellation, which is how a canceled generation
aborts an in-flight query.
*/
package ai

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/logx"
)

const (
	// requestTimeout bounds a single completion call end to end.
	requestTimeout = 5 * time.Minute

	// maxHistoryMessages limits how much conversation context is sent upstream.
	maxHistoryMessages = 50
)

// Client talks to an OpenAI-compatible chat-completions API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient constructs a Client for the given API base URL (without the
// trailing /chat/completions path).
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logx.Logger().With().Str("component", "ai").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
		Delta   chatMessage `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// historyToPrompt converts stored conversation messages into the role-tagged
// form the completions API expects. Messages authored by a model map to the
// assistant role.
func historyToPrompt(history []model.Message) []chatMessage {
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	prompt := make([]chatMessage, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.ModelID != 0 {
			role = "assistant"
		}
		prompt = append(prompt, chatMessage{Role: role, Content: msg.Content})
	}
	return prompt
}

func (c *Client) newRequest(ctx context.Context, body completionRequest) (*http.Request, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", strings.NewReader(string(encoded)))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// Complete sends the conversation history and returns the whole completion.
func (c *Client) Complete(ctx context.Context, aiModel model.AIModel, history []model.Message) (string, error) {
	req, err := c.newRequest(ctx, completionRequest{
		Model:    aiModel.ProviderModel,
		Messages: historyToPrompt(history),
	})
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("model query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("model", aiModel.Name).
			Bytes("body", body).
			Msg("Model endpoint returned non-200 status")
		return "", fmt.Errorf("model endpoint returned status %d", resp.StatusCode)
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if decoded.Error != nil {
		return "", fmt.Errorf("model error: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return decoded.Choices[0].Message.Content, nil
}

// Stream sends the conversation history with streaming enabled and invokes
// onChunk for every content delta as it arrives, returning the accumulated
// completion. A nil onChunk degrades to Complete semantics over the stream.
func (c *Client) Stream(ctx context.Context, aiModel model.AIModel, history []model.Message, onChunk func(string)) (string, error) {
	req, err := c.newRequest(ctx, completionRequest{
		Model:    aiModel.ProviderModel,
		Messages: historyToPrompt(history),
		Stream:   true,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("model query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("model", aiModel.Name).
			Bytes("body", body).
			Msg("Model endpoint returned non-200 status")
		return "", fmt.Errorf("model endpoint returned status %d", resp.StatusCode)
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var decoded completionResponse
		if err := json.Unmarshal([]byte(data), &decoded); err != nil {
			c.logger.Warn().Err(err).Msg("Skipping malformed SSE chunk from model endpoint")
			continue
		}

		if decoded.Error != nil {
			return "", fmt.Errorf("model error: %s", decoded.Error.Message)
		}

		for _, choice := range decoded.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			full.WriteString(choice.Delta.Content)
			if onChunk != nil {
				onChunk(choice.Delta.Content)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		// Cancellation surfaces here as the context error.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("stream read failed: %w", err)
	}

	return full.String(), nil
}
