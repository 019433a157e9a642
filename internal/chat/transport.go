// Package chat sends user messages to the agent backend and relays
// the actions it returns. Two transports satisfy the same contract:
// an external HTTP backend and the built-in Anthropic agent.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mirrorhq/infrascene/internal/action"
)

// Message is one turn of the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is one agent answer: display text plus an ordered action list.
type Reply struct {
	Text    string          `json:"text,omitempty"`
	Actions []action.Action `json:"actions,omitempty"`
}

// Transport sends one user message with the full prior history.
type Transport interface {
	Send(ctx context.Context, message string, history []Message) (*Reply, error)
}

const fallbackText = "Sorry, I encountered an error. Please try again."

// Ask wraps a transport call so one unreachable backend turn degrades
// into a synthetic assistant message with no actions instead of an
// error — the conversation keeps functioning.
func Ask(ctx context.Context, t Transport, message string, history []Message) *Reply {
	reply, err := t.Send(ctx, message, history)
	if err != nil {
		log.Warn().Err(err).Msg("Chat transport failed")
		return &Reply{Text: fallbackText}
	}
	if reply == nil {
		return &Reply{}
	}
	return reply
}

// Backend is the HTTP transport to an external chat agent.
type Backend struct {
	url    string
	client *http.Client
}

// NewBackend returns a transport posting to url's /api/chat endpoint.
func NewBackend(url string, timeout time.Duration) *Backend {
	return &Backend{
		url:    strings.TrimSuffix(url, "/") + "/api/chat",
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts the message and full history and decodes the reply.
func (b *Backend) Send(ctx context.Context, message string, history []Message) (*Reply, error) {
	body := struct {
		Message string    `json:"message"`
		History []Message `json:"history"`
	}{Message: message, History: history}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat backend: status %d", resp.StatusCode)
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, err
	}

	return &reply, nil
}
