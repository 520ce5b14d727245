package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Timi2001/AI-Email-Assistant/internal/stream"
)

// MockProvider is an offline Provider for local development and tests.
// The zero value answers every call with canned text.
type MockProvider struct {
	// GenerateFunc overrides the canned request/response answer.
	GenerateFunc func(req GenerateRequest) (string, error)
	// ReplyFunc returns the fragments of turn n (1-based) of a conversation.
	ReplyFunc func(turn int, message string) []string
	// StreamErr, when set, is raised after FailAfter fragments.
	StreamErr error
	FailAfter int
	StartErr  error
	// Hold, when set, gates every fragment on a receive.
	Hold chan struct{}

	mu       sync.Mutex
	requests []GenerateRequest
	messages []string
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.GenerateFunc != nil {
		return m.GenerateFunc(req)
	}

	if req.ArrayField != "" {
		items := make([]string, 5)
		for i := range items {
			items[i] = fmt.Sprintf("%q", fmt.Sprintf("Mock %s %d", strings.ReplaceAll(req.ArrayField, "_", " "), i+1))
		}
		return fmt.Sprintf(`{"%s": [%s]}`, req.ArrayField, strings.Join(items, ", ")), nil
	}
	return "Mock response: " + firstLine(req.Prompt), nil
}

func (m *MockProvider) StartChat(ctx context.Context) (Conversation, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	return &mockConversation{provider: m}, nil
}

// Requests returns a copy of every Generate call seen so far.
func (m *MockProvider) Requests() []GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerateRequest(nil), m.requests...)
}

// Messages returns every chat message sent so far, across conversations.
func (m *MockProvider) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

type mockConversation struct {
	provider *MockProvider
	turns    int
}

func (c *mockConversation) SendStream(ctx context.Context, message string) <-chan stream.Fragment {
	m := c.provider
	m.mu.Lock()
	m.messages = append(m.messages, message)
	m.mu.Unlock()

	c.turns++
	var parts []string
	if m.ReplyFunc != nil {
		parts = m.ReplyFunc(c.turns, message)
	} else {
		parts = strings.SplitAfter(fmt.Sprintf("Mock draft %d for: %s", c.turns, firstLine(message)), " ")
	}

	out := make(chan stream.Fragment)
	go func() {
		defer close(out)
		for i, p := range parts {
			if m.StreamErr != nil && i == m.FailAfter {
				sendFragment(ctx, out, stream.Fragment{Err: m.StreamErr})
				return
			}
			if m.Hold != nil {
				select {
				case <-m.Hold:
				case <-ctx.Done():
					return
				}
			}
			if !sendFragment(ctx, out, stream.Fragment{Text: p}) {
				return
			}
		}
		if m.StreamErr != nil && m.FailAfter >= len(parts) {
			sendFragment(ctx, out, stream.Fragment{Err: m.StreamErr})
		}
	}()
	return out
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
