package services

import (
	"context"

	"github.com/Timi2001/AI-Email-Assistant/internal/stream"
)

// GenerateRequest is a single request/response call. When ArrayField is set
// the provider must answer with a JSON object holding one string array under
// that name.
type GenerateRequest struct {
	Prompt     string
	ArrayField string
}

// Provider is the boundary to the generative-text service.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	StartChat(ctx context.Context) (Conversation, error)
}

// Conversation is a provider-side chat that remembers earlier turns.
//
// SendStream returns fragments in emission order and closes the channel when
// the turn ends. Failures arrive as a final fragment with Err set. Cancelling
// ctx stops the producer. A Conversation must not be used by two streams at once.
type Conversation interface {
	SendStream(ctx context.Context, message string) <-chan stream.Fragment
}

// sendFragment delivers f unless ctx is done first.
func sendFragment(ctx context.Context, out chan<- stream.Fragment, f stream.Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
