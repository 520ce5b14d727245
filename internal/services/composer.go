package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Timi2001/AI-Email-Assistant/internal/models"
	"github.com/Timi2001/AI-Email-Assistant/internal/stream"
)

const (
	maxSubjectLines = 5
	maxCTAs         = 4
)

const (
	OperationCompose = "compose"
	OperationRefine  = "refine"
)

var apologies = map[models.ActionType]string{
	models.ActionSubject:         "Sorry, there was an error generating subject lines.",
	models.ActionBody:            "Sorry, an error occurred while generating the email.",
	models.ActionAbTest:          "Sorry, there was an error suggesting an A/B test.",
	models.ActionPersonalization: "Sorry, there was an error getting personalization ideas.",
	models.ActionCta:             "Sorry, there was an error generating CTAs.",
	models.ActionSpam:            "Sorry, there was an error analyzing the email for spam triggers.",
	models.ActionSummary:         "Sorry, there was an error summarizing the email thread.",
}

const refineApology = "Sorry, an error occurred while refining the email."

// Apology returns the fixed message shown in place of an action's result when it fails.
func Apology(action models.ActionType) string {
	if msg, ok := apologies[action]; ok {
		return msg
	}
	return "Sorry, something went wrong."
}

// StreamApology is the text that replaces the draft when a compose or refine stream fails.
func StreamApology(operation string) string {
	if operation == OperationRefine {
		return refineApology
	}
	return apologies[models.ActionBody]
}

// Session is the conversation context of one composer. The provider keeps
// prior turns, so refinements can refer to the draft produced earlier.
// Only one stream runs on a session at a time.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu       sync.Mutex
	conv     Conversation
	lastUsed time.Time
	turns    int
	composed bool
	closed   bool
	cancel   context.CancelFunc
	done     chan struct{}
}

func newSession(conv Conversation) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		conv:      conv,
		lastUsed:  now,
	}
}

// Turns reports how many messages were sent on the session.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// Close cancels any stream in flight. A closed session rejects new messages.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
}

// ready reports whether a compose, or a refinement when compose is false,
// may start on the session now.
func (s *Session) ready(compose bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || (!compose && !s.composed) {
		return ErrNoActiveSession
	}
	return nil
}

// begin cancels the stream in flight, waits for its producer to stop, and
// reserves the conversation for a new one. A refinement needs an earlier compose.
func (s *Session) begin(ctx context.Context, compose bool) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || (!compose && !s.composed) {
		return nil, nil, ErrNoActiveSession
	}
	for s.cancel != nil {
		cancel, prev := s.cancel, s.done
		cancel()
		s.mu.Unlock()
		<-prev
		s.mu.Lock()
		if s.closed {
			return nil, nil, ErrNoActiveSession
		}
	}

	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.turns++
	s.composed = s.composed || compose
	s.lastUsed = time.Now()

	finish := func() {
		cancel()
		close(done)

		s.mu.Lock()
		if s.done == done {
			s.cancel = nil
			s.done = nil
		}
		s.mu.Unlock()
	}
	return streamCtx, finish, nil
}

// Composer manages compose/refine conversations and the stateless one-shot actions.
type Composer struct {
	provider Provider
}

func NewComposer(provider Provider) *Composer {
	return &Composer{provider: provider}
}

// Open starts a new provider conversation.
func (c *Composer) Open(ctx context.Context) (*Session, error) {
	conv, err := c.provider.StartChat(ctx)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return newSession(conv), nil
}

// CheckCompose runs the checks Compose would reject on without touching
// the session's stream in flight. It normalizes in.
func (c *Composer) CheckCompose(sess *Session, in *models.EmailInputs) error {
	if sess == nil {
		return ErrNoActiveSession
	}
	if fields := in.Validate(); fields != nil {
		return &ValidationError{Fields: fields}
	}
	return sess.ready(true)
}

// CheckRefine is CheckCompose for a refinement instruction.
func (c *Composer) CheckRefine(sess *Session, instruction string) error {
	if sess == nil {
		return ErrNoActiveSession
	}
	if strings.TrimSpace(instruction) == "" {
		return &ValidationError{Fields: map[string]string{"instruction": "Instruction is required"}}
	}
	return sess.ready(false)
}

// Compose asks for a complete email body and streams it back.
func (c *Composer) Compose(ctx context.Context, sess *Session, in models.EmailInputs) (<-chan stream.Fragment, error) {
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	if fields := in.Validate(); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	return c.send(ctx, sess, buildComposePrompt(in), true)
}

// Refine sends a freeform instruction against the draft already in the session.
// It fails with ErrNoActiveSession until the session has composed once.
func (c *Composer) Refine(ctx context.Context, sess *Session, instruction string) (<-chan stream.Fragment, error) {
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	if strings.TrimSpace(instruction) == "" {
		return nil, &ValidationError{Fields: map[string]string{"instruction": "Instruction is required"}}
	}
	return c.send(ctx, sess, instruction, false)
}

func (c *Composer) send(ctx context.Context, sess *Session, message string, compose bool) (<-chan stream.Fragment, error) {
	streamCtx, finish, err := sess.begin(ctx, compose)
	if err != nil {
		return nil, err
	}

	src := sess.conv.SendStream(streamCtx, message)
	out := make(chan stream.Fragment)

	go func() {
		defer finish()
		defer close(out)

		// Keep draining src after cancellation so finish only runs once the
		// producer has let go of the conversation.
		forwarding := true
		for f := range src {
			if !forwarding {
				continue
			}
			select {
			case out <- f:
			case <-streamCtx.Done():
				forwarding = false
			}
		}
	}()

	return out, nil
}

// ListResult is the outcome of a structured-output action. On failure Items
// is empty and Error holds the user-visible sentinel.
type ListResult struct {
	Items []string
	Error string
}

func (c *Composer) SubjectLines(ctx context.Context, in models.EmailInputs) ListResult {
	return c.list(ctx, models.ActionSubject, buildSubjectLinesPrompt(in), subjectLinesField, maxSubjectLines)
}

func (c *Composer) CTAs(ctx context.Context, in models.EmailInputs) ListResult {
	return c.list(ctx, models.ActionCta, buildCTAPrompt(in), ctasField, maxCTAs)
}

func (c *Composer) list(ctx context.Context, action models.ActionType, prompt, field string, limit int) ListResult {
	raw, err := c.provider.Generate(ctx, GenerateRequest{Prompt: prompt, ArrayField: field})
	if err == nil {
		var items []string
		items, err = parseListPayload(raw, field)
		if err == nil {
			if len(items) > limit {
				items = items[:limit]
			}
			return ListResult{Items: items}
		}
	}

	slog.Error("structured generation failed", "action", string(action), "error", err)
	return ListResult{Items: []string{}, Error: Apology(action)}
}

func (c *Composer) AbTestSuggestion(ctx context.Context, in models.EmailInputs) (string, error) {
	return c.provider.Generate(ctx, GenerateRequest{Prompt: buildAbTestPrompt(in)})
}

func (c *Composer) PersonalizationIdeas(ctx context.Context, in models.EmailInputs) (string, error) {
	return c.provider.Generate(ctx, GenerateRequest{Prompt: buildPersonalizationPrompt(in)})
}

func (c *Composer) AnalyzeSpam(ctx context.Context, body string) (string, error) {
	return c.provider.Generate(ctx, GenerateRequest{Prompt: buildSpamPrompt(body)})
}

func (c *Composer) SummarizeThread(ctx context.Context, thread string) (string, error) {
	return c.provider.Generate(ctx, GenerateRequest{Prompt: buildThreadSummaryPrompt(thread)})
}
