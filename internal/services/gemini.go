package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/Timi2001/AI-Email-Assistant/internal/stream"
)

type GeminiConfig struct {
	APIKey             string
	Model              string
	Temperature        float32
	ConcurrentRequests int
}

type GeminiService struct {
	client   *genai.Client
	cfg      GeminiConfig
	rateChan chan struct{} // Token bucket
}

func NewGeminiService(ctx context.Context, cfg GeminiConfig) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing Gemini API key", ErrProviderUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.ConcurrentRequests <= 0 {
		cfg.ConcurrentRequests = 5
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Token bucket for concurrent calls
	rateChan := make(chan struct{}, cfg.ConcurrentRequests)
	for i := 0; i < cfg.ConcurrentRequests; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:   client,
		cfg:      cfg,
		rateChan: rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, ctx.Err())
	case <-time.After(2 * time.Minute):
		return fmt.Errorf("%w: timeout waiting for Gemini rate slot", ErrProviderUnavailable)
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

func (s *GeminiService) newModel() *genai.GenerativeModel {
	model := s.client.GenerativeModel(s.cfg.Model)
	model.SetTemperature(s.cfg.Temperature)
	model.SetTopP(0.95)
	return model
}

// Generate issues one request/response call.
func (s *GeminiService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	model := s.newModel()
	if req.ArrayField != "" {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = listSchema(req.ArrayField)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
			slog.Warn("Gemini candidate stopped early", "candidate", i, "reason", cand.FinishReason.String())
		}
	}

	return extractText(resp), nil
}

// StartChat opens a chat that keeps its own history across SendStream calls.
func (s *GeminiService) StartChat(ctx context.Context) (Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if s.client == nil {
		return nil, fmt.Errorf("%w: Gemini client is not initialized", ErrProviderUnavailable)
	}
	return &geminiConversation{svc: s, chat: s.newModel().StartChat()}, nil
}

type geminiConversation struct {
	svc  *GeminiService
	chat *genai.ChatSession
}

func (c *geminiConversation) SendStream(ctx context.Context, message string) <-chan stream.Fragment {
	out := make(chan stream.Fragment)

	go func() {
		defer close(out)

		if err := c.svc.acquireRate(ctx); err != nil {
			sendFragment(ctx, out, stream.Fragment{Err: err})
			return
		}
		defer c.svc.releaseRate()

		iter := c.chat.SendMessageStream(ctx, genai.Text(message))
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				sendFragment(ctx, out, stream.Fragment{Err: fmt.Errorf("%w: %v", ErrProviderUnavailable, err)})
				return
			}

			text := extractText(resp)
			if text == "" {
				continue
			}
			if !sendFragment(ctx, out, stream.Fragment{Text: text}) {
				return
			}
		}
	}()

	return out
}

// Helper functions

func listSchema(field string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			field: {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
	}
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

// parseListPayload pulls the named string array out of a JSON reply.
// Markdown fences and chatter around the object are tolerated.
func parseListPayload(raw, field string) ([]string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrMalformedResponse)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	rawItems, ok := payload[field]
	if !ok || string(rawItems) == "null" {
		return nil, fmt.Errorf("%w: field %q missing", ErrMalformedResponse, field)
	}

	var items []string
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return nil, fmt.Errorf("%w: field %q is not a string list", ErrMalformedResponse, field)
	}

	valid := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			valid = append(valid, item)
		}
	}
	return valid, nil
}
