package services

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListPayload(t *testing.T) {
	items, err := parseListPayload(`{"subject_lines": ["Last call: 30% off", "  ", "Your sale starts now"]}`, "subject_lines")
	require.NoError(t, err)
	assert.Equal(t, []string{"Last call: 30% off", "Your sale starts now"}, items)
}

func TestParseListPayload_FencedAndChatty(t *testing.T) {
	raw := "Sure! Here they are:\n```json\n{\"ctas\": [\"Shop now\", \"Claim 30% off\"]}\n```"
	items, err := parseListPayload(raw, "ctas")
	require.NoError(t, err)
	assert.Equal(t, []string{"Shop now", "Claim 30% off"}, items)
}

func TestParseListPayload_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"plain text":    "Shop now, Buy today",
		"broken json":   `{"ctas": ["Shop now",}`,
		"missing field": `{"buttons": ["Shop now"]}`,
		"null field":    `{"ctas": null}`,
		"not a list":    `{"ctas": {"a": "b"}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseListPayload(raw, "ctas")
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestExtractText(t *testing.T) {
	assert.Empty(t, extractText(nil))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello"), genai.Text(" there")}}},
			{Content: nil},
		},
	}
	assert.Equal(t, "Hello there", extractText(resp))
}

func TestListSchema(t *testing.T) {
	schema := listSchema("subject_lines")
	require.NotNil(t, schema)
	assert.Equal(t, genai.TypeObject, schema.Type)

	field, ok := schema.Properties["subject_lines"]
	require.True(t, ok)
	assert.Equal(t, genai.TypeArray, field.Type)
	assert.Equal(t, genai.TypeString, field.Items.Type)
}

func TestNewGeminiService_RequiresAPIKey(t *testing.T) {
	svc, err := NewGeminiService(context.Background(), GeminiConfig{})
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestAcquireRate_CancelledIsProviderFailure(t *testing.T) {
	// No free slots, so only the cancelled context can end the wait.
	s := &GeminiService{rateChan: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.acquireRate(ctx)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
