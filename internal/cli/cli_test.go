package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Timi2001/AI-Email-Assistant/internal/services"
)

func mockFactory(p *services.MockProvider) ProviderFactory {
	return func(context.Context) (services.Provider, func(), error) {
		return p, func() {}, nil
	}
}

func run(t *testing.T, provider *services.MockProvider, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd(mockFactory(provider))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCompose_StreamsAndRefines(t *testing.T) {
	provider := &services.MockProvider{
		ReplyFunc: func(turn int, _ string) []string {
			if turn == 1 {
				return []string{"Hi ", "there"}
			}
			return []string{"Hi"}
		},
	}

	out, err := run(t, provider, "", "compose", "--sample", "2", "--refine", "shorter")
	require.NoError(t, err)
	assert.Equal(t, "Hi there\n\n--- refine: shorter ---\nHi\n", out)

	msgs := provider.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "Tone of Voice: Urgent")
	assert.Contains(t, msgs[0], "FLASH30")
	assert.Equal(t, "shorter", msgs[1])
}

func TestCompose_FlagsOverrideSample(t *testing.T) {
	provider := &services.MockProvider{}

	_, err := run(t, provider, "", "compose", "--sample", "1", "--goal", "Holiday hours", "--tone", "playful")
	require.NoError(t, err)

	msg := provider.Messages()[0]
	assert.Contains(t, msg, "Email Goal: Holiday hours")
	assert.Contains(t, msg, "Tone of Voice: Playful")
	assert.Contains(t, msg, "compostable packaging")
}

func TestCompose_FailureShowsApology(t *testing.T) {
	provider := &services.MockProvider{
		ReplyFunc: func(int, string) []string { return []string{"Dear", " all"} },
		StreamErr: errors.New("quota"),
		FailAfter: 1,
	}

	out, err := run(t, provider, "", "compose", "--sample", "1")
	require.Error(t, err)
	assert.Equal(t, "Dear\nSorry, an error occurred while generating the email.\n", out)
}

func TestCompose_InvalidInputs(t *testing.T) {
	provider := &services.MockProvider{}

	_, err := run(t, provider, "", "compose", "--goal", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Audience is required")

	_, err = run(t, provider, "", "compose", "--sample", "9")
	assert.ErrorContains(t, err, "--sample")

	assert.Empty(t, provider.Messages())
}

func TestSubjectCommand(t *testing.T) {
	provider := &services.MockProvider{
		GenerateFunc: func(req services.GenerateRequest) (string, error) {
			return `{"subject_lines":["One","Two"]}`, nil
		},
	}

	out, err := run(t, provider, "", "subject", "--sample", "3")
	require.NoError(t, err)
	assert.Equal(t, "1. One\n2. Two\n", out)
	assert.Equal(t, "subject_lines", provider.Requests()[0].ArrayField)
}

func TestActionCommand_FailureIsError(t *testing.T) {
	provider := &services.MockProvider{
		GenerateFunc: func(services.GenerateRequest) (string, error) { return "", services.ErrProviderUnavailable },
	}

	_, err := run(t, provider, "", "ab-test", "--sample", "1")
	assert.EqualError(t, err, "Sorry, there was an error suggesting an A/B test.")
}

func TestTextCommands(t *testing.T) {
	provider := &services.MockProvider{
		GenerateFunc: func(req services.GenerateRequest) (string, error) { return "looks fine", nil },
	}

	out, err := run(t, provider, "", "spam", "--text", "Buy now!!!")
	require.NoError(t, err)
	assert.Equal(t, "looks fine\n", out)

	_, err = run(t, provider, "Re: budget\n> earlier", "summary", "-")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "thread.txt")
	require.NoError(t, os.WriteFile(path, []byte("Re: offsite"), 0o600))
	_, err = run(t, provider, "", "summary", path)
	require.NoError(t, err)

	reqs := provider.Requests()
	require.Len(t, reqs, 3)
	assert.Contains(t, reqs[0].Prompt, "Buy now!!!")
	assert.Contains(t, reqs[1].Prompt, "> earlier")
	assert.Contains(t, reqs[2].Prompt, "Re: offsite")

	_, err = run(t, provider, "", "spam")
	assert.ErrorContains(t, err, "--text")
}

func TestSamplesAndTones(t *testing.T) {
	out, err := run(t, &services.MockProvider{}, "", "samples")
	require.NoError(t, err)
	assert.Contains(t, out, "1. [Friendly] Launch our new eco-friendly coffee subscription box.")
	assert.Contains(t, out, "4. [Playful]")

	out, err = run(t, &services.MockProvider{}, "", "tones")
	require.NoError(t, err)
	assert.Equal(t, "Professional\nFriendly\nUrgent\nInformative\nPlayful\n", out)
}
