package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Timi2001/AI-Email-Assistant/internal/models"
)

// inputFlags are the email description flags shared by compose and the
// input-based actions.
type inputFlags struct {
	goal     string
	audience string
	message  string
	tone     string
	sample   int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.goal, "goal", "", "What the email should achieve")
	cmd.Flags().StringVar(&f.audience, "audience", "", "Who the email is for")
	cmd.Flags().StringVar(&f.message, "message", "", "Key message or rough draft")
	cmd.Flags().StringVar(&f.tone, "tone", string(models.ToneProfessional), "Tone of voice (Professional, Friendly, Urgent, Informative, Playful)")
	cmd.Flags().IntVar(&f.sample, "sample", 0, "Start from sample prompt N (1-based); explicit flags override its fields")
}

// resolve builds the inputs, starting from a sample when one was picked.
func (f *inputFlags) resolve(cmd *cobra.Command) (models.EmailInputs, error) {
	var in models.EmailInputs
	if f.sample != 0 {
		if f.sample < 1 || f.sample > len(models.SamplePrompts) {
			return in, fmt.Errorf("--sample must be between 1 and %d", len(models.SamplePrompts))
		}
		in = models.SamplePrompts[f.sample-1]
	}

	if f.goal != "" {
		in.Goal = f.goal
	}
	if f.audience != "" {
		in.Audience = f.audience
	}
	if f.message != "" {
		in.Message = f.message
	}
	if cmd.Flags().Changed("tone") || in.Tone == "" {
		in.Tone = models.Tone(f.tone)
	}

	if fields := in.Validate(); fields != nil {
		return in, fmt.Errorf("invalid email inputs: %s", describeFields(fields))
	}
	return in, nil
}

func describeFields(fields map[string]string) string {
	msgs := make([]string, 0, len(fields))
	for _, key := range []string{"goal", "audience", "message", "tone", "text", "instruction", "action"} {
		if msg, ok := fields[key]; ok {
			msgs = append(msgs, msg)
		}
	}
	return strings.Join(msgs, "; ")
}

// readText returns --text, or the contents of the named file ("-" for stdin).
func readText(cmd *cobra.Command, text string, args []string) (string, error) {
	if text != "" {
		return text, nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("provide --text or a file argument (\"-\" reads stdin)")
	}

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
