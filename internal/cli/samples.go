package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Timi2001/AI-Email-Assistant/internal/models"
)

func newSamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "List the sample prompts usable with --sample",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for i, s := range models.SamplePrompts {
				fmt.Fprintf(out, "%d. [%s] %s\n   Audience: %s\n", i+1, s.Tone, s.Goal, s.Audience)
			}
		},
	}
}

func newTonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tones",
		Short: "List the supported tones of voice",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range models.Tones {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}
}
