package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Timi2001/AI-Email-Assistant/internal/services"
	"github.com/Timi2001/AI-Email-Assistant/internal/stream"
)

func newComposeCmd(newProvider ProviderFactory) *cobra.Command {
	var (
		inputs  inputFlags
		refines []string
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Stream a complete email body, then apply refinements",
		Long: `Compose streams an email body for the described campaign. Each --refine ` +
			`instruction is sent afterwards in the same conversation, so it can refer to the draft.`,
		Example: `  mailcraft compose --sample 2
  mailcraft compose --goal "Webinar reminder" --audience "registrants" --message "Tomorrow 2 PM" --refine "make it shorter"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inputs.resolve(cmd)
			if err != nil {
				return err
			}

			provider, release, err := newProvider(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			composer := services.NewComposer(provider)
			sess, err := composer.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			frags, err := composer.Compose(cmd.Context(), sess, in)
			if err != nil {
				return err
			}
			if err := render(cmd, out, services.OperationCompose, frags); err != nil {
				return err
			}

			for _, instruction := range refines {
				fmt.Fprintf(out, "\n--- refine: %s ---\n", instruction)
				frags, err := composer.Refine(cmd.Context(), sess, instruction)
				if err != nil {
					return err
				}
				if err := render(cmd, out, services.OperationRefine, frags); err != nil {
					return err
				}
			}
			return nil
		},
	}

	inputs.register(cmd)
	cmd.Flags().StringArrayVar(&refines, "refine", nil, "Refinement instruction applied after composing (repeatable)")
	return cmd
}

// render writes each new part of the draft as it arrives. When the stream
// fails the draft is replaced by the apology, which is printed on its own line.
func render(cmd *cobra.Command, out io.Writer, operation string, frags <-chan stream.Fragment) error {
	var shown string
	acc := stream.New(services.StreamApology(operation))

	_, err := acc.Run(cmd.Context(), frags, func(buf string) error {
		var werr error
		if strings.HasPrefix(buf, shown) {
			_, werr = io.WriteString(out, buf[len(shown):])
		} else {
			_, werr = fmt.Fprintf(out, "\n%s", buf)
		}
		shown = buf
		return werr
	})
	fmt.Fprintln(out)

	if err != nil {
		return fmt.Errorf("%s failed: %w", operation, err)
	}
	return nil
}
