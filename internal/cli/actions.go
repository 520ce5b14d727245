package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Timi2001/AI-Email-Assistant/internal/models"
	"github.com/Timi2001/AI-Email-Assistant/internal/services"
)

type actionDef struct {
	use    string
	short  string
	action models.ActionType
}

var inputActions = []actionDef{
	{"subject", "Suggest 5 subject lines", models.ActionSubject},
	{"cta", "Suggest 4 calls to action", models.ActionCta},
	{"ab-test", "Suggest an A/B test for the campaign", models.ActionAbTest},
	{"personalization", "Suggest personalization ideas", models.ActionPersonalization},
}

var textActions = []actionDef{
	{"spam", "Check an email body for spam triggers", models.ActionSpam},
	{"summary", "Summarize an email thread", models.ActionSummary},
}

func newActionCmds(newProvider ProviderFactory) []*cobra.Command {
	var cmds []*cobra.Command

	for _, def := range inputActions {
		var inputs inputFlags

		cmd := &cobra.Command{
			Use:   def.use,
			Short: def.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				in, err := inputs.resolve(cmd)
				if err != nil {
					return err
				}
				return runAction(cmd, newProvider, services.ActionRequest{Action: def.action, Inputs: in})
			},
		}
		inputs.register(cmd)
		cmds = append(cmds, cmd)
	}

	for _, def := range textActions {
		var text string

		cmd := &cobra.Command{
			Use:   def.use + " [file|-]",
			Short: def.short,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				body, err := readText(cmd, text, args)
				if err != nil {
					return err
				}
				return runAction(cmd, newProvider, services.ActionRequest{Action: def.action, Text: body})
			},
		}
		cmd.Flags().StringVar(&text, "text", "", "Text to analyze instead of a file")
		cmds = append(cmds, cmd)
	}

	return cmds
}

func runAction(cmd *cobra.Command, newProvider ProviderFactory, req services.ActionRequest) error {
	provider, release, err := newProvider(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	runner := services.NewActionRunner(services.NewComposer(provider), services.NewMemoryStatusTracker())
	result, err := runner.Run(cmd.Context(), uuid.New(), req)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid input: %s", describeFields(verr.Fields))
		}
		return err
	}
	if result.Failed() {
		return fmt.Errorf("%s", result.Error)
	}

	out := cmd.OutOrStdout()
	if result.Items != nil {
		for i, item := range result.Items {
			fmt.Fprintf(out, "%d. %s\n", i+1, item)
		}
		return nil
	}
	fmt.Fprintln(out, result.Text)
	return nil
}
