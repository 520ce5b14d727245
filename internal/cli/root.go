package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Timi2001/AI-Email-Assistant/internal/config"
	"github.com/Timi2001/AI-Email-Assistant/internal/logging"
	"github.com/Timi2001/AI-Email-Assistant/internal/services"
)

// ProviderFactory builds the text provider and a func releasing it.
type ProviderFactory func(ctx context.Context) (services.Provider, func(), error)

// DefaultProvider picks Gemini or the offline mock from the environment.
func DefaultProvider(ctx context.Context) (services.Provider, func(), error) {
	cfg, err := config.LoadProvider()
	if err != nil {
		return nil, nil, err
	}

	if cfg.UseMockProvider() {
		return &services.MockProvider{}, func() {}, nil
	}

	gemini, err := services.NewGeminiService(ctx, services.GeminiConfig{
		APIKey:             cfg.GeminiAPIKey,
		Model:              cfg.GeminiModel,
		Temperature:        cfg.GeminiTemperature,
		ConcurrentRequests: cfg.GeminiConcurrentReqs,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("starting Gemini client: %w", err)
	}
	return gemini, gemini.Close, nil
}

// NewRootCmd builds the mailcraft command tree around newProvider.
func NewRootCmd(newProvider ProviderFactory) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "mailcraft",
		Short: "AI email assistant for marketing copy",
		Long: `Mailcraft drafts and refines marketing emails with a generative text model, ` +
			`and suggests subject lines, calls to action, A/B tests, personalization and spam fixes.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose)
	}

	rootCmd.AddCommand(newComposeCmd(newProvider))
	for _, cmd := range newActionCmds(newProvider) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newSamplesCmd())
	rootCmd.AddCommand(newTonesCmd())

	return rootCmd
}

func Execute(ctx context.Context) error {
	return NewRootCmd(DefaultProvider).ExecuteContext(ctx)
}
