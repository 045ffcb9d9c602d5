package cmd

import (
	"strings"

	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/spf13/cobra"
)

var chatProvider string

// AddProviderFlag adds the --provider/-p flag with completion
func AddProviderFlag(cmd *cobra.Command, dest *string) {
	cmd.PersistentFlags().StringVarP(dest, "provider", "p", "", "Override provider, optionally with model (e.g., openai:gpt-4.1)")
	if err := cmd.RegisterFlagCompletionFunc("provider", ProviderFlagCompletion); err != nil {
		panic("failed to register provider completion: " + err.Error())
	}
}

// applyProviderOverride applies a "provider[:model]" flag value to cfg.
func applyProviderOverride(cfg *config.Config, value string) error {
	if value == "" {
		return nil
	}
	provider, model, err := llm.ParseProviderModel(value)
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(provider, model)
	return nil
}

// ProviderFlagCompletion handles --provider flag completion
func ProviderFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var completions []string
	for _, name := range llm.ProviderNames {
		if strings.HasPrefix(name, toComplete) {
			completions = append(completions, name)
		}
	}
	// No space after a provider name so the user can type ":model"
	if !strings.Contains(toComplete, ":") {
		return completions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
