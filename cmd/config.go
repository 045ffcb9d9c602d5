package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage term-chat configuration",
	Long: `View or edit your term-chat configuration.

Examples:
  term-chat config                     # show current config
  term-chat config init                # pick a provider and write a config
  term-chat config edit                # edit in $EDITOR
  term-chat config completion zsh      # generate shell completions`,
	RunE: configShow, // Default to show
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file in $EDITOR",
	RunE:  configEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	RunE:  configPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	RunE:  configInit,
}

var configCompletionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script.

Examples:
  term-chat config completion bash > /etc/bash_completion.d/term-chat
  term-chat config completion zsh > "${fpath[1]}/_term-chat"
  term-chat config completion fish | source`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:      configCompletion,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCompletionCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !config.Exists() {
		fmt.Fprintf(out, "# No config file (using defaults)\n")
		fmt.Fprintf(out, "# Create one with: term-chat config init\n\n")
	} else {
		fmt.Fprintf(out, "# %s\n\n", configPath)
	}

	data, err := config.Marshal(cfg.Redacted())
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func configPath(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func configEdit(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if !config.Exists() {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	c := exec.Command("sh", "-c", editor+` "$1"`, "sh", path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

func configInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	if config.Exists() {
		overwrite := false
		if err := huh.NewConfirm().
			Title(fmt.Sprintf("Overwrite %s?", path)).
			Affirmative("Yes").
			Negative("No").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	options := make([]huh.Option[string], 0, len(llm.ProviderNames))
	for _, name := range llm.ProviderNames {
		options = append(options, huh.NewOption(name, name))
	}
	provider := cfg.Provider
	model := cfg.Model()
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Provider").
				Description("echo works offline and needs no API key").
				Options(options...).
				Value(&provider),
			huh.NewInput().
				Title("Model").
				Description("Leave empty for the provider default").
				Value(&model),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.ApplyOverrides(provider, model)
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", filepath.Clean(path))
	return nil
}

func configCompletion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletion(out)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	}
	return nil
}
