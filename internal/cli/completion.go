package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitscroll/pkg/export"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/metric"
)

// completionCommand creates the completion command for generating shell
// completions. Flag values for --mode, --metric and --format complete too.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for gitscroll.

To load completions:

Bash:
  $ source <(gitscroll completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ gitscroll completion bash > /etc/bash_completion.d/gitscroll
  # macOS:
  $ gitscroll completion bash > $(brew --prefix)/etc/bash_completion.d/gitscroll

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ gitscroll completion zsh > "${fpath[1]}/_gitscroll"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ gitscroll completion fish | source

  # To load completions for each session, execute once:
  $ gitscroll completion fish > ~/.config/fish/completions/gitscroll.fish

PowerShell:
  PS> gitscroll completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> gitscroll completion powershell > gitscroll.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// =============================================================================
// Flag Value Completion
// =============================================================================

func completeModes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(layout.Modes))
	for i, m := range layout.Modes {
		names[i] = m.String()
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func completeMetrics(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(metric.Kinds))
	for i, k := range metric.Kinds {
		names[i] = string(k)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats completes the last entry of a comma-separated format list,
// leaving out formats already named.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	used := strings.Split(prefix, ",")
	var out []string
	for _, f := range export.Formats {
		name := string(f)
		if !slices.Contains(used, name) {
			out = append(out, prefix+name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
