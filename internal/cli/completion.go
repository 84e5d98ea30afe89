package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// newCompletionCmd creates the completion command
func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for the Speech CLI and print it to stdout.

Besides subcommands and flags, the scripts complete report formats for
--output, CSV and JSON files for publish --data-file and directories for
transfer --local-folder.

Load it in the current shell:
  bash:        source <(speech completion bash)
  zsh:         source <(speech completion zsh)
  fish:        speech completion fish | source
  powershell:  speech completion powershell | Out-String | Invoke-Expression

To load it in every session, write the output to your shell's completion
directory, e.g. speech completion zsh > "${fpath[1]}/_speech".
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// No config is needed to print a script
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCompletion(cmd.Root(), cmd, args[0])
		},
	}
}

func writeCompletion(root, cmd *cobra.Command, shell string) error {
	out := cmd.OutOrStdout()
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(out, true)
	case "zsh":
		return root.GenZshCompletion(out)
	case "fish":
		return root.GenFishCompletion(out, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(out)
	}
	return fmt.Errorf("unsupported shell %q", shell)
}

// registerFlagCompletions attaches value completions to the flags that take
// a fixed set of values, a data file or a folder
func registerFlagCompletions(root *cobra.Command) {
	root.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(
		[]string{"table", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp))

	for _, sub := range root.Commands() {
		switch sub.Name() {
		case "publish":
			sub.MarkFlagFilename("data-file", "csv", "json")
		case "transfer":
			sub.MarkFlagDirname("local-folder")
		}
	}
}
