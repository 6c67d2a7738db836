package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/storage"
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for zonectl.

Bash:
  $ source <(zonectl completion bash)

Zsh:
  $ zonectl completion zsh > "${fpath[1]}/_zonectl"

Fish:
  $ zonectl completion fish | source
`,
}

func init() {
	completionCmd.AddCommand(
		&cobra.Command{
			Use:   "bash",
			Short: "Generate bash completion script",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return rootCmd.GenBashCompletion(os.Stdout)
			},
		},
		&cobra.Command{
			Use:   "zsh",
			Short: "Generate zsh completion script",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return rootCmd.GenZshCompletion(os.Stdout)
			},
		},
		&cobra.Command{
			Use:   "fish",
			Short: "Generate fish completion script",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return rootCmd.GenFishCompletion(os.Stdout, true)
			},
		},
	)
	rootCmd.AddCommand(completionCmd)
}

// completeZoneIDs completes IDs from the cached working set without
// contacting the server.
func completeZoneIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := storage.Open(".")
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	features, err := s.LoadFeatures()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, f := range features {
		if strings.HasPrefix(f.ID, toComplete) {
			completions = append(completions, f.ID+"\t"+f.Name())
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
