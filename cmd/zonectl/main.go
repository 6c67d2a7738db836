// Package main is the entry point for the zonectl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/cli"
	"github.com/jacksmith/zonesync/internal/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	_ = godotenv.Load(".env")
	logger.Setup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zonectl",
	Short: "zonectl - edit zones and push them to a WFS-T server",
	Long: `zonectl keeps a local working copy of the zones published by a WFS
server, records inserts, modifications and deletions against it, and
sends them back as a single WFS-T transaction.

Pending edits are kept in .zonesync/ between invocations, so a failed
push can simply be retried.`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("zonectl version {{.Version}}\n")
}
