package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/cli"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "Show pending operations",
	Long: `Print the IDs waiting to be inserted, updated and deleted, and the
error left by the last pull or push, if any.`,
	Args: cobra.NoArgs,
	RunE: runOps,
}

func init() {
	rootCmd.AddCommand(opsCmd)
}

func runOps(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}

	ops := sess.tracker.SnapshotOperations()
	fmt.Printf("Inserted: %s\n", idList(ops.Inserted))
	fmt.Printf("Modified: %s\n", idList(ops.Modified))
	fmt.Printf("Deleted:  %s\n", idList(ops.Deleted))
	if msg := sess.tracker.SaveError(); msg != "" {
		fmt.Printf("Last error: %s\n", cli.Red(msg))
	}
	return nil
}

func idList(ids []string) string {
	if len(ids) == 0 {
		return cli.Gray("(none)")
	}
	return strings.Join(ids, ", ")
}
