package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/cli"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Load zones from the server",
	Long: `Replace the working set with the zones currently on the server.

Pulling discards pending edits, so it refuses to run while there are
any unless --force is given. A failed pull leaves the working set as it
was.`,
	Args: cobra.NoArgs,
	RunE: runPull,
}

var pullForce bool

func init() {
	pullCmd.Flags().BoolVarP(&pullForce, "force", "f", false, "discard pending edits")
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}

	if n := sess.pendingCount(); n > 0 && !pullForce {
		return &cli.PendingChangesError{Count: n, Hint: "push them first or pull with --force"}
	}

	loadErr := sess.ctl.Load(commandContext(cmd))
	if err := sess.persist(); err != nil {
		return err
	}
	if loadErr != nil {
		return loadErr
	}

	fmt.Printf("Pulled %d zone(s) from %s\n", sess.tracker.Len(), sess.ctl.ReadURL())
	return nil
}
