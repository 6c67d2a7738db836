package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/model"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a zone",
	Long: `Remove a zone from the working set. It is sent as a Delete on the next push.

Deleting an ID that is not in the working set still records it, so a
zone known to exist on the server can be removed without pulling first.`,
	Args:              cobra.ExactArgs(1),
	RunE:              runDelete,
	ValidArgsFunction: completeZoneIDs,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]

	sess, err := openSession()
	if err != nil {
		return err
	}

	before := sess.tracker.State(id)
	if before == model.FeatureStateDeleted {
		fmt.Printf("%s already deleted\n", id)
		return nil
	}
	existed := sess.tracker.Delete(id)
	if err := sess.persist(); err != nil {
		return err
	}

	switch {
	case !existed:
		fmt.Printf("Deleted %s (not in working set)\n", id)
	case sess.tracker.State(id) == model.FeatureStatePristine:
		fmt.Printf("Discarded unsaved %s\n", id)
	default:
		fmt.Printf("Deleted %s\n", id)
	}
	return nil
}
