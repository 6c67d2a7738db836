package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/cli"
	"github.com/jacksmith/zonesync/internal/model"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List zones",
	Long: `List the zones in the working set with their sync state.

Deleted zones are no longer in the working set but are listed until
they are pushed.

  --pending   Show only zones with unpushed edits`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listPending bool

func init() {
	listCmd.Flags().BoolVar(&listPending, "pending", false, "show only zones with pending edits")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}

	table := cli.NewTable()
	table.SetMaxWidth(3, cli.DefaultMaxNameWidth)
	for _, f := range sess.tracker.Features() {
		state := sess.tracker.State(f.ID)
		if listPending && state == model.FeatureStatePristine {
			continue
		}
		table.AddRow(f.ID, cli.StateLabel(state), f.Type(), f.Name(), cli.GeometrySummary(f.Geometry))
	}
	for _, id := range sess.tracker.ChangeSets().Deleted {
		table.AddRow(id, cli.StateLabel(model.FeatureStateDeleted), "", "", "")
	}

	if table.Len() == 0 {
		if listPending {
			fmt.Println("No pending edits")
		} else {
			fmt.Println("No zones")
		}
		return nil
	}
	table.Render(os.Stdout)
	return nil
}
