package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/model"
	"github.com/jacksmith/zonesync/internal/syncctl"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Send pending edits to the server",
	Long: `Send every pending insert, update and delete as one WFS-T
transaction, then reload the working set from the server.

If the server rejects the transaction or cannot be reached, the pending
edits are kept and the push can be retried.`,
	Args: cobra.NoArgs,
	RunE: runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}

	res, saveErr := sess.ctl.Save(commandContext(cmd))
	if err := sess.persist(); err != nil {
		return err
	}
	if errors.Is(saveErr, model.ErrNoChanges) {
		fmt.Println("No changes to push")
		return nil
	}
	if res != nil {
		printResult(res)
	}
	return saveErr
}

func printResult(res *syncctl.Result) {
	fmt.Printf("Saved: %d inserted, %d updated, %d deleted\n", res.Inserted, res.Updated, res.Deleted)
	if res.Server != nil && len(res.Server.InsertedIDs) > 0 {
		fmt.Printf("New IDs: %s\n", strings.Join(res.Server.InsertedIDs, ", "))
	}
	if res.ReloadErr != nil {
		fmt.Println("Reload after push failed; run zonectl pull to refresh")
	}
}
