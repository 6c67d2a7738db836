package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/model"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Print the transaction push would send",
	Long: `Build the WFS-T Transaction document for the pending edits and print
it, indented, without contacting the server.`,
	Args: cobra.NoArgs,
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}

	tx, err := sess.ctl.Preview()
	if errors.Is(err, model.ErrNoChanges) {
		fmt.Println("No changes")
		return nil
	}
	if err != nil {
		return err
	}

	c := tx.Counts()
	fmt.Printf("<!-- POST %s: %d insert(s), %d update(s), %d delete(s) -->\n",
		sess.ctl.TransactionURL(), c.Inserts, c.Updates, c.Deletes)
	fmt.Println(tx.Indent())
	return nil
}
