package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/cli"
	"github.com/jacksmith/zonesync/internal/model"
)

var modifyCmd = &cobra.Command{
	Use:   "modify <id>",
	Short: "Modify a zone",
	Long: `Change a zone's name, type or geometry.

A zone the server already has is sent as an Update on the next push. A
zone added since the last push stays an Insert and is sent with its new
values.`,
	Args:              cobra.ExactArgs(1),
	RunE:              runModify,
	ValidArgsFunction: completeZoneIDs,
}

var (
	modifyName    string
	modifyType    string
	modifyGeoJSON string
)

func init() {
	modifyCmd.Flags().StringVar(&modifyName, "name", "", "new zone name")
	modifyCmd.Flags().StringVar(&modifyType, "type", "", "new zone type")
	modifyCmd.Flags().StringVar(&modifyGeoJSON, "geojson", "", "new GeoJSON geometry, inline or a file path")
	rootCmd.AddCommand(modifyCmd)
}

func runModify(cmd *cobra.Command, args []string) error {
	id := args[0]
	if modifyName == "" && modifyType == "" && modifyGeoJSON == "" {
		return &cli.ValidationError{Message: "nothing to change (use --name, --type or --geojson)"}
	}

	sess, err := openSession()
	if err != nil {
		return err
	}

	f, ok := sess.tracker.Feature(id)
	if !ok {
		return &cli.NotFoundError{Type: "zone", ID: id}
	}
	if modifyGeoJSON != "" {
		geom, err := readGeometry(modifyGeoJSON)
		if err != nil {
			return err
		}
		f.Geometry = geom
	}
	if modifyName != "" {
		f.Set(model.AttrName, modifyName)
	}
	if modifyType != "" {
		f.Set(model.AttrType, modifyType)
	}

	if !sess.tracker.Modify(f) {
		return &cli.NotFoundError{Type: "zone", ID: id}
	}
	if err := sess.persist(); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", f.ID, cli.StateLabel(sess.tracker.State(f.ID)))
	return nil
}
