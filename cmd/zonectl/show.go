package main

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/cli"
	"github.com/jacksmith/zonesync/internal/model"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show zone details",
	Long: `Show a zone's attributes, sync state and geometry as GeoJSON.`,
	Args:              cobra.ExactArgs(1),
	RunE:              runShow,
	ValidArgsFunction: completeZoneIDs,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	id := args[0]

	sess, err := openSession()
	if err != nil {
		return err
	}

	f, ok := sess.tracker.Feature(id)
	if !ok {
		if sess.tracker.State(id) == model.FeatureStateDeleted {
			fmt.Printf("ID:     %s\n", id)
			fmt.Printf("State:  %s\n", cli.StateLabel(model.FeatureStateDeleted))
			return nil
		}
		return &cli.NotFoundError{Type: "zone", ID: id}
	}

	fmt.Printf("ID:     %s\n", f.ID)
	fmt.Printf("State:  %s\n", cli.StateLabel(sess.tracker.State(f.ID)))
	fmt.Printf("Name:   %s\n", f.Name())
	fmt.Printf("Type:   %s\n", f.Type())
	for k, v := range f.Properties {
		if k == model.AttrName || k == model.AttrType {
			continue
		}
		fmt.Printf("%s: %v\n", k, v)
	}

	if f.Geometry != nil {
		data, err := geojson.NewGeometry(f.Geometry).MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Printf("Geometry: %s\n", data)
	}
	return nil
}
