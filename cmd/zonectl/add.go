package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/cli"
	"github.com/jacksmith/zonesync/internal/codec"
	"github.com/jacksmith/zonesync/internal/model"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new zone",
	Long: `Add a zone to the working set. It is sent as an Insert on the next push.

--geojson takes a GeoJSON geometry object, either inline or as the path
of a file holding one. Coordinates are longitude, latitude.

Examples:
  zonectl add --name "Parking nord" --type parking --geojson zone.json
  zonectl add --name Quai --geojson '{"type":"Point","coordinates":[2.35,48.85]}'`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var (
	addName    string
	addType    string
	addGeoJSON string
)

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "zone name")
	addCmd.Flags().StringVar(&addType, "type", "", "zone type")
	addCmd.Flags().StringVar(&addGeoJSON, "geojson", "", "GeoJSON geometry, inline or a file path")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addGeoJSON == "" {
		return &cli.ValidationError{Field: "geojson", Message: "a geometry is required"}
	}
	geom, err := readGeometry(addGeoJSON)
	if err != nil {
		return err
	}

	sess, err := openSession()
	if err != nil {
		return err
	}

	f := model.Feature{Geometry: geom, Properties: map[string]any{}}
	if addName != "" {
		f.Set(model.AttrName, addName)
	}
	if addType != "" {
		f.Set(model.AttrType, addType)
	}

	added, err := sess.tracker.Add(f)
	if err != nil {
		return err
	}
	if err := sess.persist(); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", added.ID, added.Name())
	return nil
}

// readGeometry decodes a GeoJSON geometry given inline or as a file path.
func readGeometry(arg string) (orb.Geometry, error) {
	data := []byte(arg)
	if !strings.HasPrefix(strings.TrimSpace(arg), "{") {
		b, err := os.ReadFile(arg)
		if err != nil {
			return nil, &cli.ValidationError{Field: "geojson", Message: err.Error()}
		}
		data = b
	}
	g, err := codec.DecodeGeometry(data)
	if err != nil {
		return nil, &cli.ValidationError{Field: "geojson", Message: err.Error()}
	}
	return g, nil
}
