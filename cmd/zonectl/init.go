package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacksmith/zonesync/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a zonesync workspace",
	Long: `Create a .zonesync/ directory with an empty working set.

If --url or --type are given they are written to .zonesync.yaml;
otherwise the server can be set later in that file or through
ZONESYNC_WFS_URL.

Fails if .zonesync/ already exists in the current directory.`,
	RunE: runInit,
}

var (
	initURL  string
	initType string
)

func init() {
	initCmd.Flags().StringVar(&initURL, "url", "", "WFS-T endpoint URL")
	initCmd.Flags().StringVar(&initType, "type", "", "qualified feature type (default "+storage.DefaultFeatureType+")")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	featureType := initType
	if featureType == "" {
		featureType = storage.DefaultFeatureType
	}

	s, err := storage.Init(".", featureType)
	if err != nil {
		return err
	}

	if initURL != "" || initType != "" {
		cfg := storage.DefaultConfig()
		cfg.WFSURL = initURL
		cfg.FeatureType = featureType
		if err := s.WriteConfig(cfg); err != nil {
			return err
		}
	}

	fmt.Printf("Initialized zonesync in .zonesync/\n")
	fmt.Printf("Feature type: %s\n", featureType)
	if initURL == "" {
		fmt.Printf("Set wfs_url in .zonesync.yaml or %s before pulling\n", storage.EnvWFSURL)
	}
	return nil
}
