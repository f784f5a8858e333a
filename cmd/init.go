package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/geohash-cli/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfigFile("config.yaml", initForce)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}

// writeConfigFile writes the default configuration to path. An existing file
// is only replaced when force is set.
func writeConfigFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return eris.Errorf("init: %s already exists, use --force to overwrite", path)
		}
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return eris.Wrap(err, "init: marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "init: write %s", path)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
