package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/appforge/src/config"
	"github.com/sofmeright/appforge/src/ctxlog"
)

var (
	migrateInPlace bool
	migrateOutput  string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [file]",
	Short: "Migrate config to the latest schema version",
	Long: `Migrate a .appforge.yml config file to the latest schema version.

By default, prints the migrated config to stdout. Use --in-place to
overwrite the file, or --output to write to a different path.

Unversioned configs (a flat signing_profiles list, top-level format and
strict keys) are rewritten as version 1.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVarP(&migrateInPlace, "in-place", "i", false, "overwrite the config file in place")
	migrateCmd.Flags().StringVarP(&migrateOutput, "output", "o", "", "write migrated config to this path")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := ctxlog.FromContext(cmd.Context())

	inputPath := config.DefaultPath
	if len(args) > 0 {
		inputPath = args[0]
	} else if cfgFile != "" {
		inputPath = cfgFile
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	migrated, err := config.MigrateToLatest(data)
	if err != nil {
		return fmt.Errorf("migrating %s: %w", inputPath, err)
	}

	switch {
	case migrateInPlace:
		if err := os.WriteFile(inputPath, migrated, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", inputPath, err)
		}
		log.Info("migrated in place", "path", inputPath)

	case migrateOutput != "":
		if err := os.WriteFile(migrateOutput, migrated, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", migrateOutput, err)
		}
		log.Info("migrated", "from", inputPath, "to", migrateOutput)

	default:
		_, err := cmd.OutOrStdout().Write(migrated)
		return err
	}

	return nil
}
