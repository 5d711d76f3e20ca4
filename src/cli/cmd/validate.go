package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/appforge/src/output"
)

var validateFlags runFlags

var validateCmd = &cobra.Command{
	Use:   "validate [manifests...]",
	Short: "Check manifests without emitting descriptors",
	Long: `Resolve each manifest and report every violation.

Nothing is written to stdout except the report; exit status is 1 when any
manifest fails.`,
	RunE: runValidate,
}

func init() {
	addRunFlags(validateCmd, &validateFlags)
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	start := time.Now()
	reports, err := runPipeline(cmd, args, validateFlags)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	color := output.UseColor()
	w := cmd.OutOrStdout()
	output.CIHeader(w)
	for _, r := range reports {
		output.DescriptorSection(w, r, color)
	}
	output.Summary(w, reports, elapsed, color)

	if n := failedCount(reports); n > 0 {
		return fmt.Errorf("%d of %d manifest(s) failed validation", n, len(reports))
	}
	return nil
}
