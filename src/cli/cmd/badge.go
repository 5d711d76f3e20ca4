package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sofmeright/appforge/src/badge"
	"github.com/sofmeright/appforge/src/config"
	"github.com/sofmeright/appforge/src/ctxlog"
)

var (
	bgFlags  runFlags
	bgLabel  string
	bgValue  string
	bgColor  string
	bgStatus string
	bgOutput string
)

var badgeCmd = &cobra.Command{
	Use:   "badge [manifest]",
	Short: "Generate SVG badges for a manifest",
	Long: `Resolve a manifest and write version, platform, signing and toolchain
badges to the badge directory. A manifest that fails to resolve gets a
single red "build: invalid" badge and the command exits 1.

Ad-hoc (--label + --value): writes one badge from flags instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBadge,
}

func init() {
	addRunFlags(badgeCmd, &bgFlags)
	badgeCmd.Flags().StringVar(&bgLabel, "label", "", "ad-hoc badge label (left side)")
	badgeCmd.Flags().StringVar(&bgValue, "value", "", "ad-hoc badge value (right side)")
	badgeCmd.Flags().StringVar(&bgColor, "color", "", "badge color (hex); overrides badges.color")
	badgeCmd.Flags().StringVar(&bgStatus, "status", "", "ad-hoc status-driven color: passed, warning, critical")
	badgeCmd.Flags().StringVarP(&bgOutput, "output", "o", "", "badge directory (default: from config)")

	rootCmd.AddCommand(badgeCmd)
}

func runBadge(cmd *cobra.Command, args []string) error {
	log := ctxlog.FromContext(cmd.Context())

	eng, err := buildBadgeEngine(cfg.Badges)
	if err != nil {
		return err
	}
	dir := bgOutput
	if dir == "" {
		dir = cfg.Badges.Dir
	}

	if bgLabel != "" && bgValue != "" {
		b := badge.Badge{Name: "custom", Label: bgLabel, Value: bgValue, Color: badge.StatusColor(bgStatus)}
		return writeBadges(cmd, eng, dir, []badge.Badge{b})
	}

	reports, err := runPipeline(cmd, firstManifest(args), bgFlags)
	if err != nil {
		return err
	}
	r := reports[0]
	if r.Err != nil {
		log.Warn("manifest did not resolve", "manifest", r.Path, "error", r.Err)
		if err := writeBadges(cmd, eng, dir, []badge.Badge{badge.Failed()}); err != nil {
			return err
		}
		return fmt.Errorf("%s: %w", r.Path, r.Err)
	}
	return writeBadges(cmd, eng, dir, badge.ForDescriptor(r.Descriptor))
}

func firstManifest(args []string) []string {
	paths := manifestPaths(args)
	if len(paths) > 1 {
		paths = paths[:1]
	}
	return paths
}

func buildBadgeEngine(bc config.BadgesConfig) (*badge.Engine, error) {
	size := bc.FontSize
	if size == 0 {
		size = 11
	}

	var metrics *badge.FontMetrics
	var err error
	if bc.FontFile != "" {
		metrics, err = badge.LoadFontFile(bc.FontFile, size)
	} else {
		metrics, err = badge.DefaultFont(size)
	}
	if err != nil {
		return nil, fmt.Errorf("loading badge font: %w", err)
	}

	eng := badge.New(metrics)
	color := bgColor
	if color == "" {
		color = bc.Color
	}
	if color != "" {
		eng = eng.WithColor(color)
	}
	return eng, nil
}

func writeBadges(cmd *cobra.Command, eng *badge.Engine, dir string, badges []badge.Badge) error {
	paths, err := eng.WriteAll(dir, badges)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "  badge → %s\n", filepath.ToSlash(p))
	}
	return nil
}
