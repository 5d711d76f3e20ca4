package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/appforge/src/ctxlog"
	"github.com/sofmeright/appforge/src/output"
)

var (
	resolveFlags  runFlags
	resolveFormat string
	resolveJUnit  string
	resolveQuiet  bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [manifests...]",
	Short: "Resolve manifests into build descriptors",
	Long: `Resolve each manifest into a validated build descriptor.

Manifests default to the config's manifests list. Descriptors are written
to stdout as yaml, json or toml only when every manifest resolves; any
failure prints diagnostics to stderr and exits 1 with nothing on stdout.

Manifests are resolved concurrently (--jobs) and reported in argument order.`,
	RunE: runResolve,
}

func init() {
	addRunFlags(resolveCmd, &resolveFlags)
	resolveCmd.Flags().StringVarP(&resolveFormat, "format", "f", "", "descriptor encoding: yaml, json or toml (default: from config)")
	resolveCmd.Flags().StringVar(&resolveJUnit, "junit", "", "write a JUnit XML report to this directory (default: from config)")
	resolveCmd.Flags().BoolVarP(&resolveQuiet, "quiet", "q", false, "only print diagnostics for failed manifests")

	rootCmd.AddCommand(resolveCmd)
}

// addRunFlags registers the resolver flags shared by resolve, validate and badge.
func addRunFlags(c *cobra.Command, f *runFlags) {
	c.Flags().BoolVar(&f.strict, "strict", false, "reject unknown manifest keys")
	c.Flags().BoolVar(&f.failFast, "fail-fast", false, "report only the first violation per manifest")
	c.Flags().BoolVar(&f.allowSecrets, "allow-secrets", false, "resolve manifests that embed signing secrets")
	c.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "concurrent manifests (default: from config, then one per CPU)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := ctxlog.FromContext(ctx)

	format := resolveFormat
	if format == "" {
		format = cfg.Output.Format
	}
	junitDir := resolveJUnit
	if junitDir == "" {
		junitDir = cfg.Output.JUnitDir
	}

	start := time.Now()
	reports, err := runPipeline(cmd, args, resolveFlags)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	color := output.UseColor()
	stderr := cmd.ErrOrStderr()
	output.SectionStart(stderr, "appforge_resolve", "Resolve")
	for _, r := range reports {
		if resolveQuiet && r.Err == nil {
			continue
		}
		output.DescriptorSection(stderr, r, color)
	}
	output.Summary(stderr, reports, elapsed, color)
	output.SectionEnd(stderr, "appforge_resolve")

	if junitDir != "" {
		if err := output.WriteJUnit(junitDir, reports, elapsed); err != nil {
			return err
		}
		log.Debug("junit report written", "dir", junitDir)
	}

	if n := failedCount(reports); n > 0 {
		return fmt.Errorf("%d of %d manifest(s) failed to resolve", n, len(reports))
	}

	items := make([]output.Named, len(reports))
	for i, r := range reports {
		items[i] = output.Named{Path: r.Path, Descriptor: r.Descriptor}
	}
	return output.Encode(cmd.OutOrStdout(), format, items)
}

// runPipeline builds the environment and resolver from config and flags and
// resolves the given manifests.
func runPipeline(cmd *cobra.Command, args []string, f runFlags) ([]output.Report, error) {
	ctx := cmd.Context()

	paths := manifestPaths(args)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no manifests given and none configured")
	}

	rootDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	env, err := buildEnvironment(ctx, cfg, os.Environ(), rootDir)
	if err != nil {
		return nil, err
	}
	resolver, err := newResolver(cfg, env, f)
	if err != nil {
		return nil, err
	}

	jobs := f.jobs
	if jobs == 0 {
		jobs = cfg.Resolve.Jobs
	}
	return resolveAll(ctx, resolver, paths, jobs, cfg.Secrets.Enabled, f.allowSecrets)
}
