package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sofmeright/appforge/src/buildenv"
	"github.com/sofmeright/appforge/src/output"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the build environment manifests inherit from",
	Long: `Print the inherited values and signing profiles the resolver would use,
after APPFORGE_* variables, config and (if enabled) git history are applied.`,
	Args: cobra.NoArgs,
	RunE: runEnv,
}

func init() {
	rootCmd.AddCommand(envCmd)
}

func runEnv(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	env, err := buildEnvironment(cmd.Context(), cfg, os.Environ(), rootDir)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	output.ContextBlock(w, environmentRows(env))

	color := output.UseColor()
	sec := output.NewSection(w, "Signing", 0, color)
	for _, name := range []string{"debug", "release"} {
		p, ok := env.Profiles.Lookup(name)
		if !ok {
			sec.Row("%s %-10s %s", output.StatusIcon("skipped", color), name, "not declared")
			continue
		}
		creds := "no credentials"
		if p.HasCredentials {
			creds = "credentials set"
		}
		sec.Row("%s %-10s %s (%s)", output.StatusIcon("success", color), name, orUnset(p.Keystore), creds)
	}
	sec.Close()
	return nil
}

func environmentRows(env buildenv.Environment) []output.KV {
	num := func(n int) string {
		if n == 0 {
			return "-"
		}
		return strconv.Itoa(n)
	}
	return []output.KV{
		{Key: "namespace", Value: env.Namespace()},
		{Key: "code", Value: num(env.VersionCode)},
		{Key: "name", Value: orUnset(env.VersionName)},
		{Key: "compile", Value: num(env.CompilePlatformVersion)},
		{Key: "min", Value: num(env.MinPlatformVersion)},
		{Key: "target", Value: num(env.TargetPlatformVersion)},
		{Key: "ndk", Value: orUnset(env.ToolchainVersion)},
	}
}

func orUnset(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
