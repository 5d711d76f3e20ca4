package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/appforge/src/config"
	"github.com/sofmeright/appforge/src/ctxlog"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "appforge",
	Short: "Build descriptor resolver",
	Long: `appforge turns a declarative mobile build manifest into a normalized,
validated build descriptor for the native packaging step.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := ctxlog.New(cmd.ErrOrStderr(), verbose)
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))

		// version prints without a project; migrate reads configs Load refuses.
		switch cmd.Name() {
		case "version", "migrate":
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		warnings, err := config.Validate(cfg)
		for _, w := range warnings {
			logger.Warn("config", "warning", w)
		}
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		logger.Debug("config loaded", "manifests", len(cfg.Manifests), "strict", cfg.Resolve.Strict)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .appforge.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
