// verible-packager builds the apio Verible package for one target
// platform: it downloads the upstream release archive, normalizes its
// layout, merges build metadata and compresses the distributable.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FPGAwars/verible-packager/internal/config"
	"github.com/FPGAwars/verible-packager/internal/utils/logger"
)

const toolVersion = "0.2.0"

var (
	cfgFile  string
	logLevel string

	cfg = config.Default()
)

func main() {
	if err := createRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "verible-packager",
		Short: "builds the apio Verible package for a target platform",
		Long: `verible-packager fetches a prebuilt Verible release archive for a
given apio platform, restructures its directory layout, merges in build
metadata and recompresses it as a distributable package.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Optional YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("verbose", false,
		"Shorthand for --log-level debug")

	rootCmd.AddCommand(createBuildCommand())
	rootCmd.AddCommand(createPlatformsCommand())
	rootCmd.AddCommand(createInspectCommand())
	rootCmd.AddCommand(createVersionCommand())
	return rootCmd
}

// setup loads the configuration file and configures the logger before any
// subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	level := resolveRequestedLogLevel(cmd)
	if level == "" {
		level = cfg.Logging.Level
	}
	return logger.Init(level)
}

// resolveRequestedLogLevel picks the log level from the flags: an explicit
// --log-level wins, --verbose maps to debug, otherwise empty.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd == nil {
		return ""
	}
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		return "debug"
	}
	return ""
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "prints the tool version and the default upstream tag",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "verible-packager %s (verible %s)\n",
				toolVersion, cfg.VeribleTag)
		},
	}
}
