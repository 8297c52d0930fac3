package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FPGAwars/verible-packager/internal/buildinfo"
	"github.com/FPGAwars/verible-packager/internal/fetch"
	"github.com/FPGAwars/verible-packager/internal/pkgbuild"
	"github.com/FPGAwars/verible-packager/internal/utils/shell"
)

// Build command flags
var (
	platformID      string
	buildInfoFile   string
	packageTag      string
	buildInfoFormat string
	workDir         string
)

// createBuildCommand creates the build subcommand
func createBuildCommand() *cobra.Command {
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "runs the packaging pipeline for one platform",
		Long: `Build downloads the upstream Verible archive for the given
platform, extracts it, normalizes the layout, merges the build metadata
and writes the final package under _packages/.`,
		Args: cobra.NoArgs,
		RunE: executeBuild,
	}

	buildCmd.Flags().StringVar(&platformID, "platform-id", "",
		"Platform to build (required)")
	buildCmd.Flags().StringVar(&buildInfoFile, "build-info", "",
		"File with build properties (required)")
	buildCmd.Flags().StringVar(&packageTag, "package-tag", "",
		"Package file name tag (default: release tag with hyphens stripped)")
	buildCmd.Flags().StringVar(&buildInfoFormat, "build-info-format", "",
		"Build info format: auto, json or text")
	buildCmd.Flags().StringVar(&workDir, "work-dir", "",
		"Directory holding the scratch and output trees (default: current)")

	_ = buildCmd.MarkFlagRequired("platform-id")
	_ = buildCmd.MarkFlagRequired("build-info")
	return buildCmd
}

// executeBuild handles the build command execution logic
func executeBuild(cmd *cobra.Command, _ []string) error {
	formatFlag := buildInfoFormat
	if formatFlag == "" {
		formatFlag = cfg.BuildInfoFormat
	}
	format, err := buildinfo.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	builder := pkgbuild.New(cfg, shell.NewExecRunner(), fetch.New())
	packagePath, err := builder.Run(cmd.Context(), pkgbuild.Options{
		PlatformID:      platformID,
		BuildInfoPath:   buildInfoFile,
		BuildInfoFormat: format,
		PackageTag:      packageTag,
		WorkDir:         workDir,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), packagePath)
	return nil
}
