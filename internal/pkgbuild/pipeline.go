// Package pkgbuild drives the packaging pipeline: resolve platform
// metadata, fetch the upstream archive, unpack it, and repackage it with
// build metadata into the final distributable.
package pkgbuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/FPGAwars/verible-packager/internal/archive"
	"github.com/FPGAwars/verible-packager/internal/buildinfo"
	"github.com/FPGAwars/verible-packager/internal/config"
	"github.com/FPGAwars/verible-packager/internal/fetch"
	"github.com/FPGAwars/verible-packager/internal/platform"
	"github.com/FPGAwars/verible-packager/internal/utils/logger"
	"github.com/FPGAwars/verible-packager/internal/utils/shell"
)

// Options are the per-run parameters of the pipeline.
type Options struct {
	// PlatformID is the apio platform code to build for.
	PlatformID string
	// BuildInfoPath is the build metadata input file.
	BuildInfoPath string
	// BuildInfoFormat selects the metadata representation.
	BuildInfoFormat buildinfo.Format
	// PackageTag overrides the tag in the package file name. When empty
	// it is derived from the build info release tag.
	PackageTag string
	// WorkDir is the directory that the scratch and output trees hang
	// off. Empty means the current directory.
	WorkDir string
}

// Builder runs the pipeline for one platform at a time. Concurrent runs
// for the same platform share scratch directories and must be serialized
// by the caller.
type Builder struct {
	cfg     *config.Config
	runner  shell.Runner
	fetcher *fetch.Fetcher
}

// New creates a Builder.
func New(cfg *config.Config, runner shell.Runner, fetcher *fetch.Fetcher) *Builder {
	return &Builder{cfg: cfg, runner: runner, fetcher: fetcher}
}

// PackageTag derives the package tag from a release tag by stripping
// hyphens, e.g. "v1-2-3" becomes "v123".
func PackageTag(releaseTag string) string {
	return strings.ReplaceAll(releaseTag, "-", "")
}

// PackageFilename returns the final package file name for a platform.
func PackageFilename(platformID, packageTag string) string {
	return "apio-verible-" + platformID + "-" + packageTag + ".tar.gz"
}

// Run executes the whole pipeline and returns the path of the produced
// package. Any failure aborts the run; scratch directories may be left
// behind and the run must be restarted from scratch.
func (b *Builder) Run(ctx context.Context, opts Options) (string, error) {
	log := logger.Logger()
	runID := uuid.NewString()

	info, err := platform.Resolve(opts.PlatformID, b.cfg.VeribleTag)
	if err != nil {
		return "", err
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	paths, err := config.NewPaths(b.cfg, workDir)
	if err != nil {
		return "", err
	}

	log.Infof("apio verible packager")
	log.Infof("  build id:        %s", runID)
	log.Infof("  platform id:     %s", info.ID)
	log.Infof("  verible tag:     %s", b.cfg.VeribleTag)
	log.Infof("  build info file: %s", opts.BuildInfoPath)

	// The metadata file must be usable before any network work starts.
	bi, err := buildinfo.Load(opts.BuildInfoPath, opts.BuildInfoFormat)
	if err != nil {
		return "", err
	}

	packageTag := opts.PackageTag
	if packageTag == "" {
		releaseTag, err := bi.ReleaseTag()
		if err != nil {
			return "", fmt.Errorf("deriving package tag: %w", err)
		}
		packageTag = PackageTag(releaseTag)
	}
	packageFilename := PackageFilename(info.ID, packageTag)
	log.Infof("  package file:    %s", packageFilename)

	if err := paths.CreateScratchDirs(info.ID); err != nil {
		return "", err
	}

	archivePath, err := b.fetchUpstream(ctx, info, paths)
	if err != nil {
		return "", err
	}

	if err := b.unpack(paths.UpstreamDir(info.ID), archivePath, info); err != nil {
		return "", err
	}

	if err := b.repackage(paths, info, bi, packageFilename, runID); err != nil {
		return "", err
	}

	// Terminal success check: the package is in place and readable.
	packagePath := paths.PackagePath(packageFilename)
	if _, err := os.Stat(packagePath); err != nil {
		return "", fmt.Errorf("package %s was not produced: %w", packagePath, err)
	}
	entries, err := archive.ListTarGz(packagePath)
	if err != nil {
		return "", fmt.Errorf("package %s is not readable: %w", packagePath, err)
	}
	if !archive.HasEntry(entries, "BUILD-INFO") {
		return "", fmt.Errorf("package %s has no BUILD-INFO entry", packagePath)
	}

	if err := logger.WriteFetchReport(filepath.Join(paths.WorkDir(), "builds")); err != nil {
		log.Warnf("writing fetch report: %v", err)
	}

	log.Infof("package ready: %s", packagePath)
	return packagePath, nil
}

// fetchUpstream downloads the platform's release archive, and its
// detached signature when verification is configured.
func (b *Builder) fetchUpstream(ctx context.Context, info platform.Info, paths *config.Paths) (string, error) {
	url := info.DownloadURL(b.cfg.DownloadBaseURL, b.cfg.VeribleTag)
	upstreamDir := paths.UpstreamDir(info.ID)

	archivePath, err := b.fetcher.Fetch(ctx, url, upstreamDir)
	if err != nil {
		return "", err
	}

	if b.cfg.Verify.KeyFile != "" {
		sigPath, err := b.fetcher.Fetch(ctx, url+b.cfg.Verify.SignatureSuffix, upstreamDir)
		if err != nil {
			return "", fmt.Errorf("fetching signature: %w", err)
		}
		if err := fetch.VerifyDetachedSignature(archivePath, sigPath, b.cfg.Verify.KeyFile); err != nil {
			return "", err
		}
		if err := os.Remove(sigPath); err != nil {
			return "", fmt.Errorf("removing signature: %w", err)
		}
	}

	return archivePath, nil
}
