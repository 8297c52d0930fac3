package pkgbuild

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/FPGAwars/verible-packager/internal/buildinfo"
	"github.com/FPGAwars/verible-packager/internal/config"
	"github.com/FPGAwars/verible-packager/internal/platform"
	"github.com/FPGAwars/verible-packager/internal/utils/logger"
)

// buildInfoFilename is the metadata file shipped inside every package.
const buildInfoFilename = "BUILD-INFO"

// repackage copies the extracted tree into the package scratch dir,
// normalizing the windows layout, merges the platform keys into the build
// metadata, compresses the result and removes the scratch trees.
func (b *Builder) repackage(paths *config.Paths, info platform.Info, bi *buildinfo.Info, packageFilename, runID string) error {
	log := logger.Logger()

	upstreamDir := paths.UpstreamDir(info.ID)
	pkgDir := paths.PackageScratchDir(info.ID)
	wrapper := filepath.Join(upstreamDir, info.WrapperDir)

	// The windows archive ships its executables at the wrapper root;
	// insert the missing 'bin' dir so all packages share one layout.
	dst := pkgDir
	if info.IsWindows() {
		dst = filepath.Join(pkgDir, "bin")
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	// rsync copies everything including symlinks. The trailing "/" on
	// both paths matters.
	log.Infof("copying package files to %s", dst)
	if err := b.runner.Run("", "rsync", "-aq", wrapper+"/", dst+"/"); err != nil {
		return fmt.Errorf("copying package files: %w", err)
	}

	// The upstream scratch tree is no longer needed; drop it to avoid
	// double storage.
	if err := os.RemoveAll(upstreamDir); err != nil {
		return fmt.Errorf("removing upstream dir %s: %w", upstreamDir, err)
	}

	if bi.Format() == buildinfo.FormatJSON {
		bi.Set("target-platform", info.ID)
		bi.Set("file-name", packageFilename)
	} else {
		bi.Set("platform-id", info.ID)
		bi.Set("verible-tag", b.cfg.VeribleTag)
	}
	bi.Set("build-id", runID)

	buildInfoPath := filepath.Join(pkgDir, buildInfoFilename)
	if err := bi.WriteFile(buildInfoPath); err != nil {
		return err
	}
	if _, err := os.Stat(buildInfoPath); err != nil {
		return fmt.Errorf("build info was not written: %w", err)
	}

	// Compress the package dir's contents, not the dir itself. The shell
	// expands the '*' glob.
	log.Infof("compressing the package")
	cmdStr := fmt.Sprintf("tar zcf ../%s ./*", packageFilename)
	if err := b.runner.RunShell(pkgDir, cmdStr); err != nil {
		return fmt.Errorf("compressing package: %w", err)
	}

	if err := os.RemoveAll(pkgDir); err != nil {
		return fmt.Errorf("removing package dir %s: %w", pkgDir, err)
	}

	return nil
}
