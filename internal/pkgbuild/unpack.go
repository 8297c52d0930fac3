package pkgbuild

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/FPGAwars/verible-packager/internal/platform"
	"github.com/FPGAwars/verible-packager/internal/utils/logger"
)

// unpack extracts the downloaded archive inside upstreamDir with the
// platform's unarchive command, deletes the archive, and asserts that the
// extraction produced the expected layout.
func (b *Builder) unpack(upstreamDir, archivePath string, info platform.Info) error {
	log := logger.Logger()
	log.Infof("extracting %s", info.ArchiveName())

	argv := append(append([]string{}, info.UnarchiveCmd...), info.ArchiveName())
	if err := b.runner.Run(upstreamDir, argv...); err != nil {
		return fmt.Errorf("extracting %s: %w", info.ArchiveName(), err)
	}

	// The archive is not needed anymore.
	if err := os.Remove(archivePath); err != nil {
		return fmt.Errorf("removing archive %s: %w", archivePath, err)
	}

	// Structural check: the wrapper dir holds the expected marker.
	markerRel, wantDir := info.Marker()
	marker := info.MarkerPath(upstreamDir)
	fi, err := os.Stat(marker)
	if err != nil {
		return fmt.Errorf("extraction of %s did not produce %s: %w",
			info.ArchiveName(), filepath.Join(info.WrapperDir, markerRel), err)
	}
	if fi.IsDir() != wantDir {
		return fmt.Errorf("extraction marker %s has wrong type", marker)
	}

	return nil
}
