package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths provides convenient access to the scratch and output directories
// for one pipeline run.
type Paths struct {
	workDir string
	config  *Config
}

// NewPaths creates a Paths helper rooted at workDir.
func NewPaths(config *Config, workDir string) (*Paths, error) {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolving work directory: %w", err)
	}
	return &Paths{workDir: abs, config: config}, nil
}

// WorkDir returns the absolute work directory.
func (p *Paths) WorkDir() string {
	return p.workDir
}

// UpstreamDir returns the scratch directory for the platform's downloaded
// archive.
func (p *Paths) UpstreamDir(platformID string) string {
	return filepath.Join(p.workDir, p.config.UpstreamDir, platformID)
}

// PackageScratchDir returns the scratch directory where the package tree
// is assembled before compression.
func (p *Paths) PackageScratchDir(platformID string) string {
	return filepath.Join(p.workDir, p.config.PackagesDir, platformID)
}

// PackagesDir returns the directory that receives the final package file.
func (p *Paths) PackagesDir() string {
	return filepath.Join(p.workDir, p.config.PackagesDir)
}

// PackagePath returns the final package file path.
func (p *Paths) PackagePath(packageFilename string) string {
	return filepath.Join(p.PackagesDir(), packageFilename)
}

// CreateScratchDirs ensures the per-platform scratch directories exist.
func (p *Paths) CreateScratchDirs(platformID string) error {
	for _, dir := range []string{p.UpstreamDir(platformID), p.PackageScratchDir(platformID)} {
		if err := createDirIfNotExists(dir); err != nil {
			return fmt.Errorf("creating scratch directory %s: %w", dir, err)
		}
	}
	return nil
}

// Helper function to create directories
func createDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
