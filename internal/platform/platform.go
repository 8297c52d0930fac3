package platform

import (
	"fmt"
	"path/filepath"
	"sort"
)

// DefaultVeribleTag is the upstream release used when no tag is configured.
// See the list at https://github.com/chipsalliance/verible/releases
const DefaultVeribleTag = "v0.0-3862-g936dfb1d"

// DefaultDownloadBaseURL is where the upstream release archives live.
const DefaultDownloadBaseURL = "https://github.com/chipsalliance/verible/releases/download"

// windowsMarkerFile is the executable used to validate the extracted
// windows archive, which ships without a 'bin' directory.
const windowsMarkerFile = "verible-verilog-format.exe"

// Info describes the upstream Verible artifact for one apio platform.
type Info struct {
	// ID is the apio platform code, e.g. "linux-x86-64".
	ID string
	// BaseFilename is the upstream archive name without extension.
	BaseFilename string
	// Ext is the archive extension, "tar.gz" or "zip".
	Ext string
	// WrapperDir is the single top-level directory the archive extracts to.
	WrapperDir string
	// UnarchiveCmd is the extraction command, without the archive name.
	UnarchiveCmd []string
}

var (
	tarCmd = []string{"tar", "zxf"}
	zipCmd = []string{"unzip"}
)

// Resolve maps an apio platform code to the upstream artifact metadata for
// the given Verible release tag. Unknown codes return a lookup error.
func Resolve(platformID, veribleTag string) (Info, error) {
	switch platformID {
	case "darwin-arm64", "darwin-x86-64":
		base := fmt.Sprintf("verible-%s-macOS", veribleTag)
		return Info{
			ID:           platformID,
			BaseFilename: base,
			Ext:          "tar.gz",
			WrapperDir:   base,
			UnarchiveCmd: tarCmd,
		}, nil
	case "linux-x86-64":
		return Info{
			ID:           platformID,
			BaseFilename: fmt.Sprintf("verible-%s-linux-static-x86_64", veribleTag),
			Ext:          "tar.gz",
			WrapperDir:   fmt.Sprintf("verible-%s", veribleTag),
			UnarchiveCmd: tarCmd,
		}, nil
	case "linux-aarch64":
		return Info{
			ID:           platformID,
			BaseFilename: fmt.Sprintf("verible-%s-linux-static-arm64", veribleTag),
			Ext:          "tar.gz",
			WrapperDir:   fmt.Sprintf("verible-%s", veribleTag),
			UnarchiveCmd: tarCmd,
		}, nil
	case "windows-amd64":
		base := fmt.Sprintf("verible-%s-win64", veribleTag)
		return Info{
			ID:           platformID,
			BaseFilename: base,
			Ext:          "zip",
			WrapperDir:   base,
			UnarchiveCmd: zipCmd,
		}, nil
	default:
		return Info{}, fmt.Errorf("unsupported platform: %s", platformID)
	}
}

// IDs returns the supported platform codes in sorted order.
func IDs() []string {
	ids := []string{
		"darwin-arm64",
		"darwin-x86-64",
		"linux-x86-64",
		"linux-aarch64",
		"windows-amd64",
	}
	sort.Strings(ids)
	return ids
}

// IsWindows reports whether this is the windows platform variant.
func (i Info) IsWindows() bool {
	return i.ID == "windows-amd64"
}

// ArchiveName returns the upstream archive file name.
func (i Info) ArchiveName() string {
	return i.BaseFilename + "." + i.Ext
}

// DownloadURL returns the release download URL for the archive.
func (i Info) DownloadURL(baseURL, veribleTag string) string {
	return baseURL + "/" + veribleTag + "/" + i.ArchiveName()
}

// Marker returns the path, relative to the wrapper directory, whose
// existence validates a successful extraction, and whether it is a
// directory. The windows archive has no 'bin' dir, so a known executable
// is checked instead.
func (i Info) Marker() (relPath string, isDir bool) {
	if i.IsWindows() {
		return windowsMarkerFile, false
	}
	return "bin", true
}

// MarkerPath returns the marker path under the given extraction root.
func (i Info) MarkerPath(extractedRoot string) string {
	rel, _ := i.Marker()
	return filepath.Join(extractedRoot, i.WrapperDir, rel)
}
