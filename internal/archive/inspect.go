// Package archive provides read-side inspection of generated .tar.gz
// packages. Creating and extracting archives stays with the external
// tools; this package only verifies what they produced.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Entry describes one member of a package archive.
type Entry struct {
	// Name is the member path with any leading "./" stripped.
	Name string
	Size int64
	Dir  bool
	// Linkname is set for symbolic links.
	Linkname string
}

// ListTarGz opens a gzip-compressed tar file and returns its entries.
func ListTarGz(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open package %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read gzip stream of %s: %w", path, err)
	}
	defer gz.Close()

	var entries []Entry
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar stream of %s: %w", path, err)
		}
		entries = append(entries, Entry{
			Name:     normalize(hdr.Name),
			Size:     hdr.Size,
			Dir:      hdr.Typeflag == tar.TypeDir,
			Linkname: hdr.Linkname,
		})
	}
	return entries, nil
}

// HasEntry reports whether an entry with the given normalized name exists.
func HasEntry(entries []Entry, name string) bool {
	name = normalize(name)
	for _, e := range entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

// normalize strips the "./" prefix that 'tar zcf ... ./*' puts on member
// names, and any trailing slash on directories.
func normalize(name string) string {
	name = strings.TrimPrefix(name, "./")
	return strings.TrimSuffix(name, "/")
}
