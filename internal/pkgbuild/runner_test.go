package pkgbuild

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/FPGAwars/verible-packager/internal/fetch"
)

// fakeRunner emulates the external tools (tar/unzip extraction, rsync,
// tar compression) with plain filesystem operations so pipeline tests run
// without the host tools.
type fakeRunner struct {
	t *testing.T

	// wrapperDir and markerRel describe the tree that "extraction"
	// produces. markerIsDir selects dir vs file marker.
	wrapperDir  string
	markerRel   string
	markerIsDir bool

	// failExtract makes the extraction produce nothing.
	failExtract bool

	runs []string
}

func (r *fakeRunner) Run(dir string, argv ...string) error {
	r.runs = append(r.runs, strings.Join(argv, " "))

	switch argv[0] {
	case "tar", "unzip":
		if r.failExtract {
			return nil // tool "succeeded" but produced nothing
		}
		marker := filepath.Join(dir, r.wrapperDir, r.markerRel)
		if r.markerIsDir {
			if err := os.MkdirAll(marker, 0755); err != nil {
				return err
			}
			// A binary inside the bin dir.
			return os.WriteFile(filepath.Join(marker, "verible-verilog-ls"), []byte("elf"), 0755)
		}
		if err := os.MkdirAll(filepath.Join(dir, r.wrapperDir), 0755); err != nil {
			return err
		}
		return os.WriteFile(marker, []byte("exe"), 0755)

	case "rsync":
		src := strings.TrimSuffix(argv[len(argv)-2], "/")
		dst := strings.TrimSuffix(argv[len(argv)-1], "/")
		if err := os.MkdirAll(dst, 0755); err != nil {
			return err
		}
		return os.CopyFS(dst, os.DirFS(src))

	default:
		return fmt.Errorf("fake runner: unexpected command %v", argv)
	}
}

func (r *fakeRunner) RunShell(dir string, cmdStr string) error {
	r.runs = append(r.runs, cmdStr)

	// Only "tar zcf ../NAME ./*" is expected.
	fields := strings.Fields(cmdStr)
	if len(fields) != 4 || fields[0] != "tar" || fields[1] != "zcf" {
		return fmt.Errorf("fake runner: unexpected shell command %q", cmdStr)
	}
	out := filepath.Join(dir, fields[2])
	return tarGzDir(out, dir)
}

// tarGzDir compresses the contents of dir (with "./" prefixed member
// names, like the real tar invocation) into a tar.gz at out.
func tarGzDir(out, dir string) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = "./" + filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// readTarGzEntry returns the content of one member of a tar.gz file.
func readTarGzEntry(t *testing.T, path, name string) string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader failed: %v", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar.Next failed: %v", err)
		}
		if strings.TrimPrefix(hdr.Name, "./") == name {
			data, err := io.ReadAll(tr)
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			return string(data)
		}
	}
	t.Fatalf("entry %s not found in %s", name, path)
	return ""
}

func quietFetcher() *fetch.Fetcher {
	return &fetch.Fetcher{Client: http.DefaultClient, Quiet: true}
}
