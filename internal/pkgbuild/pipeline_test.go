package pkgbuild

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FPGAwars/verible-packager/internal/archive"
	"github.com/FPGAwars/verible-packager/internal/buildinfo"
	"github.com/FPGAwars/verible-packager/internal/config"
	"github.com/FPGAwars/verible-packager/internal/platform"
)

func TestPackageTag(t *testing.T) {
	for in, want := range map[string]string{
		"v1-2-3":  "v123",
		"v0.9.1":  "v0.9.1",
		"rel-tag": "reltag",
	} {
		if got := PackageTag(in); got != want {
			t.Errorf("PackageTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPackageFilename(t *testing.T) {
	got := PackageFilename("linux-x86-64", "v123")
	if !strings.HasPrefix(got, "apio-verible-linux-x86-64-") {
		t.Errorf("Filename prefix wrong: %s", got)
	}
	if !strings.HasSuffix(got, ".tar.gz") {
		t.Errorf("Filename suffix wrong: %s", got)
	}
	if got != "apio-verible-linux-x86-64-v123.tar.gz" {
		t.Errorf("Filename = %s", got)
	}
}

// upstreamServer serves a dummy archive for any request.
func upstreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dummy archive bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srvURL string) *config.Config {
	cfg := config.Default()
	cfg.DownloadBaseURL = srvURL
	return cfg
}

func writeBuildInfo(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build-info")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func newFakeRunner(t *testing.T, cfg *config.Config, platformID string) *fakeRunner {
	t.Helper()
	info, err := platform.Resolve(platformID, cfg.VeribleTag)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	rel, isDir := info.Marker()
	return &fakeRunner{
		t:           t,
		wrapperDir:  info.WrapperDir,
		markerRel:   rel,
		markerIsDir: isDir,
	}
}

func TestRunLinux(t *testing.T) {
	srv := upstreamServer(t)
	cfg := testConfig(srv.URL)
	runner := newFakeRunner(t, cfg, "linux-x86-64")
	work := t.TempDir()

	b := New(cfg, runner, quietFetcher())
	pkgPath, err := b.Run(context.Background(), Options{
		PlatformID:    "linux-x86-64",
		BuildInfoPath: writeBuildInfo(t, `{"release-tag": "v1-2-3"}`),
		PackageTag:    "",
		WorkDir:       work,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Final artifact at the documented path, tag hyphens stripped.
	want := filepath.Join(work, "_packages", "apio-verible-linux-x86-64-v123.tar.gz")
	if pkgPath != want {
		t.Errorf("Run path = %s, want %s", pkgPath, want)
	}
	if _, err := os.Stat(pkgPath); err != nil {
		t.Fatalf("Package missing: %v", err)
	}

	// Scratch dirs are gone after success.
	for _, dir := range []string{
		filepath.Join(work, "_upstream", "linux-x86-64"),
		filepath.Join(work, "_packages", "linux-x86-64"),
	} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("Scratch dir %s still exists", dir)
		}
	}

	// Non-windows packages keep the upstream layout: bin at the root.
	entries, err := archive.ListTarGz(pkgPath)
	if err != nil {
		t.Fatalf("ListTarGz failed: %v", err)
	}
	if !archive.HasEntry(entries, "bin/verible-verilog-ls") {
		t.Errorf("Missing bin/verible-verilog-ls in %v", entries)
	}
	if !archive.HasEntry(entries, "BUILD-INFO") {
		t.Error("Missing BUILD-INFO entry")
	}

	// Merged metadata keeps original keys and adds the documented ones.
	biContent := readTarGzEntry(t, pkgPath, "BUILD-INFO")
	for _, want := range []string{`"release-tag": "v1-2-3"`, `"target-platform": "linux-x86-64"`, `"file-name": "apio-verible-linux-x86-64-v123.tar.gz"`, `"build-id"`} {
		if !strings.Contains(biContent, want) {
			t.Errorf("BUILD-INFO missing %s:\n%s", want, biContent)
		}
	}
	if !strings.HasSuffix(biContent, "\n") {
		t.Error("BUILD-INFO has no trailing newline")
	}
}

func TestRunWindowsInsertsBinDir(t *testing.T) {
	srv := upstreamServer(t)
	cfg := testConfig(srv.URL)
	runner := newFakeRunner(t, cfg, "windows-amd64")
	work := t.TempDir()

	b := New(cfg, runner, quietFetcher())
	pkgPath, err := b.Run(context.Background(), Options{
		PlatformID:    "windows-amd64",
		BuildInfoPath: writeBuildInfo(t, "release-tag = v1-2-3\n"),
		WorkDir:       work,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	entries, err := archive.ListTarGz(pkgPath)
	if err != nil {
		t.Fatalf("ListTarGz failed: %v", err)
	}
	// The upstream exe lands under the inserted bin dir.
	if !archive.HasEntry(entries, "bin/verible-verilog-format.exe") {
		t.Errorf("Missing bin/verible-verilog-format.exe in %v", entries)
	}

	// Text metadata gets the text-variant keys appended.
	biContent := readTarGzEntry(t, pkgPath, "BUILD-INFO")
	for _, want := range []string{"release-tag = v1-2-3", "platform-id = windows-amd64", "verible-tag = " + cfg.VeribleTag} {
		if !strings.Contains(biContent, want) {
			t.Errorf("BUILD-INFO missing %q:\n%s", want, biContent)
		}
	}
}

func TestRunPackageTagOverride(t *testing.T) {
	srv := upstreamServer(t)
	cfg := testConfig(srv.URL)
	runner := newFakeRunner(t, cfg, "darwin-arm64")
	work := t.TempDir()

	b := New(cfg, runner, quietFetcher())
	pkgPath, err := b.Run(context.Background(), Options{
		PlatformID:    "darwin-arm64",
		BuildInfoPath: writeBuildInfo(t, `{"release-tag": "ignored-tag"}`),
		PackageTag:    "custom",
		WorkDir:       work,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if filepath.Base(pkgPath) != "apio-verible-darwin-arm64-custom.tar.gz" {
		t.Errorf("Package name = %s", filepath.Base(pkgPath))
	}
}

func TestRunUnsupportedPlatform(t *testing.T) {
	cfg := config.Default()
	b := New(cfg, &fakeRunner{t: t}, quietFetcher())

	_, err := b.Run(context.Background(), Options{
		PlatformID:    "freebsd-riscv",
		BuildInfoPath: writeBuildInfo(t, "{}"),
		WorkDir:       t.TempDir(),
	})
	if err == nil {
		t.Fatal("Expected lookup error")
	}
}

func TestRunMissingBuildInfo(t *testing.T) {
	cfg := config.Default()
	b := New(cfg, &fakeRunner{t: t}, quietFetcher())

	_, err := b.Run(context.Background(), Options{
		PlatformID:    "linux-x86-64",
		BuildInfoPath: filepath.Join(t.TempDir(), "missing"),
		WorkDir:       t.TempDir(),
	})
	if err == nil {
		t.Fatal("Expected error for missing build info file")
	}
}

func TestRunNoReleaseTag(t *testing.T) {
	cfg := config.Default()
	b := New(cfg, &fakeRunner{t: t}, quietFetcher())

	_, err := b.Run(context.Background(), Options{
		PlatformID:    "linux-x86-64",
		BuildInfoPath: writeBuildInfo(t, `{"builder": "ci"}`),
		WorkDir:       t.TempDir(),
	})
	if err == nil || !strings.Contains(err.Error(), "package tag") {
		t.Fatalf("Expected package tag derivation error, got %v", err)
	}
}

func TestRunAbortsWhenMarkerMissing(t *testing.T) {
	srv := upstreamServer(t)
	cfg := testConfig(srv.URL)
	runner := newFakeRunner(t, cfg, "linux-x86-64")
	runner.failExtract = true
	work := t.TempDir()

	b := New(cfg, runner, quietFetcher())
	_, err := b.Run(context.Background(), Options{
		PlatformID:    "linux-x86-64",
		BuildInfoPath: writeBuildInfo(t, `{"release-tag": "v1"}`),
		WorkDir:       work,
	})
	if err == nil {
		t.Fatal("Expected abort for missing extraction marker")
	}

	// The pipeline never reached repackaging: no final archive, no rsync.
	if _, statErr := os.Stat(filepath.Join(work, "_packages", "apio-verible-linux-x86-64-v1.tar.gz")); !os.IsNotExist(statErr) {
		t.Error("Package should not have been produced")
	}
	for _, run := range runner.runs {
		if strings.HasPrefix(run, "rsync") {
			t.Error("Repackaging ran despite failed extraction")
		}
	}
}

func TestRunFetchFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	cfg := testConfig(srv.URL)
	runner := newFakeRunner(t, cfg, "linux-x86-64")

	b := New(cfg, runner, quietFetcher())
	_, err := b.Run(context.Background(), Options{
		PlatformID:    "linux-x86-64",
		BuildInfoPath: writeBuildInfo(t, `{"release-tag": "v1"}`),
		WorkDir:       t.TempDir(),
	})
	if err == nil {
		t.Fatal("Expected fetch error to abort the run")
	}
	if len(runner.runs) != 0 {
		t.Errorf("No tool should have run, got %v", runner.runs)
	}
}

func TestRunAutoSniffsTextBuildInfo(t *testing.T) {
	srv := upstreamServer(t)
	cfg := testConfig(srv.URL)
	runner := newFakeRunner(t, cfg, "linux-aarch64")
	work := t.TempDir()

	b := New(cfg, runner, quietFetcher())
	pkgPath, err := b.Run(context.Background(), Options{
		PlatformID:      "linux-aarch64",
		BuildInfoPath:   writeBuildInfo(t, "release-tag = v9-9\n"),
		BuildInfoFormat: buildinfo.FormatAuto,
		WorkDir:         work,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if filepath.Base(pkgPath) != "apio-verible-linux-aarch64-v99.tar.gz" {
		t.Errorf("Package name = %s", filepath.Base(pkgPath))
	}
}
