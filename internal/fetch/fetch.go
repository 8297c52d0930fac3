// Package fetch downloads the upstream release archive.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/FPGAwars/verible-packager/internal/utils/logger"
)

// Fetcher downloads release artifacts over HTTP. A single failed download
// aborts the pipeline; there is no retry policy.
type Fetcher struct {
	Client *http.Client
	// Quiet disables the progress bar (used in tests and CI logs).
	Quiet bool
}

// New returns a Fetcher using the hardened HTTP client.
func New() *Fetcher {
	return &Fetcher{Client: NewSecureHTTPClient()}
}

// Fetch downloads url into destDir and returns the local file path. The
// file name is the last URL path element.
func (f *Fetcher) Fetch(ctx context.Context, url string, destDir string) (string, error) {
	log := logger.Logger()
	name := path.Base(url)
	log.Infof("downloading %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: bad status: %s", url, resp.Status)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", destDir, err)
	}

	destPath := filepath.Join(destDir, name)
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer out.Close()

	var w io.Writer = out
	if !f.Quiet {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetDescription(fmt.Sprintf("downloading %s", name)),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
		defer bar.Finish()
		w = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("writing %s: %w", destPath, err)
	}

	logger.RecordFetched(url)
	log.Infof("downloaded %s", destPath)
	return destPath, nil
}
