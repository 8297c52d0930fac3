package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FetchReport collects the upstream URLs downloaded during a run so the
// CI workflow can archive the provenance of each package.
type FetchReport struct {
	mu    sync.Mutex
	Title string
	Items []string
}

var globalFetchReport = FetchReport{Title: "FetchedFiles"}

// RecordFetched appends a downloaded URL to the global fetch report.
func RecordFetched(url string) {
	globalFetchReport.mu.Lock()
	defer globalFetchReport.mu.Unlock()
	globalFetchReport.Items = append(globalFetchReport.Items, url)
}

// WriteFetchReport writes the collected URLs to dir/fetched-<title>.txt,
// appending one line per URL, and resets the report.
func WriteFetchReport(dir string) error {
	globalFetchReport.mu.Lock()
	defer globalFetchReport.mu.Unlock()

	if len(globalFetchReport.Items) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating report path: %w", err)
	}

	title := globalFetchReport.Title
	if title == "" {
		title = "untitled"
	}
	safeTitle := ""
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			safeTitle += string(r)
		} else {
			safeTitle += "_"
		}
	}

	reportFullPath := filepath.Join(dir, fmt.Sprintf("fetched-%s.txt", safeTitle))

	f, err := os.OpenFile(reportFullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening report file: %w", err)
	}
	defer f.Close()

	for _, item := range globalFetchReport.Items {
		if _, err := fmt.Fprintln(f, item); err != nil {
			return fmt.Errorf("writing report file: %w", err)
		}
	}

	globalFetchReport.Items = nil
	return nil
}
