// scraper/dump_fetcher.go
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/samber/lo"

	"github.com/kyipho/wikilynx/models"
)

// Artifact is a dump downloaded into scratch storage during the current run.
type Artifact struct {
	Table models.TableDescriptor
	Path  string
	Bytes int64
}

// DumpFetcher downloads stale dumps into a ScratchDir.
type DumpFetcher struct {
	baseURL string
	client  *http.Client
	scratch *ScratchDir
	logger  *slog.Logger
}

// NewDumpFetcher downloads "{baseURL}{file_name}". baseURL must end in "/".
func NewDumpFetcher(baseURL string, timeout time.Duration, scratch *ScratchDir, logger *slog.Logger) *DumpFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DumpFetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		scratch: scratch,
		logger:  logger,
	}
}

// Fetch downloads every table flagged stale, in catalog order. Fresh tables
// cost no request. The first failure stops the batch with ErrDownload; files
// already downloaded are left for the caller to consume or sweep.
func (f *DumpFetcher) Fetch(ctx context.Context, catalog *models.Catalog, flags models.StalenessFlags) ([]Artifact, error) {
	stale := lo.Filter(catalog.Tables(), func(td models.TableDescriptor, _ int) bool {
		return flags[td.Name]
	})

	artifacts := make([]Artifact, 0, len(stale))
	for _, td := range stale {
		url := f.baseURL + td.FileName
		f.logger.Info("Scraper: attempting to download dump", "file", td.FileName)

		n, err := f.download(ctx, url, td.FileName)
		if err != nil {
			f.logger.Error("Scraper: dump could not be downloaded", "file", td.FileName, "error", err)
			return artifacts, models.NewRefreshError(models.ErrDownload, td.Name, err)
		}

		f.logger.Info("Scraper: downloaded dump", "file", td.FileName, "bytes", n)
		artifacts = append(artifacts, Artifact{Table: td, Path: f.scratch.Path(td.FileName), Bytes: n})
	}
	return artifacts, nil
}

// download streams url into scratch storage, removing the partial file on failure.
func (f *DumpFetcher) download(ctx context.Context, url, fileName string) (n int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to make GET request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to download file from %s: received status code %d", url, resp.StatusCode)
	}

	outFile, err := f.scratch.Create(fileName)
	if err != nil {
		return 0, fmt.Errorf("failed to create local file %s: %w", f.scratch.Path(fileName), err)
	}
	defer func() {
		if cerr := outFile.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", f.scratch.Path(fileName), cerr)
		}
		if err != nil {
			_ = os.Remove(f.scratch.Path(fileName))
		}
	}()

	n, err = io.Copy(outFile, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to copy downloaded content to %s: %w", f.scratch.Path(fileName), err)
	}
	return n, nil
}
