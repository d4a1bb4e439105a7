package dataset

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// mnistBaseURL is the CVDF mirror of the original LeCun distribution.
const mnistBaseURL = "https://storage.googleapis.com/cvdf-datasets/mnist/"

const downloadTimeout = 5 * time.Minute

// Download fetches url into dest. Gzipped sources (.gz suffix) are
// decompressed on the way down. The file is written under a temp name
// and renamed into place so a partial download never shadows dest; an
// existing dest is left untouched.
func Download(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: status %s", url, resp.Status)
	}

	var body io.Reader = resp.Body
	if strings.HasSuffix(url, ".gz") && !strings.HasSuffix(dest, ".gz") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// DownloadAll fetches several files concurrently into destDir. files
// maps destination file names to source URLs. The first failure cancels
// the remaining fetches.
func DownloadAll(ctx context.Context, destDir string, files map[string]string) error {
	g, ctx := errgroup.WithContext(ctx)
	for name, url := range files {
		g.Go(func() error {
			return Download(ctx, url, filepath.Join(destDir, name))
		})
	}
	return g.Wait()
}

// DownloadMNIST fetches the four official MNIST files into dataDir,
// decompressed and named the way LoadMNISTIDX expects.
func DownloadMNIST(ctx context.Context, dataDir string) error {
	files := map[string]string{
		mnistTrainImages: mnistBaseURL + mnistTrainImages + ".gz",
		mnistTrainLabels: mnistBaseURL + mnistTrainLabels + ".gz",
		mnistTestImages:  mnistBaseURL + mnistTestImages + ".gz",
		mnistTestLabels:  mnistBaseURL + mnistTestLabels + ".gz",
	}
	return DownloadAll(ctx, dataDir, files)
}
