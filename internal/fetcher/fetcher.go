// Package fetcher lists and downloads the versioned tarballs DILA
// publishes per fond, grounded on original_source/src/dumps/tarballs.rs's
// get_tarballs/download_tarball_list.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/standardbeagle/dilasearch/internal/debug"
	dilaerrors "github.com/standardbeagle/dilasearch/internal/errors"
	"github.com/standardbeagle/dilasearch/internal/fonds"
	"github.com/standardbeagle/dilasearch/internal/progress"
)

var tarballPattern = regexp.MustCompile(`\w*-\w*\.tar\.gz`)

// Descriptor is a single remote tarball entry: its filename, the fond
// it belongs to, and the date encoded in its name.
type Descriptor struct {
	Name string
	Fond fonds.Fond
	Date time.Time
}

// LocalPath returns where a descriptor's tarball is stored once
// downloaded into dir.
func (d Descriptor) LocalPath(dir string) string {
	return filepath.Join(dir, d.Name)
}

// Client lists and downloads tarballs over HTTP with bounded
// concurrency.
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

// New builds a Client with the given base URL and request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: baseURL,
	}
}

// ExtractDate parses the YYYYMMDD date segment preceding the first
// hyphen after a tarball name's last underscore, e.g.
// "CASS_20231125-130812.tar.gz" -> 2023-11-25.
func ExtractDate(name string) (time.Time, error) {
	lastUnderscore := -1
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '_' {
			lastUnderscore = i
			break
		}
	}
	if lastUnderscore == -1 {
		return time.Time{}, fmt.Errorf("no underscore in tarball name %q", name)
	}
	rest := name[lastUnderscore+1:]
	dashIdx := -1
	for i, c := range rest {
		if c == '-' {
			dashIdx = i
			break
		}
	}
	if dashIdx == -1 {
		return time.Time{}, fmt.Errorf("no dash after last underscore in tarball name %q", name)
	}
	dateStr := rest[:dashIdx]
	t, err := time.Parse("20060102", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q in tarball name %q: %w", dateStr, name, err)
	}
	return t, nil
}

// TarballsFromPage extracts, sorts, and dedups every substring in page
// matching \w*-\w*.tar.gz, pure and independent of any network call so
// it can be tested against a fixed fixture body.
func TarballsFromPage(page string) []string {
	matches := tarballPattern.FindAllString(page, -1)
	names := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

// List issues an HTTP GET on fond's listing URL and returns every
// tarball descriptor found in the response body.
func (c *Client) List(ctx context.Context, f fonds.Fond) ([]Descriptor, error) {
	url := fonds.ListingURL(c.BaseURL, f)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, dilaerrors.UpstreamUnavailable("fetcher.list", f.AsString(), err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, dilaerrors.UpstreamUnavailable("fetcher.list", f.AsString(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, dilaerrors.UpstreamUnavailable("fetcher.list", f.AsString(),
			fmt.Errorf("non-2xx response: %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dilaerrors.UpstreamUnavailable("fetcher.list", f.AsString(), err)
	}

	names := TarballsFromPage(string(body))
	descriptors := make([]Descriptor, 0, len(names))
	for _, name := range names {
		date, err := ExtractDate(name)
		if err != nil {
			return nil, dilaerrors.UpstreamUnavailable("fetcher.list", f.AsString(), err)
		}
		descriptors = append(descriptors, Descriptor{Name: name, Fond: f, Date: date})
	}

	debug.LogFetch("listed %d tarballs for fond=%s", len(descriptors), f.AsString())
	return descriptors, nil
}

// Download fetches every descriptor not already present under dir,
// with at most maxConcurrent transfers in flight. It returns the
// names that were newly downloaded this call; descriptors already on
// disk are skipped silently (download idempotence). A per-descriptor
// failure is logged and omitted from the result; Download itself only
// fails if dir cannot be created.
func (c *Client) Download(ctx context.Context, descriptors []Descriptor, dir string, maxConcurrent int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, dilaerrors.UpstreamUnavailable("fetcher.download", "", fmt.Errorf("creating %s: %w", dir, err))
	}

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var newlyDownloaded []string

	for _, d := range descriptors {
		localPath := d.LocalPath(dir)
		if _, err := os.Stat(localPath); err == nil {
			debug.LogFetch("%s already present, skipping", localPath)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(d Descriptor, localPath string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := c.downloadOne(ctx, d, localPath); err != nil {
				debug.LogFetch("download failed for %s: %v", d.Name, err)
				return
			}

			mu.Lock()
			newlyDownloaded = append(newlyDownloaded, d.Name)
			mu.Unlock()
		}(d, localPath)
	}

	wg.Wait()
	return newlyDownloaded, nil
}

// downloadOne streams a single tarball to a temporary sibling path and
// renames it into place on success, so a process killed mid-transfer
// never leaves a half-file at the final path.
func (c *Client) downloadOne(ctx context.Context, d Descriptor, localPath string) error {
	url := fonds.TarballURL(c.BaseURL, d.Fond, d.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2xx response downloading %s: %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	tmpPath := localPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	var counter progress.ByteCounter
	_, copyErr := io.Copy(f, &countingReader{r: resp.Body, counter: &counter})
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}

	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	debug.LogFetch("downloaded %s (%d bytes)", d.Name, counter.Bytes())
	return nil
}

type countingReader struct {
	r       io.Reader
	counter *progress.ByteCounter
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.counter.Add(int64(n))
	}
	return n, err
}
