// Package oneshot is the ephemeral orchestrator (C8): given a query
// and an optional fond selection, it runs the whole download, extract,
// index, search, and move cycle against a temporary working tree,
// chunk by chunk, discarding the index between chunks so memory stays
// bounded regardless of corpus size. Grounded on
// original_source/src/dilarxiv-oneshot.rs.
package oneshot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/dilasearch/internal/config"
	"github.com/standardbeagle/dilasearch/internal/csvexport"
	"github.com/standardbeagle/dilasearch/internal/extractor"
	"github.com/standardbeagle/dilasearch/internal/fetcher"
	"github.com/standardbeagle/dilasearch/internal/fonds"
	"github.com/standardbeagle/dilasearch/internal/index"
	"github.com/standardbeagle/dilasearch/internal/query"
)

// layout names the ephemeral subdirectories and flat result files a
// one-shot run owns under its temporary root.
type layout struct {
	root        string
	tarballs    string
	extracted   string
	results     string
	resultsFile string
	resultsTmp  string
}

func newLayout(root string) layout {
	return layout{
		root:        root,
		tarballs:    filepath.Join(root, "tarballs"),
		extracted:   filepath.Join(root, "extracted"),
		results:     filepath.Join(root, "results"),
		resultsFile: filepath.Join(root, "results.txt"),
		resultsTmp:  filepath.Join(root, "results_tmp.txt"),
	}
}

func (l layout) reset() error {
	if err := os.RemoveAll(l.tarballs); err != nil {
		return err
	}
	if err := os.RemoveAll(l.extracted); err != nil {
		return err
	}
	if err := os.MkdirAll(l.tarballs, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(l.extracted, 0o755)
}

// Run drives the full one-shot procedure: list every tarball across
// the selected fonds (or all fonds), process them in chunks against an
// in-memory index, append every matching path to resultsFile-backed
// output, move matched files into results/, and finalize a CSV once
// every chunk has run. The ephemeral root is removed once Run returns.
func Run(ctx context.Context, cfg *config.Config, selected []string, queryText, outputCSV string) error {
	root, err := os.MkdirTemp("", "dilasearch-oneshot-"+uuid.NewString())
	if err != nil {
		return err
	}
	defer os.RemoveAll(root)

	return runAt(ctx, cfg, root, selected, queryText, outputCSV)
}

// runAt is Run's body against a caller-owned root, split out so tests
// can inspect the working tree (tarballs/, extracted/, results/,
// results.txt) after a run completes instead of racing the deferred
// os.RemoveAll in Run.
func runAt(ctx context.Context, cfg *config.Config, root string, selected []string, queryText, outputCSV string) error {
	l := newLayout(root)
	if err := l.reset(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.results, 0o755); err != nil {
		return err
	}

	targets, err := resolveFonds(selected)
	if err != nil {
		return err
	}

	client := fetcher.New(cfg.Fetch.BaseURL, time.Duration(cfg.Fetch.RequestTimeoutSec)*time.Second)
	descriptors, err := listAll(ctx, client, targets, cfg.OneShot.MaxConcurrentListings)
	if err != nil {
		return err
	}

	// Newest-by-filename first: descriptors within each fond arrive
	// sorted ascending by filename from Client.List, so reversing puts
	// each fond's last-named tarball first. The order of fonds relative
	// to each other follows listing completion order.
	reverseDescriptors(descriptors)

	resultsFinal, err := os.Create(l.resultsFile)
	if err != nil {
		return err
	}
	defer resultsFinal.Close()

	chunkSize := cfg.OneShot.ChunkSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultOneShotChunkSize
	}

	for start := 0; start < len(descriptors); start += chunkSize {
		end := start + chunkSize
		if end > len(descriptors) {
			end = len(descriptors)
		}
		chunk := descriptors[start:end]

		if err := runChunk(ctx, cfg, client, l, chunk, queryText, resultsFinal); err != nil {
			return fmt.Errorf("oneshot: chunk %d-%d: %w", start, end, err)
		}
	}

	return csvexport.Finalize(l.resultsFile, l.results, outputCSV, cfg.CSV.ParserWorkers)
}

func resolveFonds(selected []string) ([]fonds.Fond, error) {
	if len(selected) == 0 {
		return fonds.All, nil
	}
	out := make([]fonds.Fond, 0, len(selected))
	for _, s := range selected {
		f, err := fonds.FromString(strings.ToUpper(s))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// listAll lists every fond concurrently, bounded by maxConcurrent, and
// returns every descriptor found across all of them. A fond whose
// listing fails is logged and skipped rather than aborting the run.
// This is the one genuine wait-all barrier in the orchestrator (every
// listing must finish before chunking begins), so it uses errgroup
// rather than the channel-semaphore idiom the per-chunk download and
// extract stages use.
func listAll(ctx context.Context, client *fetcher.Client, targets []fonds.Fond, maxConcurrent int) ([]fetcher.Descriptor, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = config.DefaultOneShotMaxConcurrentListings
	}

	var (
		mu  sync.Mutex
		all []fetcher.Descriptor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, f := range targets {
		f := f
		g.Go(func() error {
			descs, err := client.List(gctx, f)
			if err != nil {
				log.Printf("oneshot: skipping fond %s: %v", f, err)
				return nil
			}
			mu.Lock()
			all = append(all, descs...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return all, nil
}

func reverseDescriptors(d []fetcher.Descriptor) {
	for i, j := 0, len(d)-1; i < j; i, j = i+1, j-1 {
		d[i], d[j] = d[j], d[i]
	}
}

// runChunk downloads, extracts, and indexes one chunk of descriptors,
// searches the ephemeral index, appends every matching path to
// resultsFinal, moves matched files into results/, then clears the
// index and working directories before returning.
func runChunk(ctx context.Context, cfg *config.Config, client *fetcher.Client, l layout, chunk []fetcher.Descriptor, queryText string, resultsFinal io.Writer) error {
	newly, err := client.Download(ctx, chunk, l.tarballs, cfg.Fetch.MaxConcurrentDownloads)
	if err != nil {
		return err
	}

	if err := extractAll(l.tarballs, l.extracted, newly, cfg.Fetch.MaxConcurrentExtractions); err != nil {
		return err
	}

	idx, err := index.OpenInMemory()
	if err != nil {
		return err
	}
	defer idx.Close()

	w := index.NewWriter(idx, cfg.OneShot.WriterMemoryMB*1024*1024)
	if err := index.WriteTree(w, l.extracted); err != nil {
		return err
	}
	if err := w.Commit(); err != nil {
		return err
	}

	tmpFile, err := os.Create(l.resultsTmp)
	if err != nil {
		return err
	}
	if _, _, err := query.Search(idx, queryText, tmpFile); err != nil {
		tmpFile.Close()
		return err
	}
	tmpFile.Close()

	if err := appendFile(resultsFinal, l.resultsTmp); err != nil {
		return err
	}
	if err := moveMatches(l.resultsTmp, l.extracted, l.results); err != nil {
		return err
	}

	if err := w.DeleteAll(); err != nil {
		return err
	}
	if err := w.Commit(); err != nil {
		return err
	}
	if err := l.reset(); err != nil {
		return err
	}
	return os.Remove(l.resultsTmp)
}

// extractAll extracts every newly downloaded tarball name into
// destDir, bounded by maxConcurrent. A tarball that fails to extract
// is logged and skipped.
func extractAll(tarballsDir, destDir string, names []string, maxConcurrent int) error {
	if maxConcurrent <= 0 {
		maxConcurrent = config.DefaultMaxConcurrentExtractions
	}

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for _, name := range names {
		wg.Add(1)
		sem <- struct{}{}
		go func(name string) {
			defer wg.Done()
			defer func() { <-sem }()

			full := filepath.Join(tarballsDir, name)
			if err := extractor.Extract(full, destDir); err != nil {
				log.Printf("oneshot: skipping archive %s: %v", name, err)
			}
		}(name)
	}
	wg.Wait()
	return nil
}

// appendFile copies src's full contents onto dst, mirroring
// dilarxiv-oneshot.rs's io::copy from results_tmp.txt onto the durable
// results file.
func appendFile(dst io.Writer, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(dst, src)
	return err
}

// moveMatches reads one relative path per line from tmpResultsPath and
// moves each from extractedDir into resultsDir, creating parent
// directories as needed.
func moveMatches(tmpResultsPath, extractedDir, resultsDir string) error {
	f, err := os.Open(tmpResultsPath)
	if err != nil {
		return err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	for _, rel := range lines {
		src := filepath.Join(extractedDir, filepath.FromSlash(rel))
		dst := filepath.Join(resultsDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.Rename(src, dst); err != nil {
			return err
		}
	}
	return nil
}
