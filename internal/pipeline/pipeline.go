// Package pipeline is the persistent-mode orchestrator (C7): it owns
// a working directory laid out as tarballs/, extracted/, index/ and
// drives download, extract, index, update, query and csv over them.
// Grounded on original_source/src/dilarxiv.rs.
package pipeline

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/standardbeagle/dilasearch/internal/config"
	"github.com/standardbeagle/dilasearch/internal/csvexport"
	"github.com/standardbeagle/dilasearch/internal/extractor"
	"github.com/standardbeagle/dilasearch/internal/fetcher"
	"github.com/standardbeagle/dilasearch/internal/fonds"
	"github.com/standardbeagle/dilasearch/internal/index"
	"github.com/standardbeagle/dilasearch/internal/progress"
	"github.com/standardbeagle/dilasearch/internal/query"
)

// Layout names the three subdirectories a persistent-mode run owns
// under its working directory root.
type Layout struct {
	Root      string
	Tarballs  string
	Extracted string
	Index     string
}

// NewLayout builds the default tarballs/extracted/index layout rooted
// at root.
func NewLayout(root string) Layout {
	return Layout{
		Root:      root,
		Tarballs:  filepath.Join(root, "tarballs"),
		Extracted: filepath.Join(root, "extracted"),
		Index:     filepath.Join(root, "index"),
	}
}

// Pipeline bundles the layout and configuration a persistent-mode
// command runs against.
type Pipeline struct {
	Layout Layout
	Cfg    *config.Config
	Client *fetcher.Client
}

// New builds a Pipeline rooted at cfg.Project.Root.
func New(cfg *config.Config) *Pipeline {
	timeout := time.Duration(cfg.Fetch.RequestTimeoutSec) * time.Second
	return &Pipeline{
		Layout: NewLayout(cfg.Project.Root),
		Cfg:    cfg,
		Client: fetcher.New(cfg.Fetch.BaseURL, timeout),
	}
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

// Download invokes C2.list then C2.download for each selected fond
// (or all fonds if selected is empty).
func (p *Pipeline) Download(ctx context.Context, selected []string) error {
	targets, err := resolveFonds(selected)
	if err != nil {
		return err
	}

	for _, f := range targets {
		descriptors, err := p.Client.List(ctx, f)
		if err != nil {
			log.Printf("pipeline: skipping fond %s: %v", f, err)
			continue
		}
		newly, err := p.Client.Download(ctx, descriptors, p.Layout.Tarballs, p.Cfg.Fetch.MaxConcurrentDownloads)
		if err != nil {
			return err
		}
		log.Printf("pipeline: downloaded %d new tarballs for %s", len(newly), f)
	}
	return nil
}

// Extract enumerates tarballs/ for .tar.gz/.gz entries and drives C3
// sequentially with a progress indicator.
func (p *Pipeline) Extract(ctx context.Context) error {
	entries, err := os.ReadDir(p.Layout.Tarballs)
	if err != nil {
		return err
	}

	var archives []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".gz") {
			archives = append(archives, name)
		}
	}

	prog := progress.NewCounter(len(archives))
	for i, name := range archives {
		full := filepath.Join(p.Layout.Tarballs, name)
		if err := extractor.Extract(full, p.Layout.Extracted); err != nil {
			log.Printf("pipeline: skipping archive %s: %v", name, err)
			continue
		}
		prog.Inc(i)
	}
	return nil
}

// Index walks extracted/ for .xml files, parses each one's year via
// C4's year regex over the raw bytes, builds an index document, and
// commits once at the end.
func (p *Pipeline) Index() error {
	idx, err := index.Open(p.Layout.Index)
	if err != nil {
		return err
	}
	defer idx.Close()

	w := index.NewWriter(idx, p.Cfg.Index.WriterMemoryMB*1024*1024)
	if err := index.WriteTree(w, p.Layout.Extracted); err != nil {
		return err
	}
	return w.Commit()
}

// Update lists remote, downloads only missing tarballs, extracts them
// into a temporary tree, indexes that tree, then moves the new XML
// files into the canonical extracted/ tree preserving relative
// structure, and finally removes the temporary tree.
func (p *Pipeline) Update(ctx context.Context, selected []string) error {
	targets, err := resolveFonds(selected)
	if err != nil {
		return err
	}

	tmpExtracted, err := os.MkdirTemp(p.Layout.Root, "update-extracted-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpExtracted)

	for _, f := range targets {
		descriptors, err := p.Client.List(ctx, f)
		if err != nil {
			log.Printf("pipeline: update skipping fond %s: %v", f, err)
			continue
		}
		newly, err := p.Client.Download(ctx, descriptors, p.Layout.Tarballs, p.Cfg.Fetch.MaxConcurrentDownloads)
		if err != nil {
			return err
		}
		for _, name := range newly {
			full := filepath.Join(p.Layout.Tarballs, name)
			if err := extractor.Extract(full, tmpExtracted); err != nil {
				log.Printf("pipeline: update skipping archive %s: %v", name, err)
			}
		}
	}

	idx, err := index.Open(p.Layout.Index)
	if err != nil {
		return err
	}
	defer idx.Close()

	w := index.NewWriter(idx, p.Cfg.Index.WriterMemoryMB*1024*1024)
	if err := index.WriteTree(w, tmpExtracted); err != nil {
		return err
	}
	if err := w.Commit(); err != nil {
		return err
	}

	return moveTree(tmpExtracted, p.Layout.Extracted)
}

// moveTree moves every regular file under src into dst, preserving
// its relative path and creating parent directories as needed.
func moveTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.Rename(path, target)
	})
}

// Query invokes C6 against the persistent index and returns the total
// match count and the top-K, optionally streaming the full match-path
// list to a save file.
func (p *Pipeline) Query(text string, savePath string) (uint64, []query.Hit, error) {
	idx, err := index.Open(p.Layout.Index)
	if err != nil {
		return 0, nil, err
	}
	defer idx.Close()

	var sink io.Writer
	var saveFile *os.File
	if savePath != "" {
		saveFile, err = os.Create(savePath)
		if err != nil {
			return 0, nil, err
		}
		defer saveFile.Close()
		sink = saveFile
	}

	return query.Search(idx, text, sink)
}

// CSV reads resultFile (one path per line, relative to extracted/),
// parses each file with C4, and writes resultFile.csv with a header
// row first.
func (p *Pipeline) CSV(resultFile string) error {
	return csvexport.Finalize(resultFile, p.Layout.Extracted, resultFile+".csv", p.Cfg.CSV.ParserWorkers)
}
