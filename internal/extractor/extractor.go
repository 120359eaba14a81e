// Package extractor streams a downloaded .tar.gz archive onto a
// destination tree, preserving the archive-internal layout. Grounded
// on original_source/src/dumps/tarballs.rs's extract_tarball.
package extractor

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/dilasearch/internal/debug"
	dilaerrors "github.com/standardbeagle/dilasearch/internal/errors"
)

// Extract opens file, decompresses it through gzip, unpacks the tar
// stream into destDir preserving each entry's archive-internal path,
// and preserves archive-entry order (tar entries are read and written
// sequentially, never reordered).
func Extract(file, destDir string) error {
	f, err := os.Open(file)
	if err != nil {
		return dilaerrors.ArchiveCorrupt("extractor.extract", filepath.Base(file), err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return dilaerrors.ArchiveCorrupt("extractor.extract", filepath.Base(file), err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dilaerrors.ArchiveCorrupt("extractor.extract", filepath.Base(file), err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return dilaerrors.ArchiveCorrupt("extractor.extract", filepath.Base(file), err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return dilaerrors.ArchiveCorrupt("extractor.extract", filepath.Base(file), err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return dilaerrors.ArchiveCorrupt("extractor.extract", filepath.Base(file), err)
			}
			out, err := os.Create(target)
			if err != nil {
				return dilaerrors.ArchiveCorrupt("extractor.extract", filepath.Base(file), err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return dilaerrors.ArchiveCorrupt("extractor.extract", filepath.Base(file), err)
			}
			if err := out.Close(); err != nil {
				return dilaerrors.ArchiveCorrupt("extractor.extract", filepath.Base(file), err)
			}
			count++
		}
	}

	debug.LogExtract("extracted %d entries from %s into %s", count, file, destDir)
	return nil
}

// safeJoin joins an archive-internal path onto destDir, rejecting any
// entry that would escape destDir via ".." segments.
func safeJoin(destDir, name string) (string, error) {
	cleaned := filepath.Clean(strings.ReplaceAll(name, "\\", "/"))
	target := filepath.Join(destDir, cleaned)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) && target != filepath.Clean(destDir) {
		return "", os.ErrInvalid
	}
	return target, nil
}
