package index

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/dilasearch/internal/record"
)

// WriteTree walks root for .xml files, parses each one's year via the
// raw-XML year regex and its metadata via the streaming record
// parser, and feeds a Document per file to w. A file with no
// parseable year is dropped with a warning and the walk continues;
// the orchestrators (C7, C8) share this so extract/index semantics
// stay identical between persistent and ephemeral mode.
func WriteTree(w *Writer, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".xml" {
			return nil
		}

		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			log.Printf("index: skipping %s: %v", path, readErr)
			return nil
		}
		rawXML := string(raw)

		year, yearErr := record.YearOf(rawXML)
		if yearErr != nil {
			log.Printf("index: dropping %s: %v", path, yearErr)
			return nil
		}

		rec, parseErr := record.ParseReader(strings.NewReader(rawXML))
		if parseErr != nil {
			log.Printf("index: skipping %s: %v", path, parseErr)
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}

		return w.AddRecord(Document{Path: filepath.ToSlash(relPath), Body: rec.Text, Year: year})
	})
}
