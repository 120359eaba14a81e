// Package csvexport finalizes a match-list into a CSV of parsed
// record metadata, shared by the persistent pipeline's csv command
// and the one-shot orchestrator's final pass after its last chunk. Grounded on
// original_source/src/dilarxiv-oneshot.rs's CSV finalization stage:
// one writer thread, N parser threads, and a round-robin dispatcher.
package csvexport

import (
	"bufio"
	"encoding/csv"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	dilaerrors "github.com/standardbeagle/dilasearch/internal/errors"
	"github.com/standardbeagle/dilasearch/internal/record"
)

// DefaultNumParsers is the parser-thread count used when callers don't
// override it, per spec.md 4.8.
const DefaultNumParsers = 5

var header = []string{
	"id", "oldId", "origin", "url", "nature", "title", "decisionDate",
	"jurisdiction", "juriCode", "requester", "president", "lawyers",
	"rapporteur", "governmentCommissioner", "ecliCode", "text",
}

func row(rec *record.DilaRecord) []string {
	return []string{
		rec.ID, rec.OldID, rec.Origin, rec.URL, rec.Nature, rec.Title,
		rec.DecisionDate, rec.Jurisdiction, rec.JuriCode, rec.Requester,
		rec.President, rec.Lawyers, rec.Rapporteur, rec.GovernmentCommissioner,
		rec.ECLICode, rec.Text,
	}
}

// Finalize reads resultsFile line by line (each line a path relative
// to root), parses each resolved file with record.Parse through a
// dispatcher/parser-pool/writer pipeline, and writes outputCSV with
// the header row first. A single file failing to parse is logged and
// skipped; the stage only fails if outputCSV or resultsFile cannot be
// opened, or the writer itself fails. numParsers <= 0 falls back to
// DefaultNumParsers.
func Finalize(resultsFile, root, outputCSV string, numParsers int) error {
	if numParsers <= 0 {
		numParsers = DefaultNumParsers
	}

	lines, err := readLines(resultsFile)
	if err != nil {
		return dilaerrors.SinkUnwritable("csvexport.finalize", resultsFile, err)
	}

	out, err := os.Create(outputCSV)
	if err != nil {
		return dilaerrors.SinkUnwritable("csvexport.finalize", outputCSV, err)
	}
	defer out.Close()

	writerInput := make(chan []string, numParsers*2)
	parserInputs := make([]chan string, numParsers)
	for i := range parserInputs {
		parserInputs[i] = make(chan string, 16)
	}

	var writerErr error
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		w := csv.NewWriter(out)
		if err := w.Write(header); err != nil {
			writerErr = err
		}
		// Keep draining after a write error so parsers never block on
		// writerInput; the first error is reported.
		for r := range writerInput {
			if writerErr != nil {
				continue
			}
			if err := w.Write(r); err != nil {
				writerErr = err
			}
		}
		if writerErr != nil {
			return
		}
		w.Flush()
		if err := w.Error(); err != nil {
			writerErr = err
		}
	}()

	var parsers sync.WaitGroup
	for i := 0; i < numParsers; i++ {
		parsers.Add(1)
		go func(in <-chan string) {
			defer parsers.Done()
			for path := range in {
				rec, err := record.Parse(path)
				if err != nil {
					log.Printf("csvexport: skipping %s: %v", path, err)
					continue
				}
				writerInput <- row(rec)
			}
		}(parserInputs[i])
	}

	for i, line := range lines {
		parserInputs[i%numParsers] <- filepath.Join(root, line)
	}
	for _, in := range parserInputs {
		close(in)
	}
	parsers.Wait()
	close(writerInput)
	<-writerDone

	if writerErr != nil {
		return dilaerrors.SinkUnwritable("csvexport.finalize", outputCSV, writerErr)
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
