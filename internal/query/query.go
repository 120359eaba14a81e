// Package query executes the search grammar against an index opened
// by internal/index and drives the streaming path-save sink. Grounded
// on original_source/src/dumps/tarballs.rs's search_index and
// file_collector, adapted from tantivy's per-segment collector
// architecture to bleve's public paged-search API.
package query

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/standardbeagle/dilasearch/internal/debug"
	dilaerrors "github.com/standardbeagle/dilasearch/internal/errors"
)

// topK is the number of ranked results Search returns, per spec.md 4.6.
const topK = 10

// pageSize bounds how many hits the streaming save sink requests per
// round-trip while paging through every match.
const pageSize = 1000

// Hit is a single ranked search result.
type Hit struct {
	Path string
	Year int
}

// Search parses queryText against the body field using bleve's
// standard term/phrase/boolean query-string grammar (tokens pass
// through the same custom_fr analyzer the index registers as its
// default), and returns the total match count plus the top 10 hits by
// descending relevance. If saveSink is non-nil, the path of every
// matching document — not just the top 10 — is streamed to it, one
// per line, in segment-traversal order.
func Search(idx bleve.Index, queryText string, saveSink io.Writer) (uint64, []Hit, error) {
	q := bleve.NewQueryStringQuery(queryText)

	countReq := bleve.NewSearchRequestOptions(q, 0, 0, false)
	countRes, err := idx.Search(countReq)
	if err != nil {
		return 0, nil, dilaerrors.IndexUnusable("query.search", err)
	}
	total := countRes.Total

	topReq := bleve.NewSearchRequestOptions(q, topK, 0, false)
	topReq.Fields = []string{"path", "year"}
	topRes, err := idx.Search(topReq)
	if err != nil {
		return 0, nil, dilaerrors.IndexUnusable("query.search", err)
	}

	hits := make([]Hit, 0, len(topRes.Hits))
	for _, h := range topRes.Hits {
		hits = append(hits, Hit{Path: fieldString(h.Fields, "path"), Year: fieldInt(h.Fields, "year")})
	}

	if saveSink != nil {
		if err := streamAllPaths(idx, q, saveSink); err != nil {
			return 0, nil, err
		}
	}

	debug.LogQuery("query %q matched %d documents", queryText, total)
	return total, hits, nil
}

func fieldString(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

func fieldInt(fields map[string]interface{}, name string) int {
	f, _ := fields[name].(float64)
	return int(f)
}

// pathSink is a mutex-guarded, line-buffered writer shared across the
// paged retrieval loop below, mirroring the per-segment child
// collectors of the tantivy original sharing one sink under a mutex.
type pathSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func (s *pathSink) writeLine(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s\n", path)
}

func (s *pathSink) flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

// streamAllPaths pages through every match of q — not just the top
// K — requesting only the path field with scoring disabled (bleve's
// non-scoring fast path, matching the collector's "does not require
// scoring" contract), and writes each path to sink.
func streamAllPaths(idx bleve.Index, q bleve.Query, sink io.Writer) error {
	out := &pathSink{w: bufio.NewWriter(sink)}

	from := 0
	for {
		req := bleve.NewSearchRequestOptions(q, pageSize, from, false)
		req.Fields = []string{"path"}
		req.Score = "none"
		res, err := idx.Search(req)
		if err != nil {
			return dilaerrors.IndexUnusable("query.save_sink", err)
		}
		if len(res.Hits) == 0 {
			break
		}
		for _, hit := range res.Hits {
			out.writeLine(fieldString(hit.Fields, "path"))
		}
		from += len(res.Hits)
		if uint64(from) >= res.Total {
			break
		}
	}

	return out.flush()
}
