package index

import (
	"github.com/blevesearch/bleve/v2"

	"github.com/standardbeagle/dilasearch/internal/debug"
	dilaerrors "github.com/standardbeagle/dilasearch/internal/errors"
)

// Open opens an existing on-disk index at dir, or creates one with
// the dilasearch schema if dir does not yet contain a valid index.
// Fails with IndexUnusable only if neither path succeeds.
func Open(dir string) (bleve.Index, error) {
	idx, err := bleve.Open(dir)
	if err == nil {
		return idx, nil
	}

	idx, createErr := bleve.New(dir, buildMapping())
	if createErr != nil {
		return nil, dilaerrors.IndexUnusable("index.open", createErr)
	}
	return idx, nil
}

// OpenInMemory creates a volatile index backed by memory, used by the
// one-shot orchestrator so a chunk's index can be discarded by
// dropping the handle rather than deleting files from disk.
func OpenInMemory() (bleve.Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, dilaerrors.IndexUnusable("index.open_in_memory", err)
	}
	return idx, nil
}

// Writer is the single mutable owner of an index's pending batch. The
// memory budget bounds how many bytes of documents are buffered
// before a flush (bleve's Batch call, which publishes a new segment)
// is forced.
type Writer struct {
	idx           bleve.Index
	memoryBudget  int
	batch         *bleve.Batch
	bufferedBytes int
}

// NewWriter returns a writer over idx with the given memory budget in
// bytes; typical values are 50 MB (persistent mode) and 100 MB
// (one-shot mode).
func NewWriter(idx bleve.Index, memoryBudgetBytes int) *Writer {
	return &Writer{idx: idx, memoryBudget: memoryBudgetBytes, batch: idx.NewBatch()}
}

// AddRecord constructs an index document from doc and submits it to
// the pending batch, flushing automatically once the memory budget is
// crossed.
func (w *Writer) AddRecord(doc Document) error {
	if err := w.batch.Index(doc.Path, doc); err != nil {
		return dilaerrors.IndexUnusable("index.add_record", err)
	}
	w.bufferedBytes += len(doc.Path) + len(doc.Body) + 8
	if w.bufferedBytes >= w.memoryBudget {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if w.batch.Size() == 0 {
		return nil
	}
	if err := w.idx.Batch(w.batch); err != nil {
		return dilaerrors.IndexUnusable("index.flush", err)
	}
	debug.LogIndex("flushed batch of %d documents", w.batch.Size())
	w.batch = w.idx.NewBatch()
	w.bufferedBytes = 0
	return nil
}

// Commit publishes every document and deletion still pending in the
// batch to subsequent readers in one bleve Batch call. Documents that
// AddRecord already flushed because the memory budget was crossed are
// visible before Commit. bleve's scorch engine owns crash-atomicity
// of the segment set beneath this call.
func (w *Writer) Commit() error {
	return w.flush()
}

// DeleteAll marks every current document for deletion; the deletion
// takes effect on the next Commit. Implemented by paging through a
// match-all query rather than a bulk-truncate primitive, since bleve
// does not expose one.
func (w *Writer) DeleteAll() error {
	from := 0
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 1000, from, false)
		req.Fields = nil
		res, err := w.idx.Search(req)
		if err != nil {
			return dilaerrors.IndexUnusable("index.delete_all", err)
		}
		if len(res.Hits) == 0 {
			break
		}
		for _, hit := range res.Hits {
			w.batch.Delete(hit.ID)
		}
		from += len(res.Hits)
	}
	return nil
}
