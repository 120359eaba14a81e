package index

import (
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewIndexWhenAbsent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	idx, err := Open(dir)
	require.NoError(t, err)
	defer idx.Close()

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestOpen_ReopensExistingIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	idx, err := Open(dir)
	require.NoError(t, err)

	w := NewWriter(idx, 50*1024*1024)
	require.NoError(t, w.AddRecord(Document{Path: "a.xml", Body: "texte de loi", Year: 2023}))
	require.NoError(t, w.Commit())
	require.NoError(t, idx.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestWriter_AddRecordAndCommitIsSearchable(t *testing.T) {
	idx, err := OpenInMemory()
	require.NoError(t, err)
	defer idx.Close()

	w := NewWriter(idx, 50*1024*1024)
	require.NoError(t, w.AddRecord(Document{Path: "CASS/2023/a.xml", Body: "le conseil d'état statue", Year: 2023}))
	require.NoError(t, w.Commit())

	res, err := idx.Search(bleve.NewSearchRequest(bleve.NewMatchQuery("conseil")))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
}

func TestCommit_IsTheAtomicityBoundaryForSearchVisibility(t *testing.T) {
	idx, err := OpenInMemory()
	require.NoError(t, err)
	defer idx.Close()

	w := NewWriter(idx, 50*1024*1024)
	require.NoError(t, w.AddRecord(Document{Path: "a.xml", Body: "ordonnance du tribunal", Year: 2023}))

	// Before Commit, the pending batch has not been published: a
	// search issued now must not observe the added document.
	res, err := idx.Search(bleve.NewSearchRequest(bleve.NewMatchQuery("ordonnance")))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.Total)

	require.NoError(t, w.Commit())

	// After Commit, the same index handle must observe everything
	// added before the commit.
	res, err = idx.Search(bleve.NewSearchRequest(bleve.NewMatchQuery("ordonnance")))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
}

func TestWriter_DeleteAllRemovesDocuments(t *testing.T) {
	idx, err := OpenInMemory()
	require.NoError(t, err)
	defer idx.Close()

	w := NewWriter(idx, 50*1024*1024)
	require.NoError(t, w.AddRecord(Document{Path: "a.xml", Body: "premier texte", Year: 2023}))
	require.NoError(t, w.AddRecord(Document{Path: "b.xml", Body: "second texte", Year: 2024}))
	require.NoError(t, w.Commit())

	count, err := idx.DocCount()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	require.NoError(t, w.DeleteAll())
	require.NoError(t, w.Commit())

	count, err = idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestCustomFrAnalyzer_FoldsAccentsAndDropsStopwords(t *testing.T) {
	analyzer := buildCustomFrAnalyzer()
	tokens := analyzer.Analyze([]byte("Le Conseil d'État a jugé que la décision était légale."))

	var terms []string
	for _, tok := range tokens {
		terms = append(terms, string(tok.Term))
	}

	assert.Contains(t, terms, "etat")
	assert.Contains(t, terms, "decision")
	assert.Contains(t, terms, "legale")
	assert.NotContains(t, terms, "le")
	assert.NotContains(t, terms, "la")
	assert.NotContains(t, terms, "que")
}

func TestCustomFrAnalyzer_DropsOverlongTokens(t *testing.T) {
	analyzer := buildCustomFrAnalyzer()
	longToken := ""
	for i := 0; i < 45; i++ {
		longToken += "a"
	}
	tokens := analyzer.Analyze([]byte(longToken + " court"))

	var terms []string
	for _, tok := range tokens {
		terms = append(terms, string(tok.Term))
	}
	assert.NotContains(t, terms, longToken)
	assert.Contains(t, terms, "court")
}

func TestAccentFoldEquivalence(t *testing.T) {
	idx, err := OpenInMemory()
	require.NoError(t, err)
	defer idx.Close()

	w := NewWriter(idx, 50*1024*1024)
	require.NoError(t, w.AddRecord(Document{Path: "a.xml", Body: "le marché est réglementé", Year: 2023}))
	require.NoError(t, w.Commit())

	res, err := idx.Search(bleve.NewSearchRequest(bleve.NewMatchQuery("marche")))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
}
