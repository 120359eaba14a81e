package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/dilasearch/internal/config"
)

const fixtureXML = `<DOC><ID>CASS000001</ID><ORIGINE>CASS</ORIGINE><NATURE>Texte</NATURE><DATE_DEC>2023-05-01</DATE_DEC><CONTENU>le pourvoi est rejete</CONTENU></DOC>`

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.Project.Root = t.TempDir()
	return New(cfg)
}

func TestIndexAndQuery_RoundTrip(t *testing.T) {
	p := newTestPipeline(t)
	require.NoError(t, os.MkdirAll(filepath.Join(p.Layout.Extracted, "CASS"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(p.Layout.Extracted, "CASS", "a.xml"), []byte(fixtureXML), 0o644))

	require.NoError(t, p.Index())

	total, hits, err := p.Query("pourvoi", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, hits, 1)
	assert.Equal(t, "CASS/a.xml", hits[0].Path)
}

func TestIndex_SkipsFilesWithUnparseableYear(t *testing.T) {
	p := newTestPipeline(t)
	require.NoError(t, os.MkdirAll(p.Layout.Extracted, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(p.Layout.Extracted, "no-date.xml"), []byte(`<DOC><ID>X</ID><CONTENU>sans date</CONTENU></DOC>`), 0o644))

	require.NoError(t, p.Index())

	total, _, err := p.Query("date", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), total)
}

func TestDownload_UsesConfiguredFetchClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="CASS_20231125-130812.tar.gz">CASS_20231125-130812.tar.gz</a>`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Project.Root = t.TempDir()
	cfg.Fetch.BaseURL = srv.URL
	p := New(cfg)

	require.NoError(t, p.Download(context.Background(), []string{"CASS"}))

	_, err := os.Stat(filepath.Join(p.Layout.Tarballs, "CASS_20231125-130812.tar.gz"))
	assert.NoError(t, err)
}
