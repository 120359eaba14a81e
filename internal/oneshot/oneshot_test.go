package oneshot

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/dilasearch/internal/config"
)

const fixtureA = `<DOC><ID>CASS000001</ID><ORIGINE>CASS</ORIGINE><NATURE>Texte</NATURE><DATE_DEC>2023-05-01</DATE_DEC><CONTENU>le pourvoi est rejete</CONTENU></DOC>`
const fixtureB = `<DOC><ID>CASS000002</ID><ORIGINE>CASS</ORIGINE><NATURE>Texte</NATURE><DATE_DEC>2023-06-01</DATE_DEC><CONTENU>la cour confirme la decision</CONTENU></DOC>`

func buildTarball(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

// newTestFondServer serves a single CASS listing page naming every
// given tarball, and serves each tarball's body at its download URL.
func newTestFondServer(t *testing.T, tarballs map[string][]byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	for name, body := range tarballs {
		name, body := name, body
		mux.HandleFunc("/CASS/"+name, func(w http.ResponseWriter, r *http.Request) {
			w.Write(body)
		})
	}
	mux.HandleFunc("/CASS/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/CASS/" {
			http.NotFound(w, r)
			return
		}
		var links strings.Builder
		for name := range tarballs {
			links.WriteString(`<a href="` + name + `">` + name + `</a>`)
		}
		w.Write([]byte(links.String()))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

// TestRun_TwoChunksOfOneTarballEach exercises the scenario named in
// the corpus's property tests: two chunks of one tarball each, where
// only tarball B's record matches the query (B is the newer name, so
// it runs in the first chunk). After the run,
// results.txt has exactly one line, the matched file has moved under
// results/, the working tarballs/extracted dirs are empty, and the
// output CSV has exactly one data row.
func TestRun_TwoChunksOfOneTarballEach(t *testing.T) {
	tarballA := buildTarball(t, map[string]string{"CASS/a.xml": fixtureA})
	tarballB := buildTarball(t, map[string]string{"CASS/b.xml": fixtureB})

	srv := newTestFondServer(t, map[string][]byte{
		"CASS_20230101-000000.tar.gz": tarballA,
		"CASS_20230601-000000.tar.gz": tarballB,
	})
	defer srv.Close()

	cfg := config.Default()
	cfg.Fetch.BaseURL = srv.URL
	cfg.OneShot.ChunkSize = 1
	cfg.OneShot.MaxConcurrentListings = 2

	root := t.TempDir()
	outputCSV := filepath.Join(t.TempDir(), "matches.csv")

	err := runAt(context.Background(), cfg, root, []string{"CASS"}, "decision", outputCSV)
	require.NoError(t, err)

	csvBytes, err := os.ReadFile(outputCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(csvBytes), "\n"), "\n")
	require.Len(t, lines, 2) // header + one matching record
	assert.Contains(t, lines[1], "CASS000002")

	l := newLayout(root)

	resultsTxt, err := os.ReadFile(l.resultsFile)
	require.NoError(t, err)
	resultLines := strings.Split(strings.TrimRight(string(resultsTxt), "\n"), "\n")
	require.Len(t, resultLines, 1, "results.txt must have exactly one matching path")
	assert.Equal(t, "CASS/b.xml", resultLines[0])

	_, err = os.Stat(filepath.Join(l.results, "CASS", "b.xml"))
	assert.NoError(t, err, "matched file must have moved into results/")

	tarballEntries, err := os.ReadDir(l.tarballs)
	require.NoError(t, err)
	assert.Empty(t, tarballEntries, "tarballs/ must be emptied after the final chunk")

	extractedEntries, err := os.ReadDir(l.extracted)
	require.NoError(t, err)
	assert.Empty(t, extractedEntries, "extracted/ must be emptied after the final chunk")
}

func TestResolveFonds_EmptySelectionMeansAll(t *testing.T) {
	targets, err := resolveFonds(nil)
	require.NoError(t, err)
	assert.Len(t, targets, 7)
}

func TestResolveFonds_RejectsUnknownFond(t *testing.T) {
	_, err := resolveFonds([]string{"NOPE"})
	assert.Error(t, err)
}

