package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamUnavailable(t *testing.T) {
	underlying := stderrors.New("non-2xx response")
	err := UpstreamUnavailable("fetcher.list", "CASS", underlying)

	assert.Equal(t, KindUpstreamUnavailable, err.Kind)
	assert.True(t, err.Recoverable())
	assert.Equal(t, "CASS", err.Fond)
	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "fond=CASS")
}

func TestArchiveCorrupt(t *testing.T) {
	underlying := stderrors.New("unexpected EOF")
	err := ArchiveCorrupt("extractor.extract", "CASS_20231125-130812.tar.gz", underlying)

	assert.Equal(t, KindArchiveCorrupt, err.Kind)
	assert.True(t, err.Recoverable())
	assert.Contains(t, err.Error(), "tarball=CASS_20231125-130812.tar.gz")
}

func TestIndexUnusableIsFatal(t *testing.T) {
	err := IndexUnusable("index.open", stderrors.New("disk full"))
	assert.False(t, err.Recoverable())
}

func TestSinkUnwritableIsFatal(t *testing.T) {
	err := SinkUnwritable("csv.write", "/out/result.csv", stderrors.New("permission denied"))
	assert.False(t, err.Recoverable())
	assert.Equal(t, "/out/result.csv", err.Path)
}

func TestRecordIncompleteRecoverable(t *testing.T) {
	err := RecordIncomplete("record.year", "extracted/foo.xml", stderrors.New("no year found"))
	require.True(t, err.Recoverable())
	assert.Equal(t, KindRecordIncomplete, err.Kind)
}

func TestXMLMalformedRecoverable(t *testing.T) {
	err := XMLMalformed("record.parse", "extracted/bad.xml", stderrors.New("unexpected token"))
	assert.True(t, err.Recoverable())
	assert.Equal(t, "extracted/bad.xml", err.Path)
}

func TestUnwrapChain(t *testing.T) {
	root := stderrors.New("root cause")
	err := ArchiveCorrupt("extractor.extract", "x.tar.gz", root)
	assert.True(t, stderrors.Is(err, root))
}
