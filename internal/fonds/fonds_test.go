package fonds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStringRoundTrip(t *testing.T) {
	for _, f := range All {
		got, err := FromString(f.AsString())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestFromStringRejectsUnknown(t *testing.T) {
	_, err := FromString("NOTAFOND")
	assert.Error(t, err)
}

func TestListingURL(t *testing.T) {
	assert.Equal(t, "https://echanges.dila.gouv.fr/OPENDATA/CASS/",
		ListingURL("https://echanges.dila.gouv.fr/OPENDATA", CASS))

	// Trailing slash on base is tolerated.
	assert.Equal(t, "https://echanges.dila.gouv.fr/OPENDATA/CASS/",
		ListingURL("https://echanges.dila.gouv.fr/OPENDATA/", CASS))
}

func TestTarballURL(t *testing.T) {
	assert.Equal(t,
		"https://echanges.dila.gouv.fr/OPENDATA/CASS/CASS_20231125-130812.tar.gz",
		TarballURL("https://echanges.dila.gouv.fr/OPENDATA", CASS, "CASS_20231125-130812.tar.gz"))
}

func TestAllContainsSevenFonds(t *testing.T) {
	assert.Len(t, All, 7)
}
