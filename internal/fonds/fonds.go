// Package fonds enumerates the fixed set of source datasets ("fonds")
// published by the DILA opendata feed and maps each to its remote
// listing and tarball URLs.
package fonds

import (
	"fmt"
	"strings"
)

// Fond is a closed enumeration of the legal-corpus dataset partitions.
type Fond string

const (
	JORF Fond = "JORF"
	CNIL Fond = "CNIL"
	JADE Fond = "JADE"
	LEGI Fond = "LEGI"
	INCA Fond = "INCA"
	CASS Fond = "CASS"
	CAPP Fond = "CAPP"
)

// All lists every fond in a stable order.
var All = []Fond{JORF, CNIL, JADE, LEGI, INCA, CASS, CAPP}

// AsString returns the stable short string used in filenames, URLs,
// and serialization. For this enumeration it is the identity, but the
// named operation is kept distinct from string(f) so callers don't
// depend on Fond's underlying representation.
func (f Fond) AsString() string {
	return string(f)
}

// FromString parses a fond's canonical string form. It returns an
// error for anything outside the closed enumeration, satisfying
// fromString(asString(f)) == f for all f in All.
func FromString(s string) (Fond, error) {
	for _, f := range All {
		if f.AsString() == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("not a fond: %q", s)
}

// ListingURL returns the remote directory-listing URL for a fond
// under the given base (e.g. https://echanges.dila.gouv.fr/OPENDATA).
func ListingURL(base string, f Fond) string {
	return strings.TrimRight(base, "/") + "/" + f.AsString() + "/"
}

// TarballURL returns the remote URL for a single tarball name within
// a fond's listing directory.
func TarballURL(base string, f Fond, tarballName string) string {
	return ListingURL(base, f) + tarballName
}

func (f Fond) String() string {
	return f.AsString()
}
