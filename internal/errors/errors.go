// Package errors defines the typed error kinds used across dilasearch:
// the recoverable, per-unit kinds that are logged and skipped, and the
// fatal kinds that abort the current run.
package errors

import (
	"fmt"
	"time"
)

// Kind identifies which of the six error kinds an error belongs to.
type Kind string

const (
	// KindUpstreamUnavailable covers listing/download non-2xx responses and I/O failures. Recoverable.
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindArchiveCorrupt covers gzip/tar decode failures during extraction. Recoverable.
	KindArchiveCorrupt Kind = "archive_corrupt"
	// KindXMLMalformed covers record parse failures. Recoverable.
	KindXMLMalformed Kind = "xml_malformed"
	// KindRecordIncomplete covers a required field missing, e.g. an unparseable year. Recoverable.
	KindRecordIncomplete Kind = "record_incomplete"
	// KindIndexUnusable covers index open/write/commit failures. Fatal.
	KindIndexUnusable Kind = "index_unusable"
	// KindSinkUnwritable covers a save-file or CSV output that cannot be opened or written. Fatal.
	KindSinkUnwritable Kind = "sink_unwritable"
)

// Recoverable reports whether errors of this kind should be logged and
// skipped (true) or are fatal to the current run (false).
func (k Kind) Recoverable() bool {
	switch k {
	case KindUpstreamUnavailable, KindArchiveCorrupt, KindXMLMalformed, KindRecordIncomplete:
		return true
	default:
		return false
	}
}

// Error is the single error type used across the pipeline. It carries
// enough context to log a useful per-unit warning (which fond, which
// tarball, which file) without needing a distinct Go type per kind.
type Error struct {
	Kind       Kind
	Op         string // the operation that failed, e.g. "fetcher.download"
	Fond       string // empty if not applicable
	Tarball    string // empty if not applicable
	Path       string // file or directory path, empty if not applicable
	Underlying error
	Timestamp  time.Time
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{
		Kind:       kind,
		Op:         op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// UpstreamUnavailable builds a KindUpstreamUnavailable error.
func UpstreamUnavailable(op, fond string, err error) *Error {
	e := newError(KindUpstreamUnavailable, op, err)
	e.Fond = fond
	return e
}

// ArchiveCorrupt builds a KindArchiveCorrupt error.
func ArchiveCorrupt(op, tarball string, err error) *Error {
	e := newError(KindArchiveCorrupt, op, err)
	e.Tarball = tarball
	return e
}

// XMLMalformed builds a KindXMLMalformed error.
func XMLMalformed(op, path string, err error) *Error {
	e := newError(KindXMLMalformed, op, err)
	e.Path = path
	return e
}

// RecordIncomplete builds a KindRecordIncomplete error.
func RecordIncomplete(op, path string, err error) *Error {
	e := newError(KindRecordIncomplete, op, err)
	e.Path = path
	return e
}

// IndexUnusable builds a KindIndexUnusable error.
func IndexUnusable(op string, err error) *Error {
	return newError(KindIndexUnusable, op, err)
}

// SinkUnwritable builds a KindSinkUnwritable error.
func SinkUnwritable(op, path string, err error) *Error {
	e := newError(KindSinkUnwritable, op, err)
	e.Path = path
	return e
}

// WithPath attaches a path to an existing error and returns it.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

func (e *Error) Error() string {
	ctx := ""
	switch {
	case e.Tarball != "":
		ctx = fmt.Sprintf(" tarball=%s", e.Tarball)
	case e.Path != "":
		ctx = fmt.Sprintf(" path=%s", e.Path)
	case e.Fond != "":
		ctx = fmt.Sprintf(" fond=%s", e.Fond)
	}
	return fmt.Sprintf("%s: %s failed%s: %v", e.Kind, e.Op, ctx, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Recoverable reports whether this error should be logged and skipped
// rather than aborting the run.
func (e *Error) Recoverable() bool {
	return e.Kind.Recoverable()
}
