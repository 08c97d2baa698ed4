package adpkg

import (
	"errors"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Kind is a stable category for programmatic error handling. Branch on Kind
// rather than matching error strings.
type Kind string

const (
	KindSourceNotFound     Kind = "SourceNotFound"
	KindParseError         Kind = "ParseError"
	KindValidationError    Kind = "ValidationError"
	KindIOError            Kind = "IOError"
	KindInvalidArgument    Kind = "InvalidArgument"
	KindLayoutInvalid      Kind = "LayoutInvalid"
	KindManifestNotFound   Kind = "ManifestNotFound"
	KindLayerNotFound      Kind = "LayerNotFound"
	KindDefinitionNotFound Kind = "DefinitionNotFound"
	KindDigestMismatch     Kind = "DigestMismatch"
	KindUnsafePath         Kind = "UnsafePath"
)

// Error is the structured error returned by every package operation.
// Path or Digest names the offending file or blob when there is one.
type Error struct {
	Kind   Kind
	Path   string
	Digest digest.Digest
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	if e.Digest != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Digest))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" for any other error.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

func pathError(kind Kind, path string, err error) error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func blobError(kind Kind, d digest.Digest, err error) error {
	return &Error{Kind: kind, Digest: d, Err: err}
}
