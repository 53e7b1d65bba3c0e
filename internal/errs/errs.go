// Package errs provides error classification for the annotation store.
// It offers consistent error wrapping so that callers (CLI and HTTP layer)
// can map failures to exit codes and status codes by kind.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Op represents an operation name for error context.
type Op string

// Error represents an application error with context.
type Error struct {
	Op   Op     // Operation that failed
	Kind Kind   // Category of error
	Err  error  // Underlying error
	Msg  string // Additional context message
}

// Kind represents the category of error.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindInvalidChromosome marks a chromosome name outside the canonical set.
	KindInvalidChromosome
	// KindInvalidPosition marks a non-positive or overflowing position.
	KindInvalidPosition
	// KindInvalidKey marks malformed key bytes.
	KindInvalidKey
	// KindInvalidLocus marks an unparseable locus string.
	KindInvalidLocus
	// KindAssemblyMismatch marks a genome release disagreement.
	KindAssemblyMismatch
	// KindMissingMetadata marks a database without required meta entries.
	KindMissingMetadata
	// KindMissingColumnFamily marks an unknown column family.
	KindMissingColumnFamily
	// KindTruncated marks a value shorter than its fixed-width record length.
	KindTruncated
	// KindDecodeFailed marks an undecodable stored record.
	KindDecodeFailed
	// KindSourceParse marks an unrecoverable parse failure during ingest.
	KindSourceParse
	// KindIO marks an underlying storage or file I/O failure.
	KindIO
	// KindNotFound marks an empty point-lookup result.
	KindNotFound
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidChromosome:
		return "invalid chromosome"
	case KindInvalidPosition:
		return "invalid position"
	case KindInvalidKey:
		return "invalid key"
	case KindInvalidLocus:
		return "invalid locus"
	case KindAssemblyMismatch:
		return "assembly mismatch"
	case KindMissingMetadata:
		return "missing metadata"
	case KindMissingColumnFamily:
		return "missing column family"
	case KindTruncated:
		return "truncated"
	case KindDecodeFailed:
		return "decode failed"
	case KindSourceParse:
		return "source parse error"
	case KindIO:
		return "io"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
		if e.Err != nil {
			b.WriteString(": ")
		}
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error with the given arguments.
// Arguments can be: Op, Kind, error, string (message).
func E(args ...interface{}) *Error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case error:
			e.Err = a
		case string:
			e.Msg = a
		}
	}
	return e
}

// Ef creates a new Error with a formatted message.
func Ef(op Op, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with an operation name for context.
func Wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind wraps an error with an operation name and a kind.
func WrapKind(op Op, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of err, walking the wrap chain.
// Inner classifications win over outer wrappers.
func KindOf(err error) Kind {
	var kind Kind
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		if e.Kind != KindUnknown {
			kind = e.Kind
		}
		err = e.Err
	}
	return kind
}

// IsKind reports whether err is classified as the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// SourceParse builds a parse error pointing at a record in a source file.
// Ingestion is transactional at the file level, so these are fatal.
func SourceParse(op Op, lineNo int, column string, cause error) *Error {
	return &Error{
		Op:   op,
		Kind: KindSourceParse,
		Msg:  fmt.Sprintf("line %d, column %q", lineNo, column),
		Err:  cause,
	}
}
