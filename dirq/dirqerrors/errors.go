// Package dirqerrors declares the error taxonomy shared by every dirq
// queue flavor.
//
// Sentinel errors are tested with errors.Is; FilesystemError wraps a
// syscall-level failure with path context and is tested with errors.As.
package dirqerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors. These are returned (often wrapped with fmt.Errorf's
// %w) from the operations documented in spec §7.
var (
	// ErrInvalidConfiguration covers a bad schema, a root that cannot
	// be created, or an invalid granularity/rndhex/retry value.
	ErrInvalidConfiguration = errors.New("dirq: invalid configuration")

	// ErrNameCollision is returned by Add after it exhausts its retry
	// budget regenerating an element name on repeated EEXIST.
	ErrNameCollision = errors.New("dirq: name collision exhausted retry budget")

	// ErrMalformedEncoding is returned by Decode.
	ErrMalformedEncoding = errors.New("dirq: malformed encoding")

	// ErrMissingElement is returned by a non-permissive Lock and by Get
	// when the element's payload is gone, and by Touch when the lock
	// marker is gone. NullQueue returns it from every non-permissive
	// element operation.
	ErrMissingElement = errors.New("dirq: element missing")
)

// FilesystemError wraps a syscall failure encountered while operating
// on path, annotated with the high-level operation that triggered it.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("dirq: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap lets errors.Is/errors.As see through to the underlying
// syscall error (typically a *os.PathError or syscall.Errno).
func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Wrap builds a *FilesystemError, or returns nil if err is nil.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &FilesystemError{Op: op, Path: path, Err: err}
}
