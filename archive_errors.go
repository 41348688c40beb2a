package ziparchive

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrClosed is returned when adding to a closed archive.
var ErrClosed = errors.New("archive closed")

// ErrZip64Required is returned when a size, offset or entry count does
// not fit the 16 and 32-bit fields of a plain zip archive.
var ErrZip64Required = errors.New("archive requires zip64")

// FileReadError is returned when an input could not be read. By default
// the file is skipped and the archive continues without it.
type FileReadError struct {
	Path string
	Err  error
}

// Error implementation.
func (e *FileReadError) Error() string {
	return fmt.Sprintf("reading %s: %s", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileReadError) Unwrap() error {
	return e.Err
}

// CompressionError is returned when deflating an entry fails.
// It aborts the archive.
type CompressionError struct {
	Name string
	Err  error
}

// Error implementation.
func (e *CompressionError) Error() string {
	return fmt.Sprintf("compressing %s: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompressionError) Unwrap() error {
	return e.Err
}

// IoError is returned when the output rejects a write. Offset is the
// number of bytes accepted before the failure; the output is truncated
// and must be discarded.
type IoError struct {
	Offset int64
	Err    error
}

// Error implementation.
func (e *IoError) Error() string {
	return fmt.Sprintf("at offset %d: %s", e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e *IoError) Unwrap() error {
	return e.Err
}

// NameTooLongError is returned when a name exceeds the 65535 bytes a zip
// header can describe. Names are never truncated.
type NameTooLongError struct {
	Name string
}

// Error implementation.
func (e *NameTooLongError) Error() string {
	return fmt.Sprintf("name too long: %d bytes (max %d)", len(e.Name), maxNameLength)
}

// IsFatal returns true if err leaves the archive unusable. Only
// a *FileReadError can be recovered from by skipping the input.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	_, ok := errors.Cause(err).(*FileReadError)
	return !ok
}
