package ziparchive

import (
	"io"
	"math"
	"time"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

// Record signatures.
const (
	localFileHeaderSignature  = 0x04034b50
	centralDirectorySignature = 0x02014b50
	endOfCentralDirSignature  = 0x06054b50
)

const (
	zipVersion    = 20
	methodDeflate = 8
	maxNameLength = math.MaxUint16
)

// Entry is an archived file as recorded in its local header
// and central directory record.
type Entry struct {
	Name              string
	ModifiedTime      uint16
	ModifiedDate      uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	LocalHeaderOffset uint32
}

// Modified returns the entry's modification time at
// the two second resolution stored in the archive.
func (e Entry) Modified() time.Time {
	return dosTimeToTime(e.ModifiedDate, e.ModifiedTime)
}

// Builder assembles a deflate zip archive. Each Add writes a local file
// header and the compressed data immediately; Close writes the central
// directory and the end of central directory record.
//
// A Builder is not safe for concurrent use. After any error the output
// is invalid and every further call returns the same error.
type Builder struct {
	w       countWriter
	log     log.Interface
	level   int
	entries []Entry
	closed  bool
	err     error
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuilderLevel sets the deflate level.
func WithBuilderLevel(level int) BuilderOption {
	return func(b *Builder) {
		b.level = level
	}
}

// WithBuilderLogger sets the logger.
func WithBuilderLogger(l log.Interface) BuilderOption {
	return func(b *Builder) {
		b.log = l
	}
}

// NewBuilder returns a builder writing to w.
func NewBuilder(w io.Writer, options ...BuilderOption) *Builder {
	b := &Builder{
		w:     countWriter{w: w},
		log:   log.Log,
		level: DefaultCompression,
	}

	for _, o := range options {
		o(b)
	}

	return b
}

// Entries returns the entries written so far, in archive order.
func (b *Builder) Entries() []Entry {
	return append([]Entry(nil), b.entries...)
}

// Offset returns the number of bytes written so far.
func (b *Builder) Offset() int64 {
	return b.w.Offset()
}

// Add compresses data and writes it with its local file header. The
// name is stored verbatim.
func (b *Builder) Add(name string, data []byte, modified time.Time) error {
	if b.err != nil {
		return b.err
	}

	if b.closed {
		return ErrClosed
	}

	if err := b.add(name, data, modified); err != nil {
		b.err = err
		return err
	}

	return nil
}

// add implementation.
func (b *Builder) add(name string, data []byte, modified time.Time) error {
	if len(name) > maxNameLength {
		return &NameTooLongError{Name: name}
	}

	if len(b.entries) == math.MaxUint16 {
		return errors.Wrapf(ErrZip64Required, "adding %s: too many entries", name)
	}

	offset := b.w.Offset()
	if offset > math.MaxUint32 || int64(len(data)) > math.MaxUint32 {
		return errors.Wrapf(ErrZip64Required, "adding %s", name)
	}

	compressed, crc, err := Compress(data, b.level)
	if err != nil {
		return &CompressionError{Name: name, Err: err}
	}

	if int64(len(compressed)) > math.MaxUint32 {
		return errors.Wrapf(ErrZip64Required, "adding %s", name)
	}

	date, clock := dosDateTime(modified)
	e := Entry{
		Name:              name,
		ModifiedTime:      clock,
		ModifiedDate:      date,
		CRC32:             crc,
		CompressedSize:    uint32(len(compressed)),
		UncompressedSize:  uint32(len(data)),
		LocalHeaderOffset: uint32(offset),
	}

	b.log.Debugf("add %s: offset=%d size=%d compressed=%d crc=%08x", name, offset, e.UncompressedSize, e.CompressedSize, crc)

	if err := b.writeLocalHeader(e); err != nil {
		return err
	}

	b.w.bytes(compressed)
	if err := b.w.Err(); err != nil {
		return err
	}

	b.entries = append(b.entries, e)
	return nil
}

// writeLocalHeader writes the local file header and name of e.
func (b *Builder) writeLocalHeader(e Entry) error {
	w := &b.w
	w.uint32(localFileHeaderSignature)
	w.uint16(zipVersion) // version needed
	w.uint16(0)          // flags
	w.uint16(methodDeflate)
	w.uint16(e.ModifiedTime)
	w.uint16(e.ModifiedDate)
	w.uint32(e.CRC32)
	w.uint32(e.CompressedSize)
	w.uint32(e.UncompressedSize)
	w.uint16(uint16(len(e.Name)))
	w.uint16(0) // extra length
	w.bytes([]byte(e.Name))
	return w.Err()
}

// writeCentralDirectoryRecord writes the central directory record of e.
func (b *Builder) writeCentralDirectoryRecord(e Entry) error {
	w := &b.w
	w.uint32(centralDirectorySignature)
	w.uint16(zipVersion) // version made by
	w.uint16(zipVersion) // version needed
	w.uint16(0)          // flags
	w.uint16(methodDeflate)
	w.uint16(e.ModifiedTime)
	w.uint16(e.ModifiedDate)
	w.uint32(e.CRC32)
	w.uint32(e.CompressedSize)
	w.uint32(e.UncompressedSize)
	w.uint16(uint16(len(e.Name)))
	w.uint16(0) // extra length
	w.uint16(0) // comment length
	w.uint16(0) // disk number start
	w.uint16(0) // internal attributes
	w.uint32(0) // external attributes
	w.uint32(e.LocalHeaderOffset)
	w.bytes([]byte(e.Name))
	return w.Err()
}

// writeEndOfCentralDirectory writes the trailing record locating
// the central directory.
func (b *Builder) writeEndOfCentralDirectory(start, size int64) error {
	w := &b.w
	n := uint16(len(b.entries))
	w.uint32(endOfCentralDirSignature)
	w.uint16(0) // disk number
	w.uint16(0) // central directory start disk
	w.uint16(n) // entries on this disk
	w.uint16(n) // total entries
	w.uint32(uint32(size))
	w.uint32(uint32(start))
	w.uint16(0) // comment length
	return w.Err()
}

// Close writes the central directory and the end of central directory
// record. The underlying writer is not closed.
func (b *Builder) Close() error {
	if b.err != nil {
		return b.err
	}

	if b.closed {
		return nil
	}

	if err := b.close(); err != nil {
		b.err = err
		return err
	}

	b.closed = true
	return nil
}

// close implementation.
func (b *Builder) close() error {
	start := b.w.Offset()
	if start > math.MaxUint32 {
		return errors.Wrap(ErrZip64Required, "central directory offset")
	}

	for _, e := range b.entries {
		if err := b.writeCentralDirectoryRecord(e); err != nil {
			return err
		}
	}

	size := b.w.Offset() - start
	if size > math.MaxUint32 {
		return errors.Wrap(ErrZip64Required, "central directory size")
	}

	b.log.Debugf("central directory: entries=%d offset=%d size=%d", len(b.entries), start, size)
	return b.writeEndOfCentralDirectory(start, size)
}
