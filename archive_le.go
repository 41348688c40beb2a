package ziparchive

import (
	"io"

	"github.com/pkg/errors"
)

// countWriter writes little-endian fields to w and tracks the number of
// bytes written, which is the offset of the next byte in the archive.
// The first failed write is kept and turns later writes into no-ops.
type countWriter struct {
	w       io.Writer
	offset  int64
	err     error
	scratch [4]byte
}

// Offset returns the number of bytes written so far.
func (c *countWriter) Offset() int64 {
	return c.offset
}

// Err returns the first write error as an *IoError.
func (c *countWriter) Err() error {
	return c.err
}

// uint16 writes v least significant byte first.
func (c *countWriter) uint16(v uint16) {
	c.scratch[0] = byte(v)
	c.scratch[1] = byte(v >> 8)
	c.bytes(c.scratch[:2])
}

// uint32 writes v least significant byte first.
func (c *countWriter) uint32(v uint32) {
	c.scratch[0] = byte(v)
	c.scratch[1] = byte(v >> 8)
	c.scratch[2] = byte(v >> 16)
	c.scratch[3] = byte(v >> 24)
	c.bytes(c.scratch[:4])
}

// bytes writes b verbatim.
func (c *countWriter) bytes(b []byte) {
	if c.err != nil {
		return
	}

	n, err := c.w.Write(b)
	c.offset += int64(n)

	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}

	if err != nil {
		c.err = &IoError{Offset: c.offset, Err: errors.Wrap(err, "writing archive")}
	}
}
