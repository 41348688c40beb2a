package ziparchive

import (
	"bytes"
	"hash/crc32"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

// Compression levels.
const (
	DefaultCompression = flate.DefaultCompression
	BestSpeed          = flate.BestSpeed
	BestCompression    = flate.BestCompression
	HuffmanOnly        = flate.HuffmanOnly
)

// CompressBound returns the worst-case size of deflating n bytes.
func CompressBound(n int) int {
	return n + n>>12 + n>>14 + n>>25 + 13
}

// Compress deflates raw without a zlib or gzip wrapper, returning
// the compressed bytes and the CRC-32 of raw.
func Compress(raw []byte, level int) ([]byte, uint32, error) {
	var buf bytes.Buffer
	buf.Grow(CompressBound(len(raw)))

	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, 0, errors.Wrap(err, "creating deflate writer")
	}

	if _, err := w.Write(raw); err != nil {
		return nil, 0, errors.Wrap(err, "deflating")
	}

	if err := w.Close(); err != nil {
		return nil, 0, errors.Wrap(err, "flushing deflate stream")
	}

	return buf.Bytes(), crc32.ChecksumIEEE(raw), nil
}
