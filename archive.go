package ziparchive

import (
	"io"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
)

// Policy decides what happens when an input cannot be read.
type Policy int

// Policies supported.
const (
	// SkipUnreadable logs the failure and continues without the file.
	SkipUnreadable Policy = iota

	// AbortOnUnreadable fails the archive with a *FileReadError.
	AbortOnUnreadable
)

// Stats for an archive.
type Stats struct {
	FilesFiltered    int64
	FilesSkipped     int64
	FilesAdded       int64
	SizeUncompressed int64
	SizeCompressed   int64
}

// New returns a new zip archive writing to w.
func New(w io.Writer) *Archive {
	return &Archive{
		w:      w,
		source: FileSystem,
		log:    log.Log,
		level:  DefaultCompression,
	}
}

// Archive reads files from a source and writes them
// to a zip archive, in the order they are added.
type Archive struct {
	w      io.Writer
	b      *Builder
	source Source
	filter Filter
	policy Policy
	level  int
	log    log.Interface
	stats  Stats
}

// Stats returns stats about the archive.
func (a *Archive) Stats() *Stats {
	return &a.stats
}

// Entries returns the entries written so far.
func (a *Archive) Entries() []Entry {
	return a.builder().Entries()
}

// WithSource sets the source files are read from, defaulting to FileSystem.
func (a *Archive) WithSource(s Source) *Archive {
	a.source = s
	return a
}

// WithFilter adds a filter.
func (a *Archive) WithFilter(f Filter) *Archive {
	a.filter = f
	return a
}

// WithPolicy sets the policy for unreadable files, defaulting to SkipUnreadable.
func (a *Archive) WithPolicy(p Policy) *Archive {
	a.policy = p
	return a
}

// WithLevel sets the deflate level, defaulting to DefaultCompression.
func (a *Archive) WithLevel(level int) *Archive {
	a.level = level
	return a
}

// WithLogger sets the logger, defaulting to log.Log.
func (a *Archive) WithLogger(l log.Interface) *Archive {
	a.log = l
	return a
}

// builder returns the builder, creating it on first use
// so that options set before then apply.
func (a *Archive) builder() *Builder {
	if a.b == nil {
		a.log.Debug("open")
		a.b = NewBuilder(a.w, WithBuilderLevel(a.level), WithBuilderLogger(a.log))
	}
	return a.b
}

// AddFiles adds the files in order, stopping at the first fatal error.
func (a *Archive) AddFiles(paths ...string) error {
	for _, path := range paths {
		if err := a.Add(path); err != nil {
			return err
		}
	}
	return nil
}

// Add a file. Unreadable files are skipped unless the policy
// is AbortOnUnreadable.
func (a *Archive) Add(path string) error {
	b := a.builder()
	if b.err != nil {
		return b.err
	}

	if a.filter != nil && a.filter.Match(path) {
		a.log.Debugf("filtered %s", path)
		a.stats.FilesFiltered++
		return nil
	}

	data, modified, err := a.source.ReadFile(path)
	if err != nil {
		err = &FileReadError{Path: path, Err: err}

		if a.policy == AbortOnUnreadable {
			return err
		}

		a.log.WithError(err).Warnf("skipping %s", path)
		a.stats.FilesSkipped++
		return nil
	}

	a.log.Debugf("add %s: size=%d modified=%s", path, len(data), modified)

	start := b.Offset()
	if err := b.Add(path, data, modified); err != nil {
		return err
	}

	entries := b.entries
	a.stats.FilesAdded++
	a.stats.SizeUncompressed += int64(len(data))
	a.stats.SizeCompressed += int64(entries[len(entries)-1].CompressedSize)

	a.log.Debugf("wrote %s: %d bytes", path, b.Offset()-start)
	return nil
}

// Close the archive. The underlying writer is not closed.
func (a *Archive) Close() error {
	b := a.builder()

	a.log.WithFields(log.Fields{
		"files_filtered":    a.stats.FilesFiltered,
		"files_skipped":     a.stats.FilesSkipped,
		"files_added":       a.stats.FilesAdded,
		"size_uncompressed": humanize.Bytes(uint64(a.stats.SizeUncompressed)),
		"size_compressed":   humanize.Bytes(uint64(a.stats.SizeCompressed)),
	}).Debug("stats")

	a.log.Debug("close")
	return b.Close()
}
