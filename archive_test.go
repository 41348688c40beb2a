package ziparchive_test

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/pkg/errors"
	"github.com/tj/assert"

	"github.com/tj/go-ziparchive"
)

func init() {
	// log.SetLevel(log.DebugLevel)
}

// logger returns a logger recording entries in memory.
func logger() (*log.Logger, *memory.Handler) {
	h := memory.New()
	return &log.Logger{Handler: h, Level: log.DebugLevel}, h
}

func TestArchive_files(t *testing.T) {
	files := ziparchive.Files{}
	var paths []string

	for i := 0; i < 10; i++ {
		path := fmt.Sprintf("example-%d.txt", i)
		paths = append(paths, path)
		files[path] = ziparchive.Info{
			Data:     []byte(strings.Repeat("Hello", i+1)),
			Modified: time.Now(),
		}
	}

	var buf bytes.Buffer
	zip := ziparchive.New(&buf).WithSource(files)
	assert.NoError(t, zip.AddFiles(paths...), "add")
	assert.NoError(t, zip.Close(), "close")

	out := unzip(t, buf.Bytes())
	assert.Len(t, out, 10)

	for path, info := range files {
		assert.Equal(t, info.Data, out[path], path)
	}

	stats := zip.Stats()
	assert.Equal(t, int64(10), stats.FilesAdded, "added")
	assert.Equal(t, int64(5*55), stats.SizeUncompressed, "uncompressed")
	assert.True(t, stats.SizeCompressed > 0, "compressed")
}

func TestArchive_skip(t *testing.T) {
	files := ziparchive.Files{
		"first.txt": {Data: []byte("first")},
		"third.txt": {Data: []byte("third")},
	}

	l, h := logger()

	var buf bytes.Buffer
	zip := ziparchive.New(&buf).WithSource(files).WithLogger(l)
	assert.NoError(t, zip.AddFiles("first.txt", "second.txt", "third.txt"), "add")
	assert.NoError(t, zip.Close(), "close")

	d := parse(t, buf.Bytes())
	assert.Equal(t, uint16(2), d.EntriesOnDisk, "entries on disk")
	assert.Equal(t, uint16(2), d.TotalEntries, "total entries")
	assert.Len(t, d.Records, 2)
	assert.Equal(t, "first.txt", d.Records[0].Name)
	assert.Equal(t, "third.txt", d.Records[1].Name)

	for _, r := range d.Records {
		localHeader(t, buf.Bytes(), r)
	}

	out := unzip(t, buf.Bytes())
	assert.Equal(t, "first", string(out["first.txt"]))
	assert.Equal(t, "third", string(out["third.txt"]))

	assert.Equal(t, int64(1), zip.Stats().FilesSkipped, "skipped")
	assert.Equal(t, int64(2), zip.Stats().FilesAdded, "added")
	assert.Len(t, zip.Entries(), 2)

	var warnings []*log.Entry
	for _, e := range h.Entries {
		if e.Level == log.WarnLevel {
			warnings = append(warnings, e)
		}
	}

	assert.Len(t, warnings, 1)
	assert.Equal(t, "skipping second.txt", warnings[0].Message)
	assert.Contains(t, warnings[0].Fields["error"], "second.txt")
}

func TestArchive_abort(t *testing.T) {
	files := ziparchive.Files{
		"first.txt": {Data: []byte("first")},
		"third.txt": {Data: []byte("third")},
	}

	var buf bytes.Buffer
	zip := ziparchive.New(&buf).WithSource(files).WithPolicy(ziparchive.AbortOnUnreadable)

	err := zip.AddFiles("first.txt", "second.txt", "third.txt")
	assert.Error(t, err)

	e, ok := errors.Cause(err).(*ziparchive.FileReadError)
	assert.True(t, ok, "expected *FileReadError, got %T", err)
	assert.Equal(t, "second.txt", e.Path)
	assert.Equal(t, os.ErrNotExist, e.Err)

	assert.Len(t, zip.Entries(), 1)
	assert.Equal(t, int64(0), zip.Stats().FilesSkipped, "skipped")
}

func TestArchive_filter(t *testing.T) {
	files := ziparchive.Files{
		"main.go":      {Data: []byte("package main")},
		".envrc":       {Data: []byte("export FOO=bar")},
		"docs/.hidden": {Data: []byte("hidden")},
	}

	var buf bytes.Buffer
	zip := ziparchive.New(&buf).WithSource(files).WithFilter(ziparchive.FilterDotfiles)
	assert.NoError(t, zip.AddFiles("main.go", ".envrc", "docs/.hidden", ".missing"), "add")
	assert.NoError(t, zip.Close(), "close")

	out := unzip(t, buf.Bytes())
	assert.Len(t, out, 1)
	assert.Equal(t, "package main", string(out["main.go"]))

	assert.Equal(t, int64(3), zip.Stats().FilesFiltered, "filtered")
	assert.Equal(t, int64(0), zip.Stats().FilesSkipped, "skipped")
}

func TestArchive_level(t *testing.T) {
	files := ziparchive.Files{
		"a.txt": {Data: []byte(strings.Repeat("a", 4096))},
	}

	var stored, best bytes.Buffer

	zip := ziparchive.New(&stored).WithSource(files).WithLevel(0)
	assert.NoError(t, zip.Add("a.txt"), "add")
	assert.NoError(t, zip.Close(), "close")

	zip = ziparchive.New(&best).WithSource(files).WithLevel(ziparchive.BestCompression)
	assert.NoError(t, zip.Add("a.txt"), "add")
	assert.NoError(t, zip.Close(), "close")

	assert.True(t, best.Len() < stored.Len(), "expected %d < %d", best.Len(), stored.Len())
	assert.Equal(t, files["a.txt"].Data, unzip(t, stored.Bytes())["a.txt"])
	assert.Equal(t, files["a.txt"].Data, unzip(t, best.Bytes())["a.txt"])
}

func TestArchive_compressionError(t *testing.T) {
	files := ziparchive.Files{
		"a.txt": {Data: []byte("a")},
		"b.txt": {Data: []byte("b")},
	}

	var buf bytes.Buffer
	zip := ziparchive.New(&buf).WithSource(files).WithLevel(42)

	err := zip.AddFiles("a.txt", "b.txt")
	assert.IsType(t, &ziparchive.CompressionError{}, err)
	assert.True(t, ziparchive.IsFatal(err), "fatal")
	assert.Equal(t, err, zip.Close(), "close")
	assert.Equal(t, int64(0), zip.Stats().FilesAdded, "added")
}

func TestArchive_fileSystem(t *testing.T) {
	dir, err := ioutil.TempDir(os.TempDir(), "ziparchive-")
	assert.NoError(t, err, "tmpdir")
	defer os.RemoveAll(dir)

	modified := time.Date(2024, 3, 15, 13, 45, 30, 0, time.Local)

	a := filepath.Join(dir, "a.txt")
	assert.NoError(t, ioutil.WriteFile(a, []byte("hello"), 0644), "write")
	assert.NoError(t, os.Chtimes(a, modified, modified), "chtimes")

	sub := filepath.Join(dir, "sub")
	assert.NoError(t, os.Mkdir(sub, 0755), "mkdir")

	var buf bytes.Buffer
	zip := ziparchive.New(&buf)
	assert.NoError(t, zip.AddFiles(a, sub, filepath.Join(dir, "missing.txt")), "add")
	assert.NoError(t, zip.Close(), "close")

	assert.Equal(t, int64(2), zip.Stats().FilesSkipped, "skipped")

	entries := zip.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, a, entries[0].Name)
	assert.True(t, modified.Equal(entries[0].Modified()), "expected %s, got %s", modified, entries[0].Modified())
	assert.Equal(t, "hello", string(unzip(t, buf.Bytes())[a]))
}

func TestArchive_static(t *testing.T) {
	paths := []string{
		filepath.Join("testdata", "static", "index.html"),
		filepath.Join("testdata", "static", "style.css"),
	}

	var buf bytes.Buffer
	zip := ziparchive.New(&buf)
	assert.NoError(t, zip.AddFiles(paths...), "add")
	assert.NoError(t, zip.Close(), "close")

	out := unzip(t, buf.Bytes())
	assert.Len(t, out, 2)

	for _, path := range paths {
		b, err := ioutil.ReadFile(path)
		assert.NoError(t, err, "read")
		assert.Equal(t, b, out[path], path)
	}
}

func TestArchive_empty(t *testing.T) {
	var buf bytes.Buffer
	zip := ziparchive.New(&buf)
	assert.NoError(t, zip.Close(), "close")
	assert.Len(t, unzip(t, buf.Bytes()), 0)
}

func BenchmarkArchive(b *testing.B) {
	files := ziparchive.Files{}
	var paths []string

	for i := 0; i < 100; i++ {
		path := fmt.Sprintf("example-%d.txt", i)
		paths = append(paths, path)
		files[path] = ziparchive.Info{Data: []byte(strings.Repeat("Hello", 1000))}
	}

	for i := 0; i < b.N; i++ {
		zip := ziparchive.New(ioutil.Discard).WithSource(files)
		assert.NoError(b, zip.AddFiles(paths...), "add")
		assert.NoError(b, zip.Close(), "close")
	}
}
