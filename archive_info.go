package ziparchive

import (
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Source is the interface used to read the contents
// and modification time of the files being archived.
type Source interface {
	ReadFile(path string) ([]byte, time.Time, error)
}

// SourceFunc implements the Source interface.
type SourceFunc func(string) ([]byte, time.Time, error)

// ReadFile implementation.
func (f SourceFunc) ReadFile(path string) ([]byte, time.Time, error) {
	return f(path)
}

// FileSystem reads files from disk, resolving relative
// paths against the working directory.
var FileSystem = SourceFunc(func(path string) ([]byte, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, err
	}

	if info.IsDir() {
		return nil, time.Time{}, errors.New("is a directory")
	}

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, err
	}

	return b, info.ModTime(), nil
})

// Info is an in-memory file, useful if you're working
// with generated contents instead of files from disk.
type Info struct {
	Data     []byte
	Modified time.Time
}

// Files implements the Source interface over in-memory
// files keyed by path. Missing paths fail to read.
type Files map[string]Info

// ReadFile implementation.
func (f Files) ReadFile(path string) ([]byte, time.Time, error) {
	i, ok := f[path]
	if !ok {
		return nil, time.Time{}, os.ErrNotExist
	}
	return i.Data, i.Modified, nil
}
