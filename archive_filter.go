package ziparchive

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/denormal/go-gitignore"
	"github.com/pkg/errors"
)

// Filter is the interface used to filter on input paths.
type Filter interface {
	// Match on the given path, if the function
	// returns true then the file is omitted.
	Match(path string) bool
}

// FilterFunc implements the Filter interface.
type FilterFunc func(string) bool

// Match implementation.
func (f FilterFunc) Match(path string) bool {
	return f(path)
}

// FilterDotfiles filters paths containing a dotfile or dot directory.
var FilterDotfiles = FilterFunc(func(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if isDot(part) {
			return true
		}
	}
	return false
})

// isDot returns true if there's a leading dot, other than
// the "." and ".." path elements.
func isDot(s string) bool {
	return len(s) > 0 && s[0] == '.' && s != "." && s != ".."
}

// FilterPatterns filters on the gitignore-style patterns in the given reader.
// A path is omitted when it or any of its parent directories is ignored.
func FilterPatterns(r io.Reader) (Filter, error) {
	filter := gitignore.New(r, ".", func(e gitignore.Error) bool {
		return true
	})

	return FilterFunc(func(path string) bool {
		parts := relativeParts(path)
		if len(parts) == 0 {
			return false
		}

		// an excluded directory cannot have its files re-included
		for i := 1; i < len(parts); i++ {
			if m := filter.Relative(strings.Join(parts[:i], "/"), true); m != nil && m.Ignore() {
				return true
			}
		}

		if m := filter.Relative(strings.Join(parts, "/"), false); m != nil {
			return m.Ignore()
		}
		return false
	}), nil
}

// relativeParts returns the elements of path with any root,
// "." or ".." prefix removed, so patterns match it as relative.
func relativeParts(path string) []string {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for len(parts) > 0 && (parts[0] == "" || parts[0] == "." || parts[0] == "..") {
		parts = parts[1:]
	}
	return parts
}

// FilterPatternFiles filters on the patterns of the given files
// in order, skipping files which do not exist.
func FilterPatternFiles(files ...string) (Filter, error) {
	var patterns bytes.Buffer

	for _, path := range files {
		b, err := ioutil.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			continue
		case err != nil:
			return nil, errors.Wrapf(err, "reading %s", path)
		}

		patterns.Write(b)
		patterns.WriteByte('\n')
	}

	return FilterPatterns(&patterns)
}

// Filters combines filters, omitting a path if any of them match.
type Filters []Filter

// Match implementation.
func (f Filters) Match(path string) bool {
	for _, filter := range f {
		if filter.Match(path) {
			return true
		}
	}
	return false
}
