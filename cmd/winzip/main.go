// Command winzip creates a deflate zip archive from the given files.
//
//	winzip [flags] output.zip file1 [file2 ...]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/tj/go-ziparchive"
)

// errUsage is returned for invalid arguments.
var errUsage = errors.New("usage: winzip [flags] output.zip file1 [file2 ...]")

func main() {
	log.SetHandler(cli.New(os.Stderr))

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == errUsage || err == flag.ErrHelp {
			os.Exit(2)
		}
		log.WithError(err).Error("failed")
		os.Exit(1)
	}
}

// run parses args and builds the archive, printing a summary to w
// and usage to stderr.
func run(args []string, w, stderr io.Writer) error {
	set := flag.NewFlagSet("winzip", flag.ContinueOnError)
	set.SetOutput(stderr)
	set.Usage = func() {
		fmt.Fprintln(stderr, errUsage)
		set.PrintDefaults()
	}

	level := set.Int("level", ziparchive.DefaultCompression, "deflate level: -2 huffman only, -1 default, 0 store, 1 (fastest) to 9 (smallest)")
	strict := set.Bool("strict", false, "fail when an input cannot be read")
	ignore := set.String("ignore", "", "comma-separated gitignore-style pattern files")
	dotfiles := set.Bool("dotfiles", false, "omit dotfiles")
	verbose := set.Bool("v", false, "verbose logging")

	if err := set.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return errUsage
	}

	if set.NArg() < 2 {
		set.Usage()
		return errUsage
	}

	if *level < ziparchive.HuffmanOnly || *level > ziparchive.BestCompression {
		fmt.Fprintf(stderr, "invalid -level %d\n", *level)
		set.Usage()
		return errUsage
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	var filters ziparchive.Filters

	if *dotfiles {
		filters = append(filters, ziparchive.FilterDotfiles)
	}

	if *ignore != "" {
		f, err := ziparchive.FilterPatternFiles(strings.Split(*ignore, ",")...)
		if err != nil {
			return errors.Wrap(err, "reading patterns")
		}
		filters = append(filters, f)
	}

	policy := ziparchive.SkipUnreadable
	if *strict {
		policy = ziparchive.AbortOnUnreadable
	}

	dst := set.Arg(0)
	stats, err := build(dst, set.Args()[1:], func(a *ziparchive.Archive) {
		a.WithLevel(*level).WithPolicy(policy)
		if len(filters) > 0 {
			a.WithFilter(filters)
		}
	})

	if err != nil {
		return err
	}

	info, err := os.Stat(dst)
	if err != nil {
		return errors.Wrap(err, "stat")
	}

	fmt.Fprintf(w, "created %s with %d file(s) (%s)\n", dst, stats.FilesAdded, humanize.Bytes(uint64(info.Size())))
	return nil
}

// build writes the archive to a temporary file beside dst and renames it
// into place, removing it instead if the archive could not be completed.
func build(dst string, paths []string, configure func(*ziparchive.Archive)) (stats ziparchive.Stats, err error) {
	f, err := ioutil.TempFile(filepath.Dir(dst), ".winzip-*")
	if err != nil {
		return stats, errors.Wrap(err, "creating temp file")
	}

	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	buf := bufio.NewWriter(f)
	zip := ziparchive.New(buf)
	configure(zip)

	if err := zip.AddFiles(paths...); err != nil {
		return stats, errors.Wrap(err, "adding files")
	}

	if err := zip.Close(); err != nil {
		return stats, errors.Wrap(err, "closing archive")
	}

	if err := buf.Flush(); err != nil {
		return stats, errors.Wrap(err, "flushing")
	}

	if err := f.Close(); err != nil {
		return stats, errors.Wrap(err, "closing file")
	}

	if err := os.Chmod(f.Name(), 0644); err != nil {
		return stats, errors.Wrap(err, "chmod")
	}

	if err := os.Rename(f.Name(), dst); err != nil {
		return stats, errors.Wrap(err, "renaming")
	}

	return *zip.Stats(), nil
}
