package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/oleg578/dsv/internal/rowsource"
)

// decoder returns the Decode hook for the named encoding. A leading UTF-8 or
// UTF-16 byte order mark always wins over the name and is dropped.
func decoder(name string) (func(io.Reader) io.Reader, error) {
	var enc encoding.Encoding = encoding.Nop
	if name = strings.TrimSpace(name); name != "" {
		e, err := htmlindex.Get(name)
		if err != nil {
			return nil, configErrorf("unknown encoding %q", name)
		}
		enc = e
	}
	return func(r io.Reader) io.Reader {
		return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder()))
	}, nil
}

// openInput opens path, or stdin when path is empty. The returned close
// function is a no-op for stdin.
func openInput(path string, stdin io.Reader) (rowsource.Input, func() error, error) {
	if path == "" {
		return stdinInput(stdin), func() error { return nil }, nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return rowsource.Input{}, nil, &MissingFileError{Path: path}
	}
	if err != nil {
		return rowsource.Input{}, nil, err
	}
	if info.IsDir() {
		return rowsource.Input{}, nil, fmt.Errorf("%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return rowsource.Input{}, nil, err
	}
	return rowsource.Input{R: f, Size: info.Size()}, f.Close, nil
}

// stdinInput measures stdin when it is a regular file, such as a shell
// redirection. Pipes and terminals have unknown size and are buffered.
func stdinInput(stdin io.Reader) rowsource.Input {
	in := rowsource.Input{R: stdin, Size: -1}
	f, ok := stdin.(*os.File)
	if !ok {
		return in
	}
	if term.IsTerminal(int(f.Fd())) {
		slog.Warn("reading from terminal, end input with Ctrl-D")
		return in
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return in
	}
	offset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return in
	}
	in.Size = info.Size() - offset
	return in
}
