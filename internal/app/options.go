package app

import (
	"fmt"
	"strings"

	"github.com/oleg578/dsv/internal/subset"
)

// DefaultDelimiter is used when no delimiter is given and none can be
// inferred from the file name.
const DefaultDelimiter = '\t'

// Format selects how rows are written.
type Format int

const (
	// FormatTable draws an aligned ASCII table.
	FormatTable Format = iota
	// FormatDelimited writes rows back out with an output delimiter.
	FormatDelimited
)

func (f Format) String() string {
	if f == FormatDelimited {
		return "delimited"
	}
	return "table"
}

// ParseFormat accepts "table" or "delimited".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "table":
		return FormatTable, nil
	case "delimited":
		return FormatDelimited, nil
	}
	return FormatTable, configErrorf("unknown output format %q, want table or delimited", s)
}

// Options is the configuration of one run.
type Options struct {
	// Path is the input file; empty reads standard input.
	Path string
	// Delimiter is the input delimiter; zero infers it from Path.
	Delimiter byte
	// Format selects table or delimited output.
	Format Format
	// OutDelimiter is the delimiter for FormatDelimited; zero means tab.
	OutDelimiter byte
	// NoHeader treats the first row as data in table output.
	NoHeader bool
	// HeaderIndexes prefixes header cells with their column number in table
	// output. It is ignored when NoHeader is set or a subset is selected.
	HeaderIndexes bool
	// Subset selects the columns to print.
	Subset subset.Spec
	// Encoding names the input character encoding; empty reads bytes as is.
	Encoding string
	// Wide measures cells in terminal columns instead of characters.
	Wide bool
	// BigFileLimit is the input size above which rows are streamed.
	BigFileLimit int64
}

// headerIndexes reports whether header cells get a column number prefix.
func (o Options) headerIndexes() bool {
	return o.Format == FormatTable && !o.NoHeader && o.HeaderIndexes && o.Subset.IsNone()
}

func (o Options) outDelimiter() byte {
	if o.OutDelimiter == 0 {
		return DefaultDelimiter
	}
	return o.OutDelimiter
}

var suffixDelimiters = []struct {
	suffix string
	delim  byte
}{
	{".CSV", ','},
	{".TSV", '\t'},
	{".PSV", '|'},
}

// InputDelimiter picks the input delimiter: the override when set, else one
// inferred from the file suffix (case-insensitive), else DefaultDelimiter.
func InputDelimiter(path string, override byte) byte {
	if override != 0 {
		return override
	}
	upper := strings.ToUpper(path)
	for _, s := range suffixDelimiters {
		if strings.HasSuffix(upper, s.suffix) {
			return s.delim
		}
	}
	return DefaultDelimiter
}

// ParseDelimiter converts a delimiter flag value to a byte. Empty returns
// zero. `\t` and "tab" name the tab character.
func ParseDelimiter(s string) (byte, error) {
	switch s {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	}
	if len(s) != 1 {
		return 0, configErrorf("delimiter %q must be a single byte character", s)
	}
	switch s[0] {
	case '\n', '\r', '"':
		return 0, configErrorf("delimiter %q is not allowed", s)
	}
	return s[0], nil
}

// ConfigError reports invalid options. It is returned before any input is read.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

// MissingFileError reports an input path that does not exist.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return "file doesn't exist: " + e.Path
}
