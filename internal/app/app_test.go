package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"
	"testing"

	"github.com/oleg578/dsv/internal/dsv"
	"github.com/oleg578/dsv/internal/subset"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func run(t *testing.T, opts Options) string {
	t.Helper()

	var out bytes.Buffer
	if err := Run(opts, strings.NewReader(""), &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out.String()
}

func TestRunTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		opts    Options
		want    string
	}{
		{
			name:    "csvBySuffix",
			file:    "people.csv",
			content: "name,age\nann,31\n",
			want: "+------+-----+\n" +
				"| name | age |\n" +
				"+------+-----+\n" +
				"| ann  | 31  |\n" +
				"+------+-----+\n",
		},
		{
			name:    "namedSubsetReorders",
			file:    "people.csv",
			content: "name,age\nann,31\n",
			opts:    Options{Subset: subset.Names("age", "name")},
			want: "+-----+------+\n" +
				"| age | name |\n" +
				"+-----+------+\n" +
				"| 31  | ann  |\n" +
				"+-----+------+\n",
		},
		{
			name:    "namedSubsetWithoutHeaderBand",
			file:    "people.csv",
			content: "name,age\nann,31\n",
			opts:    Options{NoHeader: true, Subset: subset.Names("age")},
			want: "+-----+\n" +
				"| age |\n" +
				"| 31  |\n" +
				"+-----+\n",
		},
		{
			name:    "headerIndexes",
			file:    "data.tsv",
			content: "a\tbb\nxyz\t1\n",
			opts:    Options{HeaderIndexes: true},
			want: "+------+-------+\n" +
				"| 1. a | 2. bb |\n" +
				"+------+-------+\n" +
				"| xyz  | 1     |\n" +
				"+------+-------+\n",
		},
		{
			name:    "headerIndexesIgnoredWithSubset",
			file:    "data.tsv",
			content: "a\tbb\nxyz\t1\n",
			opts:    Options{HeaderIndexes: true, Subset: subset.Indexes(1)},
			want: "+----+\n" +
				"| bb |\n" +
				"+----+\n" +
				"| 1  |\n" +
				"+----+\n",
		},
		{
			name:    "singleHeaderRow",
			file:    "data.psv",
			content: "a|b\n",
			want: "+---+---+\n" +
				"| a | b |\n" +
				"+---+---+\n",
		},
		{
			name:    "noHeader",
			file:    "data.psv",
			content: "a|b\n",
			opts:    Options{NoHeader: true},
			want: "+---+---+\n" +
				"| a | b |\n" +
				"+---+---+\n",
		},
		{
			name:    "explicitDelimiter",
			file:    "data.txt",
			content: "a;b\n",
			opts:    Options{Delimiter: ';', NoHeader: true},
			want: "+---+---+\n" +
				"| a | b |\n" +
				"+---+---+\n",
		},
		{
			name:    "tabInField",
			file:    "data.csv",
			content: "h\n\"a\tb\"\n",
			want: "+--------+\n" +
				"| h      |\n" +
				"+--------+\n" +
				"| a    b |\n" +
				"+--------+\n",
		},
		{
			name:    "literalQuote",
			file:    "data.tsv",
			content: "item\tsize\nTV\t5\" screen\n\"x\"y\tz\n",
			want: "+------+-----------+\n" +
				"| item | size      |\n" +
				"+------+-----------+\n" +
				"| TV   | 5\" screen |\n" +
				"| xy   | z         |\n" +
				"+------+-----------+\n",
		},
		{
			name:    "empty",
			file:    "empty.csv",
			content: "",
			want:    "",
		},
		{
			name:    "wide",
			file:    "data.csv",
			content: "k\n日本\n",
			opts:    Options{Wide: true},
			want: "+------+\n" +
				"| k    |\n" +
				"+------+\n" +
				"| 日本 |\n" +
				"+------+\n",
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			opts := tc.opts
			opts.Path = writeFile(t, tc.file, tc.content)
			if got := run(t, opts); got != tc.want {
				t.Fatalf("output mismatch\n got:\n%s\nwant:\n%s", got, tc.want)
			}
		})
	}
}

func TestRunDelimited(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		opts    Options
		want    string
	}{
		{
			name:    "defaultOutputDelimiter",
			file:    "data.csv",
			content: "a,b\n1,2\n",
			want:    "a\tb\n1\t2\n",
		},
		{
			name:    "numberedSubset",
			file:    "data.tsv",
			content: "a\tb\tc\td\te\tf\n1\t2\t3\n",
			opts:    Options{Subset: mustParse(t, "2,4-5")},
			want:    "b\td\te\n2\t\t\n",
		},
		{
			name:    "namedSubsetRepeats",
			file:    "data.csv",
			content: "a,b\n1,2\n",
			opts:    Options{OutDelimiter: ',', Subset: subset.Names("b", "b", "a")},
			want:    "b,b,a\n2,2,1\n",
		},
		{
			name:    "quotesOutputDelimiter",
			file:    "data.tsv",
			content: "a\tb,c\n",
			opts:    Options{OutDelimiter: ','},
			want:    "a,\"b,c\"\n",
		},
		{
			name:    "blankLinesSkipped",
			file:    "data.csv",
			content: "a\n\n\nb\n",
			want:    "a\nb\n",
		},
		{
			name:    "byteOrderMark",
			file:    "data.csv",
			content: "\xef\xbb\xbfname,n\nann,1\n",
			opts:    Options{Subset: subset.Names("name")},
			want:    "name\nann\n",
		},
		{
			name:    "latin1",
			file:    "data.csv",
			content: "name\ncaf\xe9\n",
			opts:    Options{Encoding: "latin1"},
			want:    "name\ncafé\n",
		},
		{
			name:    "empty",
			file:    "data.csv",
			content: "",
			want:    "",
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			opts := tc.opts
			opts.Format = FormatDelimited
			opts.Path = writeFile(t, tc.file, tc.content)
			if got := run(t, opts); got != tc.want {
				t.Fatalf("output = %q, want %q", got, tc.want)
			}
		})
	}
}

func mustParse(t *testing.T, raw string) subset.Spec {
	t.Helper()

	spec, err := subset.ParseNumbered(raw)
	if err != nil {
		t.Fatalf("ParseNumbered(%q) error = %v", raw, err)
	}
	return spec
}

func TestRunDelimitedRoundTrip(t *testing.T) {
	t.Parallel()

	content := "id,text\n1,\"comma, inside\"\n2,\"a \"\"quote\"\"\"\n3,\"two\nlines\"\n4,\n"
	path := writeFile(t, "data.csv", content)
	got := run(t, Options{Path: path, Format: FormatDelimited, OutDelimiter: ','})
	if got != content {
		t.Fatalf("round trip changed the data\n got: %q\nwant: %q", got, content)
	}
}

func TestRunStreamedMatchesBuffered(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("id\tname\tnote\n")
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&b, "%d\tname-%d\t%s\n", i, i, strings.Repeat("x", i%17))
	}
	path := writeFile(t, "big.tsv", b.String())

	for _, spec := range []subset.Spec{{}, subset.Indexes(2, 0), subset.Names("note")} {
		buffered := run(t, Options{Path: path, Subset: spec})
		streamed := run(t, Options{Path: path, Subset: spec, BigFileLimit: 1})
		if buffered != streamed {
			t.Fatalf("subset %v: streamed output differs from buffered", spec.Kind())
		}
		if n := strings.Count(streamed, "\n"); n != 504 {
			t.Fatalf("subset %v: got %d lines, want 504", spec.Kind(), n)
		}
	}
}

func TestRunRedirectedStdin(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "stdin.tsv", "skip\na\tb\n1\t2\n")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	// Leave the first line behind, as a shell would after a partial read.
	if _, err := f.Seek(5, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}

	var out bytes.Buffer
	if err := Run(Options{Format: FormatDelimited, OutDelimiter: ',', BigFileLimit: 1}, f, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got, want := out.String(), "a,b\n1,2\n"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}

	if _, err := f.Seek(5, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	out.Reset()
	if err := Run(Options{BigFileLimit: 1}, f, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "+---+---+\n| a | b |\n+---+---+\n| 1 | 2 |\n+---+---+\n"
	if out.String() != want {
		t.Fatalf("table output = %q, want %q", out.String(), want)
	}
}

func TestRunPipedStdin(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := Run(Options{Format: FormatDelimited, OutDelimiter: '|'}, strings.NewReader("a\tb\n"), &out)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := out.String(); got != "a|b\n" {
		t.Fatalf("output = %q, want %q", got, "a|b\n")
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	t.Run("missingFile", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nope.csv")
		err := Run(Options{Path: path}, nil, &bytes.Buffer{})
		var missing *MissingFileError
		if !errors.As(err, &missing) || missing.Path != path {
			t.Fatalf("Run() error = %v, want MissingFileError for %s", err, path)
		}
		if !strings.Contains(err.Error(), path) {
			t.Fatalf("error %q should name the file", err)
		}
	})

	t.Run("missingColumns", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "data.csv", "a,b\n1,2\n")
		for _, format := range []Format{FormatTable, FormatDelimited} {
			var out bytes.Buffer
			err := Run(Options{Path: path, Format: format, Subset: subset.Names("x", "a", "y")}, nil, &out)
			var missing *subset.MissingColumnsError
			if !errors.As(err, &missing) {
				t.Fatalf("%v: Run() error = %v, want MissingColumnsError", format, err)
			}
			if !reflect.DeepEqual(missing.Names, []string{"x", "y"}) {
				t.Fatalf("%v: missing = %v, want [x y]", format, missing.Names)
			}
			if out.Len() != 0 {
				t.Fatalf("%v: wrote %q before failing on the header", format, out.String())
			}
		}
	})

	t.Run("unknownEncoding", func(t *testing.T) {
		t.Parallel()

		err := Run(Options{Path: filepath.Join(t.TempDir(), "nope.csv"), Encoding: "klingon"}, nil, &bytes.Buffer{})
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("Run() error = %v, want ConfigError before the file is opened", err)
		}
	})

	t.Run("parseError", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "data.csv", "a,b\n1,\"open\n")
		for _, format := range []Format{FormatTable, FormatDelimited} {
			err := Run(Options{Path: path, Format: format}, nil, &bytes.Buffer{})
			var perr *dsv.ParseError
			if !errors.As(err, &perr) || !errors.Is(err, dsv.ErrUnterminatedQuote) {
				t.Fatalf("%v: Run() error = %v, want unterminated quote ParseError", format, err)
			}
		}
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		if err := Run(Options{Path: t.TempDir()}, nil, &bytes.Buffer{}); err == nil {
			t.Fatal("Run() on a directory expected error")
		}
	})
}

type pipeWriter struct{}

func (pipeWriter) Write([]byte) (int, error) { return 0, syscall.EPIPE }

func TestRunBrokenPipe(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "data.csv", "a,b\n1,2\n")
	for _, format := range []Format{FormatTable, FormatDelimited} {
		err := Run(Options{Path: path, Format: format}, nil, pipeWriter{})
		if !IsBrokenPipe(err) {
			t.Fatalf("%v: Run() error = %v, want broken pipe", format, err)
		}
	}
	if IsBrokenPipe(errors.New("disk full")) {
		t.Fatal("IsBrokenPipe() = true for an unrelated error")
	}
}

func TestInputDelimiter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		override byte
		want     byte
	}{
		{path: "a.csv", want: ','},
		{path: "A.CSV", want: ','},
		{path: "dir.csv/a.Tsv", want: '\t'},
		{path: "a.psv", want: '|'},
		{path: "a.txt", want: '\t'},
		{path: "", want: '\t'},
		{path: "a.csv", override: ';', want: ';'},
	}
	for _, tc := range tests {
		if got := InputDelimiter(tc.path, tc.override); got != tc.want {
			t.Errorf("InputDelimiter(%q, %q) = %q, want %q", tc.path, tc.override, got, tc.want)
		}
	}
}

func TestParseDelimiter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    byte
		wantErr bool
	}{
		{in: "", want: 0},
		{in: ",", want: ','},
		{in: `\t`, want: '\t'},
		{in: "tab", want: '\t'},
		{in: "\t", want: '\t'},
		{in: "ab", wantErr: true},
		{in: "é", wantErr: true},
		{in: "\n", wantErr: true},
		{in: `"`, wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseDelimiter(tc.in)
		if tc.wantErr {
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("ParseDelimiter(%q) error = %v, want ConfigError", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseDelimiter(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": FormatTable, "table": FormatTable, "Delimited": FormatDelimited} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("json"); err == nil {
		t.Error("ParseFormat(json) expected error")
	}
}
