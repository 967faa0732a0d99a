// Command dsv prints delimited files as aligned tables or re-delimits them.
//
//	dsv [flags] [file]
//
// Without a file, dsv reads standard input.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/oleg578/dsv/internal/app"
	"github.com/oleg578/dsv/internal/config"
	"github.com/oleg578/dsv/internal/logging"
	"github.com/oleg578/dsv/internal/subset"
)

var version = "dev"

// errUsage marks flag errors the flag set has already reported.
var errUsage = errors.New("usage")

func main() {
	// Writes to a closed stdout return EPIPE instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	if err := run(os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr); err != nil {
		switch {
		case errors.Is(err, errUsage):
			os.Exit(2)
		case app.IsBrokenPipe(err):
		default:
			fmt.Fprintf(os.Stderr, "dsv: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, getenv func(string) string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dsv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: dsv [flags] [file]\n\nA utility for parsing delimited files.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	var (
		delimiter     = fs.String("d", "", "delimiter character (defaults to tab if it can't be inferred from the file name)")
		format        = fs.String("o", "table", "output format: table or delimited")
		noHeader      = fs.Bool("no-header", false, "don't print the line separating the header from the rest of the table")
		headerIndexes = fs.Bool("include-header-indexes", false, "print column numbers in front of the header cells in table output")
		numbered      = fs.String("f", "", "print a subset of the columns by 1-based number or range (comma separated, e.g. 1,3-5)")
		named         = fs.String("F", "", "print a subset of the columns by header name (comma separated)")
		encoding      = fs.String("e", "", "input character encoding, e.g. latin1, windows-1252, utf-16 (default: raw bytes)")
		wide          = fs.Bool("wide", false, "size table cells by terminal display width")
		showVersion   = fs.Bool("version", false, "print the version and exit")
		outDelimiter  string
	)
	fs.StringVar(&outDelimiter, "O", "", "output delimiter; implies -o delimited (default tab)")
	fs.StringVar(&outDelimiter, "output-delimiter", "", "same as -O")

	files, err := parseArgs(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return errUsage
	}
	if *showVersion {
		fmt.Fprintf(stdout, "dsv %s\n", version)
		return nil
	}
	if len(files) > 1 {
		fmt.Fprintf(stderr, "dsv: expected at most one file, got %d\n", len(files))
		fs.Usage()
		return errUsage
	}

	cfg, err := config.LoadFrom(getenv)
	if err != nil {
		return err
	}
	logging.Setup(stderr, cfg.Logging.Level, cfg.Logging.Format)

	opts := app.Options{
		NoHeader:      *noHeader,
		HeaderIndexes: *headerIndexes,
		Encoding:      *encoding,
		Wide:          *wide,
		BigFileLimit:  cfg.Input.BigFileLimit,
	}
	if len(files) == 1 {
		opts.Path = files[0]
	}
	if opts.Delimiter, err = app.ParseDelimiter(*delimiter); err != nil {
		return err
	}
	if opts.Format, err = app.ParseFormat(*format); err != nil {
		return err
	}
	if opts.OutDelimiter, err = app.ParseDelimiter(outDelimiter); err != nil {
		return err
	}
	if opts.OutDelimiter != 0 {
		opts.Format = app.FormatDelimited
	}
	if opts.Subset, err = subset.New(*numbered, *named); err != nil {
		return &app.ConfigError{Err: err}
	}

	return app.Run(opts, stdin, stdout)
}

// parseArgs parses flags and collects positional arguments, allowing flags
// after the file name.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		if used := len(args) - fs.NArg(); used > 0 && args[used-1] == "--" {
			return append(positional, fs.Args()...), nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}
